// Package models содержит доменные структуры маркетплейса курсов:
// пользователей, курсы, записи на курсы и платежи.
package models

import (
	"fmt"
	"strings"
	"time"
)

// Role закрытый набор ролей пользователя.
type Role string

const (
	// RoleStudent покупатель курсов.
	RoleStudent Role = "student"
	// RoleTeacher автор курсов.
	RoleTeacher Role = "teacher"
	// RoleAdmin администратор.
	RoleAdmin Role = "admin"
)

// ParseRole преобразует строку в Role. Неизвестные значения возвращают ошибку.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

// Valid сообщает, входит ли роль в допустимый набор.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// CanCreateCourses создавать курсы могут все роли, кроме студента.
func (r Role) CanCreateCourses() bool {
	return r.Valid() && r != RoleStudent
}

// CanManageData просматривать данные всех пользователей может только администратор.
func (r Role) CanManageData() bool {
	return r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}

// User представляет зарегистрированного пользователя.
type User struct {
	ID            int64     `json:"id"`
	Nickname      string    `json:"nickname"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	Role          Role      `json:"role"`
	TeacherNumber *string   `json:"teacher_number,omitempty"`
	Specialty     *string   `json:"specialty,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Profile данные страницы профиля: пользователь и купленные курсы.
type Profile struct {
	User    *User     `json:"user"`
	Courses []*Course `json:"courses"`
}
