package models

import "time"

// PaymentRecord оплата с именем плательщика и названием курса для администратора.
// Account и Course пусты, если пользователь или курс уже удалены.
type PaymentRecord struct {
	ID           string    `json:"id"`
	AccountID    int64     `json:"account_id"`
	Account      string    `json:"account"`
	CourseID     int64     `json:"course_id"`
	Course       string    `json:"course"`
	Value        string    `json:"value"`
	EmailAddress string    `json:"email_address"`
	CreatedAt    time.Time `json:"created_at"`
}

// EnrollmentRecord запись пользователя на курс для администратора.
type EnrollmentRecord struct {
	UserID    int64     `json:"user_id"`
	User      string    `json:"user"`
	CourseID  int64     `json:"course_id"`
	Course    string    `json:"course"`
	CreatedAt time.Time `json:"created_at"`
}
