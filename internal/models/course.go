package models

import "time"

// Course представляет курс в каталоге.
// UsersIn оставлен для совместимости со старыми данными, принадлежность
// пользователя курсу хранится в Enrollment.
type Course struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Price       int       `json:"price"` // в центах
	Description string    `json:"description"`
	Content     string    `json:"content"`
	UsersIn     *string   `json:"users_in,omitempty"`
	AuthorID    *int64    `json:"author_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CourseView курс вместе с признаком того, что текущий пользователь его купил.
// Признак вычисляется запросом и не сохраняется в Course.
type CourseView struct {
	Course   *Course `json:"course"`
	Enrolled bool    `json:"enrolled"`
}

// Enrollment связь пользователь-курс, появляется после оплаты.
type Enrollment struct {
	UserID    int64     `json:"user_id"`
	CourseID  int64     `json:"course_id"`
	CreatedAt time.Time `json:"created_at"`
}
