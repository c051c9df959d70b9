package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/course-market/internal/models"
)

// ListUsers возвращает всех пользователей по возрастанию ID.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"

	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListPaymentRecords возвращает все оплаты с именем плательщика и названием курса, новые первыми.
func (s *Storage) ListPaymentRecords(ctx context.Context) ([]*models.PaymentRecord, error) {
	const op = "storage.ListPaymentRecords"

	query := `SELECT p.id, p.account_id, u.nickname, p.course_id, c.name,
					 p.value::text, p.email_address, p.created_at
			  FROM payments p
			  LEFT JOIN users u ON u.id = p.account_id
			  LEFT JOIN courses c ON c.id = p.course_id
			  ORDER BY p.created_at DESC, p.id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.PaymentRecord, 0)
	for rows.Next() {
		var (
			p       models.PaymentRecord
			account sql.NullString
			course  sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.AccountID, &account, &p.CourseID, &course,
			&p.Value, &p.EmailAddress, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		p.Account = account.String
		p.Course = course.String
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListEnrollments возвращает все записи на курсы с именами пользователей и курсов.
func (s *Storage) ListEnrollments(ctx context.Context) ([]*models.EnrollmentRecord, error) {
	const op = "storage.ListEnrollments"

	query := `SELECT uc.user_id, u.nickname, uc.course_id, c.name, uc.created_at
			  FROM user_courses uc
			  JOIN users u ON u.id = uc.user_id
			  JOIN courses c ON c.id = uc.course_id
			  ORDER BY uc.created_at, uc.user_id, uc.course_id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.EnrollmentRecord, 0)
	for rows.Next() {
		var e models.EnrollmentRecord
		if err := rows.Scan(&e.UserID, &e.User, &e.CourseID, &e.Course, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
