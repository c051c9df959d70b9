package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/course-market/internal/models"
)

const courseColumns = `c.id, c.name, c.price, c.description, c.content, c.users_in, c.author_id, c.created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateCourse добавляет курс и возвращает его ID.
func (s *Storage) CreateCourse(ctx context.Context, course models.Course) (int64, error) {
	const op = "storage.CreateCourse"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO courses (name, price, description, content, users_in, author_id)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  RETURNING id`
	var newID int64
	err := s.DB.QueryRowContext(ctx, query,
		course.Name, course.Price, course.Description, course.Content,
		course.UsersIn, course.AuthorID).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// GetCourse возвращает курс по ID.
func (s *Storage) GetCourse(ctx context.Context, id int64) (*models.Course, error) {
	const op = "storage.GetCourse"

	query := `SELECT ` + courseColumns + ` FROM courses c WHERE c.id = $1`
	c, err := scanCourse(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

// ListCourses возвращает все курсы каталога.
func (s *Storage) ListCourses(ctx context.Context) ([]*models.Course, error) {
	const op = "storage.ListCourses"

	query := `SELECT ` + courseColumns + ` FROM courses c ORDER BY c.id`
	return s.queryCourses(ctx, op, query)
}

// ListCoursesByUser возвращает курсы, на которые записан пользователь.
func (s *Storage) ListCoursesByUser(ctx context.Context, userID int64) ([]*models.Course, error) {
	const op = "storage.ListCoursesByUser"

	query := `SELECT ` + courseColumns + `
			  FROM courses c
			  JOIN user_courses uc ON uc.course_id = c.id
			  WHERE uc.user_id = $1
			  ORDER BY c.id`
	return s.queryCourses(ctx, op, query, userID)
}

// IsEnrolled проверяет, записан ли пользователь на курс.
func (s *Storage) IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error) {
	const op = "storage.IsEnrolled"

	query := `SELECT EXISTS (
			      SELECT 1 FROM user_courses WHERE user_id = $1 AND course_id = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userID, courseID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

func (s *Storage) queryCourses(ctx context.Context, op, query string, args ...any) ([]*models.Course, error) {
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func scanCourse(row rowScanner) (*models.Course, error) {
	var (
		c        models.Course
		usersIn  sql.NullString
		authorID sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Price, &c.Description, &c.Content,
		&usersIn, &authorID, &c.CreatedAt); err != nil {
		return nil, err
	}
	if usersIn.Valid {
		c.UsersIn = &usersIn.String
	}
	if authorID.Valid {
		c.AuthorID = &authorID.Int64
	}
	return &c, nil
}
