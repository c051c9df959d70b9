// Package admin отдаёт администратору данные всех пользователей, курсов и оплат.
package admin

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/course-market/internal/models"
)

// Repository описывает выборки для администратора.
type Repository interface {
	ListUsers(ctx context.Context) ([]*models.User, error)
	ListCourses(ctx context.Context) ([]*models.Course, error)
	ListPaymentRecords(ctx context.Context) ([]*models.PaymentRecord, error)
	ListEnrollments(ctx context.Context) ([]*models.EnrollmentRecord, error)
}

// Service реализует просмотр данных администратором.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListUsers возвращает всех пользователей.
func (s *Service) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "admin.ListUsers"
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListCourses возвращает все курсы напрямую из хранилища, минуя кэш каталога.
func (s *Service) ListCourses(ctx context.Context) ([]*models.Course, error) {
	const op = "admin.ListCourses"
	courses, err := s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// ListPayments возвращает все оплаты с именами плательщиков и названиями курсов.
func (s *Service) ListPayments(ctx context.Context) ([]*models.PaymentRecord, error) {
	const op = "admin.ListPayments"
	payments, err := s.repo.ListPaymentRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return payments, nil
}

// ListEnrollments возвращает все записи на курсы.
func (s *Service) ListEnrollments(ctx context.Context) ([]*models.EnrollmentRecord, error) {
	const op = "admin.ListEnrollments"
	enrollments, err := s.repo.ListEnrollments(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return enrollments, nil
}
