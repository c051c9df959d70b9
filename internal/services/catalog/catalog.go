// Package catalog содержит бизнес-логику каталога курсов и кэширование списка курсов.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

var (
	// ErrPermissionDenied у пользователя нет прав на операцию.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrCourseNotFound курс не найден.
	ErrCourseNotFound = errors.New("course not found")
	// ErrInvalidCourse данные курса некорректны.
	ErrInvalidCourse = errors.New("invalid course")
)

const (
	coursesCacheKey = "courses:all"
	coursesCacheTTL = 10 * time.Minute
)

// CourseRepository определяет методы для работы с курсами в хранилище.
type CourseRepository interface {
	// CreateCourse сохраняет курс и возвращает его ID.
	CreateCourse(ctx context.Context, course models.Course) (int64, error)
	// GetCourse возвращает курс по ID.
	GetCourse(ctx context.Context, id int64) (*models.Course, error)
	// ListCourses возвращает все курсы по возрастанию ID.
	ListCourses(ctx context.Context) ([]*models.Course, error)
	// IsEnrolled сообщает, купил ли пользователь курс.
	IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// CourseInput данные формы создания курса.
type CourseInput struct {
	Name        string
	Price       int
	Description string
	Content     string
}

// Service реализует операции каталога.
type Service struct {
	repo  CourseRepository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo CourseRepository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// ListCourses возвращает все курсы, используя кэш. Ошибки кэша не прерывают запрос.
func (s *Service) ListCourses(ctx context.Context) ([]*models.Course, error) {
	const op = "catalog.ListCourses"

	var courses []*models.Course
	found, err := s.cache.Get(ctx, coursesCacheKey, &courses)
	if err != nil {
		s.log.Warn("failed to read courses from cache", sl.Op(op), sl.Err(err))
	}
	if found {
		return courses, nil
	}

	courses, err = s.repo.ListCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, coursesCacheKey, courses, coursesCacheTTL); err != nil {
		s.log.Warn("failed to cache courses", sl.Op(op), sl.Err(err))
	}
	return courses, nil
}

// GetCourse возвращает курс вместе с признаком покупки текущим пользователем.
func (s *Service) GetCourse(ctx context.Context, userID, courseID int64) (*models.CourseView, error) {
	const op = "catalog.GetCourse"

	course, err := s.repo.GetCourse(ctx, courseID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrCourseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	enrolled, err := s.repo.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.CourseView{Course: course, Enrolled: enrolled}, nil
}

// IsEnrolled сообщает, купил ли пользователь курс.
func (s *Service) IsEnrolled(ctx context.Context, userID, courseID int64) (bool, error) {
	const op = "catalog.IsEnrolled"
	enrolled, err := s.repo.IsEnrolled(ctx, userID, courseID)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return enrolled, nil
}

// CreateCourse создаёт курс от имени автора. Студентам создание запрещено.
func (s *Service) CreateCourse(ctx context.Context, authorID int64, role models.Role, in CourseInput) (int64, error) {
	const op = "catalog.CreateCourse"

	if !role.CanCreateCourses() {
		return 0, fmt.Errorf("%s: %w", op, ErrPermissionDenied)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.Price < 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidCourse)
	}

	id, err := s.repo.CreateCourse(ctx, models.Course{
		Name:        name,
		Price:       in.Price,
		Description: in.Description,
		Content:     in.Content,
		AuthorID:    &authorID,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("course created", slog.Int64("course_id", id), slog.Int64("author_id", authorID))

	if err := s.cache.Invalidate(ctx, coursesCacheKey); err != nil {
		s.log.Warn("failed to invalidate courses cache", sl.Op(op), sl.Err(err))
	}
	return id, nil
}
