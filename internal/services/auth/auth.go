// Package auth регистрирует пользователей, проверяет пароли и управляет сессиями.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-market/internal/lib/jwt"
	"github.com/magabrotheeeer/course-market/internal/lib/password"
	"github.com/magabrotheeeer/course-market/internal/lib/sl"
	"github.com/magabrotheeeer/course-market/internal/metrics"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/storage"
)

var (
	// ErrPasswordMismatch пароль и подтверждение не совпадают.
	ErrPasswordMismatch = errors.New("passwords do not match")
	// ErrInvalidRole роль не входит в допустимый набор.
	ErrInvalidRole = errors.New("invalid role")
	// ErrUserExists никнейм или имя пользователя уже заняты.
	ErrUserExists = errors.New("user already exists")
	// ErrInvalidCredentials неверное имя пользователя или пароль.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound сессия отсутствует, истекла или токен невалиден.
	ErrSessionNotFound = errors.New("session not found")
	// ErrUserNotFound пользователь сессии удалён.
	ErrUserNotFound = errors.New("user not found")
)

const sessionKeyPrefix = "session:"

// UserRepository описывает контракт хранилища пользователей.
type UserRepository interface {
	// CreateUser сохраняет пользователя и возвращает его ID.
	CreateUser(ctx context.Context, user models.User) (int64, error)
	// GetUserByUsername возвращает пользователя по имени.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	// GetUser возвращает пользователя по ID.
	GetUser(ctx context.Context, id int64) (*models.User, error)
	// ListCoursesByUser возвращает курсы, купленные пользователем.
	ListCoursesByUser(ctx context.Context, userID int64) ([]*models.Course, error)
}

// SessionStore хранилище сессий с временем жизни.
type SessionStore interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// RegisterInput данные формы регистрации.
type RegisterInput struct {
	Nickname        string
	Username        string
	Password        string
	ConfirmPassword string
	Role            string
	TeacherNumber   string
	Specialty       string
}

// Session текущий пользователь запроса.
type Session struct {
	ID       string      `json:"-"`
	UserID   int64       `json:"user_id"`
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
	Token    string      `json:"-"`
}

// Service отвечает за регистрацию, вход, выход и проверку сессий.
type Service struct {
	users    UserRepository
	sessions SessionStore
	jwtMaker jwt.Maker
	ttl      time.Duration
	log      *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(users UserRepository, sessions SessionStore, jwtMaker jwt.Maker, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		users:    users,
		sessions: sessions,
		jwtMaker: jwtMaker,
		ttl:      ttl,
		log:      log,
	}
}

// Register создаёт пользователя. Без номера преподавателя специальность не сохраняется.
func (s *Service) Register(ctx context.Context, in RegisterInput) (int64, error) {
	const op = "auth.Register"

	role, err := models.ParseRole(in.Role)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidRole)
	}
	if in.Password != in.ConfirmPassword {
		return 0, fmt.Errorf("%s: %w", op, ErrPasswordMismatch)
	}

	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	user := models.User{
		Nickname:     strings.TrimSpace(in.Nickname),
		Username:     strings.TrimSpace(in.Username),
		PasswordHash: hashed,
		Role:         role,
	}
	if number := strings.TrimSpace(in.TeacherNumber); number != "" {
		user.TeacherNumber = &number
		if specialty := strings.TrimSpace(in.Specialty); specialty != "" {
			user.Specialty = &specialty
		}
	}

	id, err := s.users.CreateUser(ctx, user)
	if errors.Is(err, storage.ErrUserExists) {
		return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user registered", slog.Int64("user_id", id), slog.String("role", role.String()))
	return id, nil
}

// Login проверяет пароль и открывает сессию. Неизвестное имя и неверный пароль
// возвращают одну и ту же ошибку.
func (s *Service) Login(ctx context.Context, username, rawPassword string) (*Session, error) {
	const op = "auth.Login"

	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		password.CompareDummy(rawPassword)
		metrics.Logins.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		metrics.Logins.WithLabelValues(metrics.ResultFailure).Inc()
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	session := &Session{
		ID:       uuid.NewString(),
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	}
	if err := s.sessions.Set(ctx, sessionKeyPrefix+session.ID, session, s.ttl); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	session.Token, err = s.jwtMaker.GenerateToken(session.ID, user.ID, user.Username, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
	return session, nil
}

// Authenticate возвращает сессию по токену. Токен должен быть валиден,
// а сессия присутствовать в хранилище.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	const op = "auth.Authenticate"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}

	var session Session
	found, err := s.sessions.Get(ctx, sessionKeyPrefix+claims.SessionID(), &session)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !found || session.UserID != claims.UserID {
		return nil, fmt.Errorf("%s: %w", op, ErrSessionNotFound)
	}
	session.ID = claims.SessionID()
	session.Token = token
	return &session, nil
}

// Logout удаляет сессию. Невалидный токен не считается ошибкой.
func (s *Service) Logout(ctx context.Context, token string) error {
	const op = "auth.Logout"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Debug("logout with invalid token", sl.Err(err))
		return nil
	}
	if err := s.sessions.Invalidate(ctx, sessionKeyPrefix+claims.SessionID()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile возвращает пользователя и его курсы.
func (s *Service) Profile(ctx context.Context, userID int64) (*models.Profile, error) {
	const op = "auth.Profile"

	user, err := s.users.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	courses, err := s.users.ListCoursesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.Profile{User: user, Courses: courses}, nil
}
