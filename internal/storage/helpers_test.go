package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/course-market/internal/migrations"
	"github.com/magabrotheeeer/course-market/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("course_market"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(dsn)
	require.NoError(t, err)

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// TestDataFactory создаёт тестовые записи напрямую через хранилище.
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных.
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateUser создает тестового пользователя и возвращает его ID.
func (f *TestDataFactory) CreateUser(t *testing.T, username string, role models.Role) int64 {
	t.Helper()
	id, err := f.storage.CreateUser(context.Background(), models.User{
		Nickname:     "nick_" + username,
		Username:     username,
		PasswordHash: "hashedpassword",
		Role:         role,
	})
	require.NoError(t, err)
	return id
}

// CreateCourse создает тестовый курс и возвращает его ID.
func (f *TestDataFactory) CreateCourse(t *testing.T, name string, price int) int64 {
	t.Helper()
	id, err := f.storage.CreateCourse(context.Background(), models.Course{
		Name:        name,
		Price:       price,
		Description: "description of " + name,
		Content:     "content of " + name,
	})
	require.NoError(t, err)
	return id
}

// CountRows возвращает число строк в таблице.
func (f *TestDataFactory) CountRows(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.storage.DB.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}
