package create

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
)

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) CreateCourse(ctx context.Context, authorID int64, role models.Role, in catalog.CourseInput) (int64, error) {
	args := m.Called(ctx, authorID, role, in)
	return args.Get(0).(int64), args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	valid := Request{Name: "Go", Price: 50, Description: "d", Content: "c"}
	input := catalog.CourseInput{Name: "Go", Price: 50, Description: "d", Content: "c"}

	tests := []struct {
		name       string
		role       models.Role
		body       any
		setupMocks func(m *CatalogMock)
		wantStatus int
	}{
		{
			name: "teacher creates course",
			role: models.RoleTeacher,
			body: valid,
			setupMocks: func(m *CatalogMock) {
				m.On("CreateCourse", mock.Anything, int64(5), models.RoleTeacher, input).Return(int64(12), nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name: "student denied",
			role: models.RoleStudent,
			body: valid,
			setupMocks: func(m *CatalogMock) {
				m.On("CreateCourse", mock.Anything, int64(5), models.RoleStudent, input).
					Return(int64(0), catalog.ErrPermissionDenied)
			},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing name",
			role:       models.RoleTeacher,
			body:       Request{Price: 10},
			setupMocks: func(_ *CatalogMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "negative price",
			role:       models.RoleTeacher,
			body:       Request{Name: "Go", Price: -1},
			setupMocks: func(_ *CatalogMock) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad json",
			role:       models.RoleTeacher,
			body:       "{",
			setupMocks: func(_ *CatalogMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "storage error",
			role: models.RoleAdmin,
			body: valid,
			setupMocks: func(m *CatalogMock) {
				m.On("CreateCourse", mock.Anything, int64(5), models.RoleAdmin, input).
					Return(int64(0), errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(CatalogMock)
			tt.setupMocks(svc)
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/create_course", bytes.NewReader(body))
			req = req.WithContext(middlewarectx.WithSession(req.Context(), &auth.Session{UserID: 5, Role: tt.role}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
