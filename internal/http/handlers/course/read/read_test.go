package read

import (
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
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-market/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-market/internal/models"
	"github.com/magabrotheeeer/course-market/internal/services/auth"
	"github.com/magabrotheeeer/course-market/internal/services/catalog"
)

type CatalogMock struct{ mock.Mock }

func (m *CatalogMock) GetCourse(ctx context.Context, userID, courseID int64) (*models.CourseView, error) {
	args := m.Called(ctx, userID, courseID)
	view, _ := args.Get(0).(*models.CourseView)
	return view, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		setupMocks func(m *CatalogMock)
		wantStatus int
		wantEnroll bool
	}{
		{
			name:  "enrolled course",
			query: "course_id=7",
			setupMocks: func(m *CatalogMock) {
				m.On("GetCourse", mock.Anything, int64(3), int64(7)).
					Return(&models.CourseView{Course: &models.Course{ID: 7, Name: "Go"}, Enrolled: true}, nil)
			},
			wantStatus: http.StatusOK,
			wantEnroll: true,
		},
		{
			name:       "missing course_id",
			query:      "",
			setupMocks: func(_ *CatalogMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "non numeric course_id",
			query:      "course_id=abc",
			setupMocks: func(_ *CatalogMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:  "not found",
			query: "course_id=9",
			setupMocks: func(m *CatalogMock) {
				m.On("GetCourse", mock.Anything, int64(3), int64(9)).Return(nil, catalog.ErrCourseNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:  "internal error",
			query: "course_id=9",
			setupMocks: func(m *CatalogMock) {
				m.On("GetCourse", mock.Anything, int64(3), int64(9)).Return(nil, errors.New("db down"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(CatalogMock)
			tt.setupMocks(svc)
			handler := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			req := httptest.NewRequest(http.MethodGet, "/course?"+tt.query, nil)
			req = req.WithContext(middlewarectx.WithSession(req.Context(), &auth.Session{UserID: 3, Role: models.RoleStudent}))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got struct {
					Data models.CourseView `json:"data"`
				}
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, tt.wantEnroll, got.Data.Enrolled)
				assert.Equal(t, int64(7), got.Data.Course.ID)
			}
			svc.AssertExpectations(t)
		})
	}
}
