// Package landing отдаёт главную страницу, доступную без авторизации.
package landing

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-market/internal/http/response"
)

// Handler обрабатывает GET /.
type Handler struct{}

// New создает новый экземпляр Handler.
func New() *Handler {
	return &Handler{}
}

// ServeHTTP godoc
// @Summary Главная страница
// @Tags Pages
// @Produce json
// @Success 200 {object} response.Response
// @Router / [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"name": "course-market",
		"links": map[string]string{
			"login":     "/login",
			"register":  "/register",
			"dashboard": "/dashboard",
		},
	}))
}
