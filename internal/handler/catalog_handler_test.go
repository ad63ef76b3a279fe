package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/studyfriend-api/internal/handler"
	"github.com/noah-isme/studyfriend-api/internal/models"
	"github.com/noah-isme/studyfriend-api/internal/repository"
	"github.com/noah-isme/studyfriend-api/internal/service"
)

func catalogApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.College{}, &models.Subject{}, &models.Course{}, &models.Enrollment{}, &models.User{}))

	validate := validator.New(validator.WithRequiredStructEnabled())
	svc := service.NewCatalogService(
		repository.NewCollegeRepository(db),
		repository.NewSubjectRepository(db),
		repository.NewCourseRepository(db),
		repository.NewUserRepository(db),
		nil,
		validate,
		zerolog.Nop(),
	)
	h := handler.NewCatalogHandler(svc, validate, zerolog.Nop())

	app := fiber.New()
	api := app.Group("/api/v1")
	h.RegisterPublic(api)
	h.RegisterAdmin(api.Group("/admin"))
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCatalogCollegeLifecycle(t *testing.T) {
	app := catalogApp(t)

	resp := postJSON(t, app, "/api/v1/admin/colleges", `{"name":"MIT Pune","location":"Pune"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Duplicate names conflict.
	resp = postJSON(t, app, "/api/v1/admin/colleges", `{"name":"MIT Pune"}`)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/colleges", nil)
	listResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	payload := decodeResponse(t, listResp)
	items, ok := payload.Data.([]any)
	require.True(t, ok)
	require.Len(t, items, 1)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/colleges/999", nil)
	missing, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestCatalogCollegeValidation(t *testing.T) {
	app := catalogApp(t)

	resp := postJSON(t, app, "/api/v1/admin/colleges", `{"location":"Pune"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/admin/colleges", `not json`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCatalogSubjectRequiresCollege(t *testing.T) {
	app := catalogApp(t)

	resp := postJSON(t, app, "/api/v1/admin/subjects", `{"name":"Mathematics","college_id":42}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
