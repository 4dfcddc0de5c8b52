package media

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	storagememory "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/db/models"
	"github.com/guardpost/guardpost/internal/media"
)

func newTestApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	err = db.AutoMigrate(&models.User{}, &models.Role{}, &models.Permission{})
	require.NoError(t, err, "failed to migrate test database")

	cfg := &config.Config{
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080"},
		Auth:      config.Auth{JWTSecret: "test-secret", TokenTTLMinutes: 60},
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, time.Hour)
	authService := auth.NewService(db, tokens)

	user, err := authService.Register("uploader@example.com", "secret-password", "Up", "Loader")
	require.NoError(t, err)

	token, err := tokens.Sign(authService.PrincipalFor(user))
	require.NoError(t, err)

	app := fiber.New()

	s := Service{}
	s.Init(app, cfg, media.New(storagememory.New()), authService, tokens)

	return app, token
}

func multipartBody(t *testing.T, field string, files map[string][]byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for name, content := range files {
		part, err := writer.CreateFormFile(field, name)
		require.NoError(t, err)

		_, err = part.Write(content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

func doRequest(t *testing.T, app *fiber.App, req *http.Request, token string) (*http.Response, map[string]interface{}) {
	t.Helper()

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func TestUploadFile(t *testing.T) {
	app, token := newTestApp(t)

	t.Run("requires authentication", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", map[string][]byte{"a.png": []byte("data")})

		req := httptest.NewRequest(http.MethodPatch, "/media/file/avatars", body)
		req.Header.Set(fiber.HeaderContentType, contentType)

		resp, _ := doRequest(t, app, req, "")
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("uploads under the folder", func(t *testing.T) {
		body, contentType := multipartBody(t, "file", map[string][]byte{"a.png": []byte("data")})

		req := httptest.NewRequest(http.MethodPatch, "/media/file/avatars", body)
		req.Header.Set(fiber.HeaderContentType, contentType)

		resp, decoded := doRequest(t, app, req, token)
		assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

		data := decoded["data"].(map[string]interface{})
		assert.Contains(t, data["key"], "avatars/")
		assert.EqualValues(t, len("data"), data["size"])
	})

	t.Run("missing form field", func(t *testing.T) {
		body, contentType := multipartBody(t, "wrong-field", map[string][]byte{"a.png": []byte("data")})

		req := httptest.NewRequest(http.MethodPatch, "/media/file/avatars", body)
		req.Header.Set(fiber.HeaderContentType, contentType)

		resp, _ := doRequest(t, app, req, token)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	})
}

func TestUploadFiles(t *testing.T) {
	app, token := newTestApp(t)

	body, contentType := multipartBody(t, "files", map[string][]byte{
		"a.png": []byte("first"),
		"b.jpg": []byte("second"),
	})

	req := httptest.NewRequest(http.MethodPatch, "/media/files/gallery", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	resp, decoded := doRequest(t, app, req, token)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	data := decoded["data"].([]interface{})
	assert.Len(t, data, 2)
}

func TestDeleteObject(t *testing.T) {
	app, token := newTestApp(t)

	body, contentType := multipartBody(t, "file", map[string][]byte{"a.png": []byte("data")})

	req := httptest.NewRequest(http.MethodPatch, "/media/file/avatars", body)
	req.Header.Set(fiber.HeaderContentType, contentType)

	_, decoded := doRequest(t, app, req, token)
	key := decoded["data"].(map[string]interface{})["key"].(string)

	t.Run("deletes by key", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/media/"+key, nil)

		resp, _ := doRequest(t, app, req, token)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	})

	t.Run("second delete is not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/media/"+key, nil)

		resp, _ := doRequest(t, app, req, token)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
