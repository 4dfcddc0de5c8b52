package role

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/auth"
	"github.com/guardpost/guardpost/internal/config"
	"github.com/guardpost/guardpost/internal/db/models"
)

type testEnv struct {
	app *fiber.App
	db  *gorm.DB
}

func newTestEnv(t *testing.T) (*testEnv, string) {
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

	hashedPassword, err := models.HashPassword("secret-password")
	require.NoError(t, err)

	admin := models.User{
		Email:    "admin@example.com",
		Password: hashedPassword,
		IsActive: true,
		Roles:    []models.Role{{Name: auth.RoleAdmin, IsActive: true}},
	}
	require.NoError(t, db.Create(&admin).Error)

	token, err := tokens.Sign(authService.PrincipalFor(&admin))
	require.NoError(t, err)

	app := fiber.New()

	s := Service{}
	s.Init(app, cfg, db, authService, tokens)

	return &testEnv{app: app, db: db}, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))

	return resp, decoded
}

func TestRoleCRUD(t *testing.T) {
	env, token := newTestEnv(t)

	var roleID string

	t.Run("create", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/roles", token, map[string]interface{}{
			"name":        "auditor",
			"description": "read-only access",
		})

		require.Equal(t, fiber.StatusCreated, resp.StatusCode)

		data := body["data"].(map[string]interface{})
		roleID = data["id"].(string)
		assert.Equal(t, "auditor", data["name"])
		assert.Equal(t, true, data["isActive"])
	})

	t.Run("duplicate name", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/roles", token, map[string]interface{}{
			"name": "auditor",
		})

		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("update", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPut, "/roles/"+roleID, token, map[string]interface{}{
			"description": "changed",
		})

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "changed", data["description"])
		assert.Equal(t, "auditor", data["name"])
	})

	t.Run("delete", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodDelete, "/roles/"+roleID, token, nil)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = env.request(t, http.MethodGet, "/roles/"+roleID, token, nil)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}

func TestPermissionGrants(t *testing.T) {
	env, token := newTestEnv(t)

	permission := models.Permission{Name: "users:read", IsActive: true}
	require.NoError(t, env.db.Create(&permission).Error)

	role := models.Role{Name: "reader", IsActive: true}
	require.NoError(t, env.db.Create(&role).Error)

	t.Run("grant", func(t *testing.T) {
		resp, body := env.request(t, http.MethodPost, "/roles/"+role.ID+"/permissions", token,
			map[string]string{"permissionId": permission.ID})

		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		data := body["data"].(map[string]interface{})
		permissions := data["permissions"].([]interface{})
		assert.Len(t, permissions, 1)
	})

	t.Run("grant twice", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPost, "/roles/"+role.ID+"/permissions", token,
			map[string]string{"permissionId": permission.ID})

		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})

	t.Run("effective permissions", func(t *testing.T) {
		resp, body := env.request(t, http.MethodGet, "/roles/"+role.ID+"/permissions", token, nil)

		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, []interface{}{"users:read"}, body["data"])
	})

	t.Run("deactivated role contributes nothing", func(t *testing.T) {
		resp, _ := env.request(t, http.MethodPut, "/roles/"+role.ID+"/deactivate", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, body := env.request(t, http.MethodGet, "/roles/"+role.ID+"/permissions", token, nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Empty(t, body["data"])
	})

	t.Run("revoke", func(t *testing.T) {
		resp, _ := env.request(
			t, http.MethodDelete, "/roles/"+role.ID+"/permissions/"+permission.ID, token, nil,
		)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		resp, _ = env.request(
			t, http.MethodDelete, "/roles/"+role.ID+"/permissions/"+permission.ID, token, nil,
		)
		assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	})
}

func TestRoleRoutesRequireAdmin(t *testing.T) {
	env, _ := newTestEnv(t)

	resp, _ := env.request(t, http.MethodGet, "/roles", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
