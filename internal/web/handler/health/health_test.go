package health

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	storagememory "github.com/gofiber/storage/memory/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/guardpost/guardpost/internal/cache"
	"github.com/guardpost/guardpost/internal/config"
)

func newTestApp(t *testing.T) (*fiber.App, *atomic.Bool) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to open sqlite in-memory db")

	cfg := &config.Config{
		Webserver: config.Webserver{Port: 8080, URL: "http://localhost:8080"},
	}

	var alive atomic.Bool
	alive.Store(true)

	app := fiber.New()

	s := Service{}
	s.Init(app, cfg, db, cache.New(storagememory.New()), &alive)

	return app, &alive
}

func TestHealthCheck(t *testing.T) {
	app, alive := newTestApp(t)

	t.Run("healthy", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

		data := body["data"].(map[string]interface{})
		assert.Equal(t, "ok", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "up", checks["database"])
		assert.Equal(t, "up", checks["cache"])
	})

	t.Run("shutting down", func(t *testing.T) {
		alive.Store(false)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
		require.NoError(t, err)

		assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	})
}
