package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func() error

func (f pingFunc) Ping() error { return f() }

func TestHealthHandler(t *testing.T) {
	run := func(checks map[string]Pinger) (int, HealthResponse) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/health", nil)

		NewHealthHandler("1.2.0", checks).Health(c)

		var body struct {
			Success bool           `json:"success"`
			Data    HealthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, w.Code == http.StatusOK, body.Success)
		return w.Code, body.Data
	}

	t.Run("all checks pass", func(t *testing.T) {
		code, resp := run(map[string]Pinger{"database": pingFunc(func() error { return nil })})

		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, "1.2.0", resp.Version)
		assert.NotEmpty(t, resp.GoVersion)
		assert.Equal(t, "ok", resp.Checks["database"])
	})

	t.Run("a failing dependency degrades", func(t *testing.T) {
		code, resp := run(map[string]Pinger{
			"database": pingFunc(func() error { return errors.New("connection refused") }),
			"redis":    pingFunc(func() error { return nil }),
		})

		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", resp.Status)
		assert.Equal(t, "unavailable", resp.Checks["database"])
		assert.Equal(t, "ok", resp.Checks["redis"])
	})
}
