package router

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/notaria/backend/internal/infrastructure/config"
	"github.com/notaria/backend/internal/interfaces/http/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRoutes struct{}

func (pingRoutes) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	rg.POST("/echo", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.AbortWithStatus(http.StatusBadRequest)
			return
		}
		c.JSON(http.StatusOK, body)
	})
	rg.GET("/panic", func(*gin.Context) { panic("boom") })
}

type failingPing struct{}

func (failingPing) Ping() error { return errors.New("connection refused") }

func testEngine(t *testing.T, httpCfg config.HTTPConfig) *gin.Engine {
	t.Helper()
	engine, err := NewEngine(EngineConfig{HTTP: httpCfg, ServiceName: "notaria-test", Logger: zap.NewNop()})
	require.NoError(t, err)
	return engine
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)

	r = NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	NewRouter(engine,
		WithHealth(handler.NewHealthHandler("test", map[string]handler.Pinger{"database": failingPing{}})),
	).Register(pingRoutes{}).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestNewEngine_Middleware(t *testing.T) {
	engine := testEngine(t, config.HTTPConfig{
		MaxBodySize:      16,
		CORSAllowOrigins: []string{"https://front.notaria.ec"},
		CORSAllowMethods: []string{"GET", "POST"},
		CORSAllowHeaders: []string{"Content-Type", "X-User-ID"},
	})
	NewRouter(engine).Register(pingRoutes{}).Setup()

	t.Run("sets request id and security headers", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/ping", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	})

	t.Run("answers preflight for allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/ping", nil)
		req.Header.Set("Origin", "https://front.notaria.ec")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://front.notaria.ec", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("rejects oversized bodies", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/echo", strings.NewReader(`{"certificate":"far too long"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("recovers from panics", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/panic", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestNewEngine_RejectsBadTrustedProxy(t *testing.T) {
	_, err := NewEngine(EngineConfig{
		HTTP:   config.HTTPConfig{TrustedProxies: []string{"not-an-ip"}},
		Logger: zap.NewNop(),
	})
	assert.Error(t, err)
}
