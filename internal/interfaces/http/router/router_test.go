package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterRegister(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("lending", "/lending")
	r.Register(group)

	assert.Len(t, r.registrars, 1)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("system", "/system")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	r.Register(group)
	r.Setup()

	req := httptest.NewRequest("GET", "/api/v1/system/ping", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("lending", "/lending")
		assert.Equal(t, "lending", g.Name())
		assert.Equal(t, "/lending", g.Prefix())
	})

	t.Run("registers routes for every method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")
		g.GET("/purchases", func(c *gin.Context) { c.String(http.StatusOK, "list") }).
			POST("/purchases", func(c *gin.Context) { c.String(http.StatusCreated, "created") }).
			PUT("/providers/:id", func(c *gin.Context) { c.String(http.StatusOK, "updated") }).
			PATCH("/providers/:id", func(c *gin.Context) { c.String(http.StatusOK, "patched") }).
			DELETE("/providers/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		tests := []struct {
			method string
			path   string
			status int
		}{
			{"GET", "/api/v1/lending/purchases", http.StatusOK},
			{"POST", "/api/v1/lending/purchases", http.StatusCreated},
			{"PUT", "/api/v1/lending/providers/123", http.StatusOK},
			{"PATCH", "/api/v1/lending/providers/123", http.StatusOK},
			{"DELETE", "/api/v1/lending/providers/123", http.StatusNoContent},
		}
		for _, tt := range tests {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")

		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})

		g.GET("/purchases", func(c *gin.Context) {
			c.String(http.StatusOK, "ok")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req := httptest.NewRequest("GET", "/api/v1/lending/purchases", nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("lending", "/lending")

		purchases := g.Group("purchases", "/purchases")
		purchases.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "purchase list")
		})

		providers := g.Group("providers", "/providers")
		providers.GET("", func(c *gin.Context) {
			c.String(http.StatusOK, "provider list")
		})

		api := engine.Group("/api/v1")
		g.RegisterRoutes(api)

		req1 := httptest.NewRequest("GET", "/api/v1/lending/purchases", nil)
		w1 := httptest.NewRecorder()
		engine.ServeHTTP(w1, req1)
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "purchase list", w1.Body.String())

		req2 := httptest.NewRequest("GET", "/api/v1/lending/providers", nil)
		w2 := httptest.NewRecorder()
		engine.ServeHTTP(w2, req2)
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "provider list", w2.Body.String())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	lending := NewDomainGroup("lending", "/lending")
	lending.GET("/purchases", func(c *gin.Context) {
		c.String(http.StatusOK, "purchases")
	})

	system := NewDomainGroup("system", "/system")
	system.GET("/info", func(c *gin.Context) {
		c.String(http.StatusOK, "info")
	})

	r.Register(lending).Register(system)
	r.Setup()

	req1 := httptest.NewRequest("GET", "/api/v1/lending/purchases", nil)
	w1 := httptest.NewRecorder()
	engine.ServeHTTP(w1, req1)
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "purchases", w1.Body.String())

	req2 := httptest.NewRequest("GET", "/api/v1/system/info", nil)
	w2 := httptest.NewRecorder()
	engine.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "info", w2.Body.String())
}

func TestChainedMethodCalls(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	g := NewDomainGroup("lending", "/lending")
	g.GET("/purchases", func(c *gin.Context) { c.String(http.StatusOK, "a") }).
		POST("/purchases", func(c *gin.Context) { c.String(http.StatusOK, "b") }).
		POST("/purchases/:id/payments", func(c *gin.Context) { c.String(http.StatusOK, "c") })

	r.Register(g).Setup()

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/lending/purchases"},
		{"POST", "/api/v1/lending/purchases"},
		{"POST", "/api/v1/lending/purchases/123/payments"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.path, nil)
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Route %s %s should work", tt.method, tt.path)
	}
}
