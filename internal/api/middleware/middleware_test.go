package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"berthops/config"
	"berthops/pkg/jwt"
	"berthops/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestJWT() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret",
		Issuer:         "berthops-identity",
		AccessTokenTTL: 15 * time.Minute,
	})
}

func authEngine(mgr *jwt.Manager, roles ...string) *gin.Engine {
	r := gin.New()
	chain := []gin.HandlerFunc{JWTAuth(mgr, nil, zap.NewNop())}
	if len(roles) > 0 {
		chain = append(chain, RoleAuth(roles...))
	}
	chain = append(chain, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString("user_id"), "role": c.GetString("role")})
	})
	r.GET("/secure", chain...)
	return r
}

func doGet(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth_MissingHeader(t *testing.T) {
	w := doGet(authEngine(newTestJWT()), "/secure", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_BadScheme(t *testing.T) {
	r := authEngine(newTestJWT())
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/secure", nil)
	req.Header.Set("Authorization", "Basic abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestJWTAuth_ValidToken(t *testing.T) {
	mgr := newTestJWT()
	token, err := mgr.GenerateAccessToken("user-1", jwt.RoleWorker)
	if err != nil {
		t.Fatalf("GenerateAccessToken 失败: %v", err)
	}

	w := doGet(authEngine(mgr), "/secure", token)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestJWTAuth_UnknownRole(t *testing.T) {
	mgr := newTestJWT()
	token, _ := mgr.GenerateAccessToken("user-1", "leader")

	w := doGet(authEngine(mgr), "/secure", token)
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestJWTAuth_ForeignSignature(t *testing.T) {
	other := jwt.NewManager(&config.AuthConfig{JWTSecret: "other", Issuer: "berthops-identity", AccessTokenTTL: time.Minute})
	token, _ := other.GenerateAccessToken("user-1", jwt.RoleAdmin)

	w := doGet(authEngine(newTestJWT()), "/secure", token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestRoleAuth(t *testing.T) {
	mgr := newTestJWT()
	r := authEngine(mgr, jwt.RoleAdmin, jwt.RoleEngineer)

	worker, _ := mgr.GenerateAccessToken("w-1", jwt.RoleWorker)
	if w := doGet(r, "/secure", worker); w.Code != http.StatusForbidden {
		t.Errorf("worker: expected 403, got %d", w.Code)
	}

	engineer, _ := mgr.GenerateAccessToken("e-1", jwt.RoleEngineer)
	if w := doGet(r, "/secure", engineer); w.Code != http.StatusOK {
		t.Errorf("engineer: expected 200, got %d", w.Code)
	}
}

func TestRateLimit_NilRedisPassesThrough(t *testing.T) {
	r := gin.New()
	r.GET("/x", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		if w := doGet(r, "/x", ""); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}

// fakeLimiter 前 allow 次放行，之后拒绝
type fakeLimiter struct {
	allow int
	err   error
	keys  []string
}

func (f *fakeLimiter) CheckRateLimit(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	f.keys = append(f.keys, key)
	if f.err != nil {
		return false, f.err
	}
	f.allow--
	return f.allow >= 0, nil
}

func TestRateLimit_RejectsOverLimit(t *testing.T) {
	l := &fakeLimiter{allow: 1}
	r := gin.New()
	r.POST("/auto-flag", func(c *gin.Context) { c.Set("user_id", "eng-1"); c.Next() },
		rateLimit(l, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	post := func() *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest("POST", "/auto-flag", nil))
		return w
	}
	if w := post(); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	w := post()
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if got := w.Header().Get("Retry-After"); got != "60" {
		t.Errorf("expected Retry-After 60, got %q", got)
	}
	if l.keys[0] != "rate_limit:u:eng-1:/auto-flag" {
		t.Errorf("expected user-scoped key, got %q", l.keys[0])
	}
}

func TestRateLimit_BackendErrorPassesThrough(t *testing.T) {
	l := &fakeLimiter{err: errors.New("redis down")}
	r := gin.New()
	r.GET("/x", rateLimit(l, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doGet(r, "/x", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200 when limiter fails, got %d", w.Code)
	}
	if !strings.HasPrefix(l.keys[0], "rate_limit:ip:") {
		t.Errorf("expected ip-scoped key for anonymous request, got %q", l.keys[0])
	}
}

func TestLogger_LevelsAndRoute(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	doGet(r, "/health", "")
	if n := logs.Len(); n != 0 {
		t.Errorf("health check should not be logged at info, got %d entries", n)
	}

	doGet(r, "/jobs/abc", "")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.WarnLevel {
		t.Errorf("expected warn for 404, got %s", entries[0].Level)
	}
	if got := entries[0].ContextMap()["route"]; got != "/jobs/:id" {
		t.Errorf("expected route template, got %v", got)
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/x", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected generated X-Request-ID")
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "rid-123")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "rid-123" {
		t.Errorf("expected rid-123 to be echoed, got %s", got)
	}
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/jobs/:id/tracking", func(c *gin.Context) { c.Status(http.StatusOK) })

	before := testutil.CollectAndCount(metrics.GetRegistry(), "berthops_http_requests_total")
	doGet(r, "/jobs/abc/tracking", "")
	doGet(r, "/jobs/def/tracking", "")
	after := testutil.CollectAndCount(metrics.GetRegistry(), "berthops_http_requests_total")

	// 两次请求落在同一个路由模板标签上
	if after < 1 {
		t.Fatal("expected http request series to be registered")
	}
	if after-before > 1 {
		t.Errorf("expected at most one new series, got %d", after-before)
	}
}

func TestRequestID_RejectsUnprintable(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "bad id\twith spaces")
	r.ServeHTTP(w, req)

	got := w.Header().Get("X-Request-ID")
	if got == "bad id\twith spaces" || got == "" {
		t.Errorf("expected a generated id, got %q", got)
	}
	if w.Body.String() != got {
		t.Errorf("GetRequestID should match header, got %q vs %q", w.Body.String(), got)
	}
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://console.local/"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://console.local")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://console.local" {
		t.Errorf("expected listed origin to be echoed, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got == "" {
		t.Error("expected expose headers for listed origin")
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("Origin", "http://evil.local")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("expected no CORS header for unlisted origin, got %q", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("OPTIONS", "/x", nil)
	req.Header.Set("Origin", "http://console.local")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204 for preflight, got %d", w.Code)
	}
}

func TestBodyLimit(t *testing.T) {
	r := gin.New()
	r.Use(BodyLimit(8))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/x", strings.NewReader("0123456789"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest("POST", "/x", strings.NewReader("0123"))
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/api/v1/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := doGet(r, "/api/v1/x", "")
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Error("expected no-store on API routes")
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options DENY")
	}

	w = doGet(r, "/health", "")
	if w.Header().Get("Cache-Control") != "" {
		t.Error("expected no Cache-Control on non-API routes")
	}
}
