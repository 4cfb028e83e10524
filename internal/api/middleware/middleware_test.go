package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"umuganda/backend/config"
	"umuganda/backend/internal/model"
	"umuganda/backend/pkg/jwt"
	"umuganda/backend/pkg/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newJWTManager() *jwt.Manager {
	return jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "middleware-test-secret-2026",
		AccessTokenTTL: time.Minute,
	})
}

// echoCaller 回显中间件注入的身份
func echoCaller(c *gin.Context) {
	uid, _ := c.Get("user_id")
	role, _ := c.Get("role")
	id, _ := uid.(uint)
	r, _ := role.(model.Role)
	c.String(http.StatusOK, "%d:%s", id, r)
}

func TestJWTAuth(t *testing.T) {
	mgr := newJWTManager()
	valid, _ := mgr.GenerateAccessToken(7, "Leader")
	unknownRole, _ := mgr.GenerateAccessToken(7, "superuser")
	expired, _ := mgr.GenerateAccessTokenWithTTL(7, "volunteer", -time.Minute)
	foreign, _ := jwt.NewManager(&config.AuthConfig{JWTSecret: "another-secret-value-2026", AccessTokenTTL: time.Minute}).
		GenerateAccessToken(7, "admin")

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
	}{
		{"Valid", "Bearer " + valid, http.StatusOK, "7:leader"},
		{"MissingHeader", "", http.StatusUnauthorized, ""},
		{"WrongScheme", "Token " + valid, http.StatusUnauthorized, ""},
		{"UnknownRole", "Bearer " + unknownRole, http.StatusUnauthorized, ""},
		{"Expired", "Bearer " + expired, http.StatusUnauthorized, ""},
		{"ForeignSignature", "Bearer " + foreign, http.StatusUnauthorized, ""},
	}

	r := gin.New()
	r.GET("/me", JWTAuth(mgr), echoCaller)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("期望 %d，实际 %d", tt.wantCode, w.Code)
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("期望 %s，实际 %s", tt.wantBody, w.Body.String())
			}
		})
	}
}

func TestRoleAuth(t *testing.T) {
	tests := []struct {
		role     model.Role
		wantCode int
	}{
		{model.RoleAdmin, http.StatusOK},
		{model.RoleLeader, http.StatusOK},
		{model.RoleVolunteer, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			r := gin.New()
			r.GET("/manage", func(c *gin.Context) {
				c.Set("role", tt.role)
				c.Next()
			}, RoleAuth(model.RoleLeader, model.RoleAdmin), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage", nil))
			if w.Code != tt.wantCode {
				t.Errorf("期望 %d，实际 %d", tt.wantCode, w.Code)
			}
		})
	}
}

func TestRoleAuth_Unauthenticated(t *testing.T) {
	r := gin.New()
	r.GET("/manage", RoleAuth(model.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestRateLimit_NilClientAllows(t *testing.T) {
	r := gin.New()
	r.POST("/checkin", RateLimit(nil, 1, time.Minute), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkin", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("Redis 不可用时应放行，第 %d 次得到 %d", i+1, w.Code)
		}
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.GET("/", RequestID(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "scan-42")
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "scan-42" {
		t.Errorf("应沿用客户端 Request-ID，实际 %s", got)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", strings.Repeat("x", 100))
	r.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("超长 Request-ID 应被替换为 UUID，实际 %s", got)
	}
}

func TestMetrics(t *testing.T) {
	m := metrics.New()
	r := gin.New()
	r.Use(Metrics(m))
	r.GET("/projects/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/projects/1", "/projects/2", "/nope"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	n, err := testutil.GatherAndCount(m.Registry(), "umuganda_http_request_duration_seconds")
	if err != nil {
		t.Fatalf("采集指标失败: %v", err)
	}
	if n != 2 {
		t.Errorf("期望按路由模板聚合为 2 个序列，实际 %d", n)
	}
}
