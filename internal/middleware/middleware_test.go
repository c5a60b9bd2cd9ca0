package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hipaa-compliance/internal/models"
	"hipaa-compliance/internal/ratelimit"
	"hipaa-compliance/internal/reqcache"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type users map[uint]*models.User

func (u users) User(_ context.Context, id uint) (*models.User, error) {
	if user, ok := u[id]; ok {
		return user, nil
	}
	return nil, errors.New("not found")
}

// newEngine wires sessions and InjectUser, plus a /login/:id route that logs
// the given user in.
func newEngine(known users) *gin.Engine {
	r := gin.New()
	r.Use(sessions.Sessions("test", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(InjectUser(known, quiet))
	r.GET("/login/:id", func(c *gin.Context) {
		for _, u := range known {
			if c.Param("id") == u.Username {
				_ = Login(c, u)
			}
		}
		c.Status(http.StatusOK)
	})
	return r
}

func login(t *testing.T, r *gin.Engine, username string) []*http.Cookie {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login/"+username, nil))
	require.Equal(t, http.StatusOK, w.Code)
	return w.Result().Cookies()
}

func get(r *gin.Engine, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	known := users{1: {Username: "alice", Role: models.RoleOfficer}}
	known[1].ID = 1
	r := newEngine(known)
	r.GET("/private", RequireAuth(), func(c *gin.Context) {
		u, _ := CurrentUser(c)
		c.String(http.StatusOK, u.Username)
	})

	w := get(r, "/private", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), `"redirect":"/login"`)

	w = get(r, "/private", login(t, r, "alice"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())
}

func TestRequireRole(t *testing.T) {
	known := users{
		1: {Username: "alice", Role: models.RoleOfficer},
		2: {Username: "victor", Role: models.RoleViewer},
	}
	known[1].ID, known[2].ID = 1, 2
	r := newEngine(known)
	r.POST("/write", RequireRole(models.RoleAdmin, models.RoleOfficer), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	do := func(cookies []*http.Cookie) int {
		req := httptest.NewRequest(http.MethodPost, "/write", nil)
		for _, c := range cookies {
			req.AddCookie(c)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusUnauthorized, do(nil))
	assert.Equal(t, http.StatusForbidden, do(login(t, r, "victor")))
	assert.Equal(t, http.StatusNoContent, do(login(t, r, "alice")))
}

func TestInjectUser_DropsUnknownUser(t *testing.T) {
	known := users{1: {Username: "alice", Role: models.RoleOfficer}}
	known[1].ID = 1
	r := newEngine(known)
	r.GET("/whoami", func(c *gin.Context) {
		_, ok := CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"logged_in": ok})
	})

	cookies := login(t, r, "alice")
	delete(known, 1)

	w := get(r, "/whoami", cookies)
	assert.JSONEq(t, `{"logged_in":false}`, w.Body.String())
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := get(r, "/", nil)
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestRequestScope(t *testing.T) {
	r := gin.New()
	r.Use(RequestScope())
	r.GET("/", func(c *gin.Context) {
		ctx := c.Request.Context()
		calls := 0
		load := func() (int, error) { calls++; return 7, nil }
		_, _ = reqcache.Do(ctx, "thing", 1, load)
		_, _ = reqcache.Do(ctx, "thing", 1, load)
		c.JSON(http.StatusOK, gin.H{"scoped": reqcache.FromContext(ctx) != nil, "calls": calls})
	})

	w := get(r, "/", nil)
	assert.JSONEq(t, `{"scoped":true,"calls":1}`, w.Body.String())
}

func TestRateLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(ratelimit.NewLocal(ratelimit.Policy{PerMinute: 1, Burst: 2}), "auth", quiet))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, get(r, "/", nil).Code)
}

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_FailsOpen(t *testing.T) {
	r := gin.New()
	r.Use(RateLimit(brokenLimiter{}, "auth", quiet))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, get(r, "/", nil).Code)
}
