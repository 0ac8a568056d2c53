package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pandeptwidyaop/nodered-backups/internal/backups"
	"github.com/pandeptwidyaop/nodered-backups/internal/config"
	"github.com/pandeptwidyaop/nodered-backups/internal/database"
	"github.com/pandeptwidyaop/nodered-backups/internal/middleware"
	"github.com/pandeptwidyaop/nodered-backups/internal/services"
)

func newTestRouter(t *testing.T, prefix, password string) (*gin.Engine, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate())

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "kitchen"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "kitchen", "flows.json"), []byte(`[]`), 0o644))

	cfg := &config.Config{
		Server: config.ServerConfig{PathPrefix: prefix},
		Auth:   config.AuthConfig{CookieName: "backup_auth", SessionDuration: "1h"},
	}
	if password != "" {
		hash, err := services.HashPassword(password, bcrypt.MinCost)
		require.NoError(t, err)
		cfg.Auth.PasswordHash = hash
	}

	r, err := New(cfg, Deps{
		Catalog:      backups.NewCatalog(root),
		FileOps:      backups.NewFileOps(root),
		AuthService:  services.NewAuthService(db, cfg),
		AuditService: services.NewAuditService(db),
		LoginLimiter: middleware.NewRateLimiter(3, time.Minute),
	})
	require.NoError(t, err)
	return r, root
}

func get(r *gin.Engine, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouter_AuthDisabled(t *testing.T) {
	r, _ := newTestRouter(t, "", "")

	for _, target := range []string{"/", "/installation/kitchen", "/all-backups", "/api/installations", "/api/backups", "/api/installations/kitchen/latest"} {
		w := get(r, target)
		assert.Equal(t, http.StatusOK, w.Code, target)
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, "", "s3cret")

	assert.Equal(t, http.StatusOK, get(r, "/health").Code)
	assert.Equal(t, http.StatusOK, get(r, "/login").Code)
	assert.Equal(t, http.StatusOK, get(r, "/api/version").Code)

	w := get(r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "nodered_backups_downloads_total")
}

func TestRouter_AuthEnabled(t *testing.T) {
	r, _ := newTestRouter(t, "/backups", "s3cret")

	w := get(r, "/backups/api/installations")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = get(r, "/backups/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/backups/login", w.Header().Get("Location"))

	req := httptest.NewRequest(http.MethodPost, "/backups/login", strings.NewReader("password=s3cret"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	login := httptest.NewRecorder()
	r.ServeHTTP(login, req)
	require.Equal(t, http.StatusFound, login.Code)

	var session *http.Cookie
	for _, c := range login.Result().Cookies() {
		if c.Name == "backup_auth" {
			session = c
		}
	}
	require.NotNil(t, session)

	w = get(r, "/backups/api/installations", session)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kitchen")
}

func TestRouter_LoginRateLimited(t *testing.T) {
	r, _ := newTestRouter(t, "", "s3cret")

	var last int
	for i := 0; i < 4; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("password=nope"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRouter_PrefixRedirect(t *testing.T) {
	r, _ := newTestRouter(t, "/backups", "")

	w := get(r, "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/backups/", w.Header().Get("Location"))
}

func TestRouter_DeleteThroughAPI(t *testing.T) {
	r, root := newTestRouter(t, "", "")

	req := httptest.NewRequest(http.MethodDelete, "/api/installations/kitchen/files/flows.json", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NoFileExists(t, filepath.Join(root, "kitchen", "flows.json"))
	assert.Equal(t, "no-store, no-cache, must-revalidate, private", w.Header().Get("Cache-Control"))
}
