package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"watermyplant/internal/config"
	"watermyplant/internal/database"
	"watermyplant/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                  "Water My Plant API",
		Env:                      "test",
		Port:                     "0",
		DBDriver:                 database.DriverSQLite,
		DBName:                   filepath.Join(t.TempDir(), "server.db"),
		DBSchemaMode:             database.SchemaModeSQL,
		JWTSecret:                testSecret,
		JWTAlgorithm:             "HS256",
		JWTIssuer:                "watermyplant-api",
		JWTAudience:              "watermyplant-client",
		AccessTokenExpireMinutes: 30,
		AllowedOrigins:           "*",
		FeatureFlags:             "registration=on",
	}
}

// newTestApp wires a Server over a migrated sqlite file and miniredis.
func newTestApp(t *testing.T, cfg *config.Config) (*Server, *fiber.App) {
	t.Helper()

	db, err := database.Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.ApplySchema(context.Background(), db, cfg))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	srv, err := NewServerWithDeps(cfg, db, rdb, nil)
	require.NoError(t, err)
	return srv, srv.App()
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func registerAndLogin(t *testing.T, app *fiber.App, username, password string) string {
	t.Helper()

	resp, _ := doJSON(t, app, http.MethodPost, "/auth/register", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/token", "",
		map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(body, &token))
	require.Equal(t, "bearer", token.TokenType)
	return token.AccessToken
}

func decodeError(t *testing.T, body []byte) models.ErrorResponse {
	t.Helper()
	var out models.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestRoot(t *testing.T) {
	_, app := newTestApp(t, testConfig(t))

	resp, body := doJSON(t, app, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "Welcome to Water My Plant API", out["message"])
	assert.Equal(t, "/swagger/index.html", out["docs_url"])
}

func TestHealthChecks(t *testing.T) {
	_, app := newTestApp(t, testConfig(t))

	resp, _ := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "healthy", out.Status)
	assert.Equal(t, "healthy", out.Checks["database"])
	assert.Equal(t, "healthy", out.Checks["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	_, app := newTestApp(t, testConfig(t))

	registerAndLogin(t, app, "alice", "pw1")

	resp, body := doJSON(t, app, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `watermyplant_auth_register_total{result="success"} 1`)
	assert.Contains(t, string(body), `watermyplant_auth_login_total{result="success"} 1`)
	assert.Contains(t, string(body), "http_requests_total")
}

func TestAuthFlow(t *testing.T) {
	_, app := newTestApp(t, testConfig(t))

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "alice", "password": "pw1"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var user map[string]any
	require.NoError(t, json.Unmarshal(body, &user))
	assert.Equal(t, "alice", user["username"])
	assert.Equal(t, true, user["is_active"])
	assert.NotEmpty(t, user["id"])
	assert.NotContains(t, string(body), "hashed_password")
	assert.NotContains(t, string(body), "pw1")

	t.Run("duplicate username", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "",
			map[string]string{"username": "alice", "password": "other"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		errResp := decodeError(t, body)
		assert.Equal(t, models.CodeUsernameTaken, errResp.Code)
		assert.Equal(t, "Username already registered", errResp.Error)
	})

	t.Run("invalid username", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "",
			map[string]string{"username": "a b", "password": "pw1"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, models.CodeValidation, decodeError(t, body).Code)
	})

	t.Run("form login", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/auth/token",
			strings.NewReader("grant_type=password&username=alice&password=pw1"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var token map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&token))
		assert.NotEmpty(t, token["access_token"])
		assert.Equal(t, "bearer", token["token_type"])
		assert.Equal(t, float64(30*60), token["expires_in"])
	})

	t.Run("wrong password", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/auth/token", "",
			map[string]string{"username": "alice", "password": "nope"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
		assert.Equal(t, "Incorrect username or password", decodeError(t, body).Error)
	})

	t.Run("unknown user", func(t *testing.T) {
		resp, body := doJSON(t, app, http.MethodPost, "/auth/token", "",
			map[string]string{"username": "ghost", "password": "pw1"})
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Incorrect username or password", decodeError(t, body).Error)
	})

	t.Run("me", func(t *testing.T) {
		token := registerAndLogin(t, app, "bob", "pw2")
		resp, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var me map[string]any
		require.NoError(t, json.Unmarshal(body, &me))
		assert.Equal(t, "bob", me["username"])
	})

	t.Run("me without token", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/auth/me", "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})

	t.Run("me with garbage token", func(t *testing.T) {
		resp, _ := doJSON(t, app, http.MethodGet, "/auth/me", "not.a.jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "Bearer", resp.Header.Get("WWW-Authenticate"))
	})
}

func TestInactiveUserRejected(t *testing.T) {
	srv, app := newTestApp(t, testConfig(t))
	token := registerAndLogin(t, app, "alice", "pw1")

	changed, err := srv.userRepo.SetActive(context.Background(), "alice", false)
	require.NoError(t, err)
	require.True(t, changed)

	resp, body := doJSON(t, app, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Inactive user", decodeError(t, body).Error)

	// Login still issues a token; protected routes refuse it.
	resp, _ = doJSON(t, app, http.MethodPost, "/auth/token", "",
		map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRegistrationClosed(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeatureFlags = "registration=off"
	_, app := newTestApp(t, cfg)

	resp, body := doJSON(t, app, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "alice", "password": "pw1"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, models.CodeRegistrationClosed, decodeError(t, body).Code)
}

func TestUnknownRoute(t *testing.T) {
	_, app := newTestApp(t, testConfig(t))

	resp, body := doJSON(t, app, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.NotEmpty(t, decodeError(t, body).Error)
}

func TestAuthThrottles(t *testing.T) {
	cfg := testConfig(t)
	cfg.Env = "production"
	_, app := newTestApp(t, cfg)

	for i, name := range []string{"user_a", "user_b", "user_c"} {
		resp, _ := doJSON(t, app, http.MethodPost, "/auth/register", "",
			map[string]string{"username": name, "password": "pw1"})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "attempt %d", i)
	}

	resp, _ := doJSON(t, app, http.MethodPost, "/auth/register", "",
		map[string]string{"username": "user_d", "password": "pw1"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))

	// Login has its own budget.
	resp, _ = doJSON(t, app, http.MethodPost, "/auth/token", "",
		map[string]string{"username": "user_a", "password": "pw1"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
