package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/mechswap-api/internal/application/auth"
	"github.com/jhoicas/mechswap-api/internal/application/dto"
	"github.com/jhoicas/mechswap-api/internal/application/ports"
	"github.com/jhoicas/mechswap-api/internal/application/usecase"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/ratelimit"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/security"
	"github.com/jhoicas/mechswap-api/internal/infrastructure/sqlite"
	apphttp "github.com/jhoicas/mechswap-api/internal/interfaces/http"
	"github.com/jhoicas/mechswap-api/pkg/config"
)

type discardNotifier struct{}

func (discardNotifier) Notify(ports.Notification) {}

type testApp struct {
	app  *fiber.App
	repo *sqlite.AccountRepo
}

// buildTestApp arma la API completa sobre SQLite temporal. limiter y ping son opcionales.
func buildTestApp(t *testing.T, limiter *ratelimit.Limiter, rl config.RateLimitConfig, ping func(context.Context) error) testApp {
	t.Helper()
	ctx := context.Background()
	db, err := sqlite.Open(ctx, sqlite.Config{Path: filepath.Join(t.TempDir(), "api.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqlite.Migrate(ctx, db))

	repo := sqlite.NewAccountRepository(db)
	authUC := auth.NewAuthUseCase(sqlite.NewTxRunner(db), repo, security.NewBcryptHasher(bcrypt.MinCost),
		discardNotifier{}, auth.Config{TxTimeout: 5 * time.Second}, nil)

	app := fiber.New()
	deps := apphttp.RouterDeps{
		AuthUC:      authUC,
		AccountUC:   usecase.NewAccountUseCase(repo, 5*time.Second),
		RateLimit:   rl,
		Ping:        ping,
		ServiceName: "mechswap-api",
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	apphttp.Router(app, deps)
	return testApp{app: app, repo: repo}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			r = bytes.NewBufferString(s)
		} else {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			r = bytes.NewReader(b)
		}
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func decodeError(t *testing.T, raw []byte) dto.ErrorResponse {
	t.Helper()
	var e dto.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &e))
	return e
}

func register(t *testing.T, app *fiber.App, email, password string) {
	t.Helper()
	resp, _ := doJSON(t, app, http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: email, Password: password})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)
}

func TestRegister_Created(t *testing.T) {
	ta := buildTestApp(t, nil, config.RateLimitConfig{}, nil)
	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/auth/register", map[string]string{
		"email": "buyer@example.com", "password": "s3cret!", "display_name": "Buyer", "country": "India",
	})
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var out dto.AccountResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "buyer@example.com", out.Email)
	assert.Equal(t, "Buyer", out.DisplayName)
	assert.Equal(t, "active", out.Status)
	assert.NotContains(t, string(raw), "s3cret!")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))
}

func TestRegister_ErroresDeEntrada(t *testing.T) {
	ta := buildTestApp(t, nil, config.RateLimitConfig{}, nil)
	register(t, ta.app, "taken@example.com", "s3cret!")

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "taken@example.com", Password: "s3cret!"})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)
	assert.Equal(t, apphttp.CodeEmailTaken, decodeError(t, raw).Code)

	resp, raw = doJSON(t, ta.app, http.MethodPost, "/api/auth/register", dto.RegisterRequest{Email: "new@example.com", Password: "12345"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	e := decodeError(t, raw)
	assert.Equal(t, apphttp.CodeValidation, e.Code)
	assert.Equal(t, "password", e.Field)

	resp, raw = doJSON(t, ta.app, http.MethodPost, "/api/auth/register", `{"email":`)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeInvalidBody, decodeError(t, raw).Code)
}

func TestLogin(t *testing.T) {
	ta := buildTestApp(t, nil, config.RateLimitConfig{}, nil)
	register(t, ta.app, "seller@example.com", "s3cret!")

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: "seller@example.com", Password: "s3cret!"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.LoginResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "active", out.Status)

	for _, in := range []dto.LoginRequest{
		{Email: "seller@example.com", Password: "wrong!!"},
		{Email: "ghost@example.com", Password: "s3cret!"},
		{Email: "not-an-email", Password: "s3cret!"},
	} {
		resp, raw = doJSON(t, ta.app, http.MethodPost, "/api/auth/login", in)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode, in.Email)
		assert.Equal(t, apphttp.CodeInvalidCredentials, decodeError(t, raw).Code)
	}
}

func TestChangeYForgotPassword(t *testing.T) {
	ta := buildTestApp(t, nil, config.RateLimitConfig{}, nil)
	register(t, ta.app, "owner@example.com", "first-pass")

	resp, _ := doJSON(t, ta.app, http.MethodPost, "/api/auth/change-password", dto.ChangePasswordRequest{
		Email: "owner@example.com", CurrentPassword: "nope", NewPassword: "second-pass",
	})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, _ = doJSON(t, ta.app, http.MethodPost, "/api/auth/change-password", dto.ChangePasswordRequest{
		Email: "owner@example.com", CurrentPassword: "first-pass", NewPassword: "second-pass",
	})
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, ta.app, http.MethodPost, "/api/auth/forgot-password", dto.ForgotPasswordRequest{Email: "OWNER@example.com"})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	_, known := doJSON(t, ta.app, http.MethodPost, "/api/auth/forgot-password", dto.ForgotPasswordRequest{Email: "owner@example.com"})

	// la respuesta no revela si la cuenta existe
	resp, unknown := doJSON(t, ta.app, http.MethodPost, "/api/auth/forgot-password", dto.ForgotPasswordRequest{Email: "missing@example.com"})
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)
	assert.JSONEq(t, string(known), string(unknown))

	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/auth/forgot-password", dto.ForgotPasswordRequest{Email: "bad"})
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, apphttp.CodeValidation, decodeError(t, raw).Code)
}

func TestProfile(t *testing.T) {
	ta := buildTestApp(t, nil, config.RateLimitConfig{}, nil)
	register(t, ta.app, "profile@example.com", "s3cret!")

	resp, _ := doJSON(t, ta.app, http.MethodPut, "/api/accounts/profile", map[string]string{
		"email": "profile@example.com", "company_name": "  Gear Works  ", "city": "Mumbai",
	})
	require.Equal(t, fiber.StatusNoContent, resp.StatusCode)

	resp, raw := doJSON(t, ta.app, http.MethodGet, "/api/accounts?email=profile@example.com", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var out dto.AccountResponse
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "Gear Works", out.CompanyName)
	assert.Equal(t, "Mumbai", out.City)

	resp, _ = doJSON(t, ta.app, http.MethodGet, "/api/accounts?email=nobody@example.com", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, ta.app, http.MethodGet, "/api/accounts?email=bad", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	ok := buildTestApp(t, nil, config.RateLimitConfig{}, func(context.Context) error { return nil })
	resp, _ := doJSON(t, ok.app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	down := buildTestApp(t, nil, config.RateLimitConfig{}, func(context.Context) error { return errors.New("sin conexión") })
	resp, raw := doJSON(t, down.app, http.MethodGet, "/health", nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	assert.NotContains(t, string(raw), "sin conexión")
}

func TestRateLimit_AuthPorIP(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	rl := config.RateLimitConfig{AuthMax: 2, AuthWindow: time.Minute, GeneralMax: 100, GeneralWindow: time.Minute}
	ta := buildTestApp(t, ratelimit.New(rdb, nil), rl, nil)

	login := dto.LoginRequest{Email: "x@example.com", Password: "whatever"}
	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, ta.app, http.MethodPost, "/api/auth/login", login)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
	resp, raw := doJSON(t, ta.app, http.MethodPost, "/api/auth/login", login)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, apphttp.CodeRateLimited, decodeError(t, raw).Code)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderRetryAfter))

	// el resto de la API sigue con su propio límite
	resp, _ = doJSON(t, ta.app, http.MethodGet, "/api/accounts?email=x@example.com", nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
