package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"go-todo-api/internal/config"
	"go-todo-api/internal/handler"
	"go-todo-api/internal/metrics"
	"go-todo-api/internal/middleware"
	"go-todo-api/internal/model"
	"go-todo-api/internal/password"
	"go-todo-api/internal/service"
	"go-todo-api/internal/testutil"
	"go-todo-api/internal/token"
)

const adminPassword = "admin-pass-123"

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *model.APIError `json:"error"`
	Meta    *model.Meta     `json:"meta"`
}

type apiFixture struct {
	handler  http.Handler
	users    *testutil.UserStore
	notifier *testutil.Notifier
	health   map[string]handler.HealthCheck
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	cfg := &config.Config{
		APIPathPrefix:    "/api/v1",
		RequestTimeout:   5 * time.Second,
		RateLimitRPM:     1000,
		AuthRateLimitRPM: 1000,
	}

	codec, err := token.NewCodec("test-secret")
	require.NoError(t, err)
	hasher := password.NewHasher(bcrypt.MinCost)

	users := testutil.NewUserStore()
	hash, err := hasher.Hash(adminPassword)
	require.NoError(t, err)
	users.Put(model.User{
		ID:           uuid.NewString(),
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: hash,
		Role:         model.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	})

	store, _ := testutil.NewRevocationStore(t, time.Hour)
	notifier := &testutil.Notifier{}

	accounts := service.NewAccountService(users, hasher)
	auth := service.NewAuthService(accounts, codec, store, notifier, service.AuthConfig{
		AccessTTL:  15 * time.Minute,
		RefreshTTL: time.Hour,
	})

	m := metrics.New()
	health := map[string]handler.HealthCheck{"redis": store.Ping}

	h := New(cfg, middleware.NewAuthMiddleware(codec, store, accounts, m), m, Handlers{
		Auth:   handler.NewAuthHandler(auth),
		User:   handler.NewUserHandler(auth),
		Todo:   handler.NewTodoHandler(service.NewTodoService(testutil.NewTodoStore())),
		Health: handler.NewHealthHandler(health),
	})

	return &apiFixture{handler: h, users: users, notifier: notifier, health: health}
}

func (f *apiFixture) do(t *testing.T, method string, path string, bearer string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func (f *apiFixture) login(t *testing.T, username string, pass string) model.TokenPair {
	t.Helper()

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/users/login", "", model.LoginRequest{Username: username, Password: pass})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var pair model.TokenPair
	require.NoError(t, json.Unmarshal(env.Data, &pair))
	return pair
}

func (f *apiFixture) signupVerified(t *testing.T, username string) model.TokenPair {
	t.Helper()

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/users/signup", "", model.SignupRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password-123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	mail, ok := f.notifier.Last(testutil.KindVerification)
	require.True(t, ok)
	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/verify/"+mail.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	return f.login(t, username, "password-123")
}

func requireCode(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()

	require.Equal(t, status, rec.Code, rec.Body.String())
	require.NotNil(t, env.Error)
	assert.False(t, env.Success)
	assert.Equal(t, code, env.Error.Code)
}

func TestUserListRequiresAdmin(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/users/signup", "", model.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password-123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	unverified := f.login(t, "alice", "password-123")
	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/users", unverified.AccessToken, nil)
	requireCode(t, rec, env, http.StatusForbidden, "CE008")

	mail, ok := f.notifier.Last(testutil.KindVerification)
	require.True(t, ok)
	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/verify/"+mail.Token, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users", unverified.AccessToken, nil)
	requireCode(t, rec, env, http.StatusForbidden, "CE007")

	admin := f.login(t, "root", adminPassword)
	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users?offset=0&limit=10", admin.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, env.Meta)
	assert.Equal(t, 2, env.Meta.Total)
	assert.Equal(t, 10, env.Meta.Limit)

	var list model.UserList
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list.Users, 2)
}

func TestLoginFailureIsUniform(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/users/login", "", model.LoginRequest{Username: "root", Password: "wrong-password"})
	requireCode(t, rec, env, http.StatusUnauthorized, "CE005")
	wrongPassword := env.Error.Message

	rec, env = f.do(t, http.MethodPost, "/api/v1/auth/users/login", "", model.LoginRequest{Username: "nobody", Password: "wrong-password"})
	requireCode(t, rec, env, http.StatusUnauthorized, "CE005")
	assert.Equal(t, wrongPassword, env.Error.Message)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tokens := f.login(t, "root", adminPassword)

	rec, _ := f.do(t, http.MethodGet, "/api/v1/auth/users/profile", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/logout", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/users/profile", tokens.AccessToken, nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE002")

	// A fresh login is unaffected.
	again := f.login(t, "root", adminPassword)
	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", again.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTokenKindIsEnforced(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tokens := f.login(t, "root", adminPassword)

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/users/profile", tokens.RefreshToken, nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE003")

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users/refresh-token", tokens.AccessToken, nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE004")

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users/refresh-token", tokens.RefreshToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var access model.AccessToken
	require.NoError(t, json.Unmarshal(env.Data, &access))
	assert.Equal(t, "bearer", access.TokenType)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", access.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMissingOrGarbageToken(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/todolists", "", nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE001")

	rec, env = f.do(t, http.MethodGet, "/api/v1/todolists", "not-a-token", nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE001")
}

func TestDeactivateAndActivate(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tokens := f.signupVerified(t, "bob")

	rec, _ := f.do(t, http.MethodGet, "/api/v1/auth/users/profile/deactivate", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, env := f.do(t, http.MethodGet, "/api/v1/auth/users/profile", tokens.AccessToken, nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE002")

	fresh := f.login(t, "bob", "password-123")
	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", fresh.AccessToken, nil)
	requireCode(t, rec, env, http.StatusForbidden, "CE009")

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users/profile/activate", fresh.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.True(t, user.IsActive)

	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", fresh.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUserSelfOrAdmin(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	alice := f.signupVerified(t, "alice")
	bob := f.signupVerified(t, "bob")

	rec, _ := f.do(t, http.MethodGet, "/api/v1/auth/users/"+bob.User.ID, alice.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, env := f.do(t, http.MethodPut, "/api/v1/auth/users/"+alice.User.ID, alice.AccessToken, map[string]any{
		"first_name": "Alice",
		"role":       "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var updated model.User
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, "Alice", updated.FirstName)
	assert.Equal(t, model.RoleUser, updated.Role)

	admin := f.login(t, "root", adminPassword)
	rec, _ = f.do(t, http.MethodDelete, "/api/v1/auth/users/"+bob.User.ID, admin.AccessToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", bob.AccessToken, nil)
	requireCode(t, rec, env, http.StatusUnauthorized, "CE010")

	rec, _ = f.do(t, http.MethodGet, "/api/v1/auth/users/profile", admin.AccessToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPasswordResetFlow(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.signupVerified(t, "carol")

	rec, _ := f.do(t, http.MethodPost, "/api/v1/auth/users/password-reset", "", model.PasswordResetRequest{Email: "nobody@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	_, sent := f.notifier.Last(testutil.KindPasswordReset)
	assert.False(t, sent)

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/users/password-reset", "", model.PasswordResetRequest{Email: "carol@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	mail, sent := f.notifier.Last(testutil.KindPasswordReset)
	require.True(t, sent)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/users/password-reset-confirm/"+mail.Token, "", model.PasswordResetConfirmRequest{
		NewPassword:        "brand-new-pass",
		ConfirmNewPassword: "different-pass",
	})
	requireCode(t, rec, env, http.StatusBadRequest, "CE013")

	rec, _ = f.do(t, http.MethodPost, "/api/v1/auth/users/password-reset-confirm/"+mail.Token, "", model.PasswordResetConfirmRequest{
		NewPassword:        "brand-new-pass",
		ConfirmNewPassword: "brand-new-pass",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	f.login(t, "carol", "brand-new-pass")
}

func TestAdminProvisioning(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	admin := f.login(t, "root", adminPassword)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/users/register", admin.AccessToken, model.ProvisionRequest{
		Username: "dave",
		Email:    "dave@example.com",
		Role:     model.RoleAdmin,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, model.RoleAdmin, user.Role)

	mail, ok := f.notifier.Last(testutil.KindPasswordReset)
	require.True(t, ok)
	assert.Equal(t, "dave@example.com", mail.Email)

	rec, env = f.do(t, http.MethodPost, "/api/v1/auth/users/register", admin.AccessToken, model.ProvisionRequest{
		Username: "DAVE",
		Email:    "other@example.com",
	})
	requireCode(t, rec, env, http.StatusBadRequest, "CE006")
}

func TestTodoLifecycle(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	tokens := f.signupVerified(t, "erin")

	rec, env := f.do(t, http.MethodPost, "/api/v1/todolists", tokens.AccessToken, model.CreateTodoListRequest{Title: "groceries"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var list model.TodoList
	require.NoError(t, json.Unmarshal(env.Data, &list))

	rec, env = f.do(t, http.MethodPost, "/api/v1/todoitems", tokens.AccessToken, model.CreateTodoItemRequest{
		Name:       "milk",
		TodoListID: list.ID,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var item model.TodoItem
	require.NoError(t, json.Unmarshal(env.Data, &item))

	rec, env = f.do(t, http.MethodGet, "/api/v1/todolists/"+list.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list.Items, 1)
	assert.Equal(t, "milk", list.Items[0].Name)

	rec, env = f.do(t, http.MethodPut, "/api/v1/todoitems/"+item.ID, tokens.AccessToken, map[string]any{"is_complete": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &item))
	assert.True(t, item.IsComplete)

	rec, env = f.do(t, http.MethodGet, "/api/v1/todoitems?skip=0&limit=5", tokens.AccessToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.Total)

	rec, env = f.do(t, http.MethodGet, "/api/v1/todoitems?limit=0", tokens.AccessToken, nil)
	requireCode(t, rec, env, http.StatusBadRequest, "CE017")

	rec, _ = f.do(t, http.MethodDelete, "/api/v1/todolists/"+list.ID, tokens.AccessToken, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = f.do(t, http.MethodGet, "/api/v1/todoitems/"+item.ID, tokens.AccessToken, nil)
	requireCode(t, rec, env, http.StatusNotFound, "CE012")
}

func TestInvalidBody(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodPost, "/api/v1/auth/users/signup", "", model.SignupRequest{Username: "x", Email: "not-an-email"})
	requireCode(t, rec, env, http.StatusBadRequest, "CE015")

	rec, env = f.do(t, http.MethodPost, "/api/v1/auth/users/login", "", nil)
	requireCode(t, rec, env, http.StatusBadRequest, "CE015")
}

func TestHealthchecks(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	rec, env := f.do(t, http.MethodGet, "/api/v1/healthchecks", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status model.HealthStatus
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.Equal(t, "pong", status.Ping)
	assert.True(t, status.IsApplicationHealthy)
	assert.Equal(t, "ok", status.Dependencies["redis"])

	f.health["database"] = func(context.Context) error { return errors.New("connection refused") }

	rec, env = f.do(t, http.MethodGet, "/api/v1/healthchecks", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.IsApplicationHealthy)
	assert.Equal(t, "unavailable", status.Dependencies["database"])
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)
	f.do(t, http.MethodGet, "/api/v1/todolists", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `todo_api_http_requests_total{method="GET",route="/api/v1/todolists",status="401"} 1`)
	assert.Contains(t, body, `todo_api_auth_guard_rejections_total{code="CE001"} 1`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/healthchecks", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}
