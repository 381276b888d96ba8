package router

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"userdirectory/internal/auth"
	"userdirectory/internal/db"
	"userdirectory/internal/handler"
	"userdirectory/internal/model"
	"userdirectory/internal/repository"
	"userdirectory/internal/service"
)

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()
	gormDB, err := db.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, gormDB.AutoMigrate(&model.User{}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	jwtService := auth.NewJWTService("test-secret", time.Minute, time.Hour)
	tokenStore := auth.NewTokenStore(nil)
	userRepo := repository.NewUserRepository(gormDB)

	userService := service.NewUserService(userRepo, hasher, nil, 0)
	authService := service.NewAuthService(userRepo, hasher, jwtService, tokenStore)

	e := echo.New()
	Register(e, logger, jwtService, authService,
		handler.NewUserHandler(userService),
		handler.NewAuthHandler(authService, jwtService),
	)
	return e
}

func do(e *echo.Echo, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func createUser(t *testing.T, e *echo.Echo, firstName, role, phone, email string) string {
	t.Helper()
	body := fmt.Sprintf(`{"first_name":%q,"last_name":"Doe","password":"Password@123","role":%q,"organization_id":"Company1","phone":%q,"email":%q}`,
		firstName, role, phone, email)
	rec := do(e, http.MethodPost, "/api/v1/users", "", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp handler.CreateUserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.UserID
}

func login(t *testing.T, e *echo.Echo, userID string) handler.AuthResponse {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/v1/login", "", fmt.Sprintf(`{"user_id":%q,"password":"Password@123"}`, userID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp handler.AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestRouter_UserLifecycle(t *testing.T) {
	e := newTestServer(t)

	adminID := createUser(t, e, "jane", "ADMIN", "1111111111", "jane@example.com")
	userID := createUser(t, e, "john", "USER", "2222222222", "john@example.com")
	assert.True(t, strings.HasPrefix(adminID, "jane"))
	assert.True(t, strings.HasPrefix(userID, "john"))

	tokens := login(t, e, adminID)
	assert.Equal(t, "Bearer", tokens.TokenType)

	// Lookup requires a token.
	rec := do(e, http.MethodGet, "/api/v1/users/search/"+userID, "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/users/search/"+userID, tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Password@123")

	// Non-admin record keeps its role.
	rec = do(e, http.MethodPut, "/api/v1/users/"+userID, tokens.AccessToken,
		`{"first_name":"Johnny","last_name":"Doe","organization_id":"Company1","role":"ADMIN","designation":"CTO"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated model.UserDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Johnny", updated.FirstName)
	assert.Equal(t, "USER", updated.Role)
	assert.Equal(t, userID, updated.UserID)

	// Email conflict on update.
	rec = do(e, http.MethodPut, "/api/v1/users/"+userID, tokens.AccessToken,
		`{"first_name":"Johnny","last_name":"Doe","organization_id":"Company1","email":"jane@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email or phone already Exists")

	rec = do(e, http.MethodPatch, "/api/v1/users/"+userID, tokens.AccessToken, `{"status":"ENABLED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User status is already ENABLED")

	rec = do(e, http.MethodPatch, "/api/v1/users/"+userID, tokens.AccessToken, `{"status":"DISABLED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "User status changed successfully to DISABLED")

	rec = do(e, http.MethodGet, "/api/v1/users/search?status=DISABLED", tokens.AccessToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var page model.UserPage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, int64(1), page.Count)
	require.Len(t, page.Users, 1)
	assert.Equal(t, userID, page.Users[0].UserID)

	rec = do(e, http.MethodGet, "/api/v1/users/search/nobody1", tokens.AccessToken, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "User not found with ID: nobody1")
}

func TestRouter_DuplicateOnCreate(t *testing.T) {
	e := newTestServer(t)
	createUser(t, e, "jane", "USER", "1111111111", "jane@example.com")

	body := `{"first_name":"john","last_name":"Doe","password":"Password@123","role":"USER","organization_id":"Company1","phone":"1111111111"}`
	rec := do(e, http.MethodPost, "/api/v1/users", "", body)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email or phone number already exists")
}

func TestRouter_LoginFailures(t *testing.T) {
	e := newTestServer(t)
	userID := createUser(t, e, "jane", "USER", "1111111111", "jane@example.com")

	rec := do(e, http.MethodPost, "/api/v1/login", "", fmt.Sprintf(`{"user_id":%q,"password":"Wrong@1234"}`, userID))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodPost, "/api/v1/login", "", `{"user_id":"ghost1","password":"Password@123"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotContains(t, rec.Body.String(), "not found")
}

func TestRouter_RefreshTokenIsNotAnAccessToken(t *testing.T) {
	e := newTestServer(t)
	userID := createUser(t, e, "jane", "USER", "1111111111", "jane@example.com")
	tokens := login(t, e, userID)

	rec := do(e, http.MethodGet, "/api/v1/me", tokens.RefreshToken, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/me", tokens.AccessToken, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), userID)
}

func TestRouter_PublicEndpoints(t *testing.T) {
	e := newTestServer(t)

	rec := do(e, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/api/v1/greet", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(e, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
