package handler

import (
	"net/http"
	"testing"
	"time"

	"sweetshop/internal/infra/memory"
	auth "sweetshop/internal/usecase/auth_usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newAuthEcho(t *testing.T) *echo.Echo {
	t.Helper()

	store := memory.NewStore()
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewJWTService("test-secret", time.Hour, auth.SystemClock{}, auth.UUIDGenerator{})
	registerUC := auth.NewRegisterUserUsecase(store, hasher, tokens, auth.NewAdminPolicy("aswd"), auth.SystemClock{})
	loginUC, err := auth.NewLoginUsecase(store.Accounts(), hasher, tokens, nil, quietLogger())
	require.NoError(t, err)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(e)
	NewAuthHandler(registerUC, loginUC).RegisterRoutes(e.Group("/api"))
	return e
}

func TestAuthHandler_RegisterThenLogin(t *testing.T) {
	e := newAuthEcho(t)

	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "bearer", body["token_type"])
	assert.NotEmpty(t, body["access_token"])

	rec = doJSON(t, e, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"pw-1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "bearer", decodeBody(t, rec)["token_type"])
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	e := newAuthEcho(t)
	require.Equal(t, http.StatusOK, doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw"}`).Code)

	rec := doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"other"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username already exists", decodeBody(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":"  ","password":"pw"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "username is required", decodeBody(t, rec)["error"])

	rec = doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid body", decodeBody(t, rec)["error"])
}

func TestAuthHandler_LoginFailures(t *testing.T) {
	e := newAuthEcho(t)
	require.Equal(t, http.StatusOK, doJSON(t, e, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"pw"}`).Code)

	wrong := doJSON(t, e, http.MethodPost, "/api/auth/login", `{"username":"alice","password":"nope"}`)
	unknown := doJSON(t, e, http.MethodPost, "/api/auth/login", `{"username":"bob","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, wrong.Code)
	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())
}
