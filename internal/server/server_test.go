package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sweetshop/internal/domain/model"
	"sweetshop/internal/handler"
	"sweetshop/internal/infra/cache"
	"sweetshop/internal/infra/memory"
	"sweetshop/internal/observability"
	"sweetshop/internal/usecase"
	auth "sweetshop/internal/usecase/auth_usecase"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testAdminKey = "aswd"

// =====================
// helper
// =====================

type testServer struct {
	e     *echo.Echo
	store *memory.Store
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := memory.NewStore()
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	hasher := auth.NewBcryptPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewJWTService("test-secret", time.Hour, auth.SystemClock{}, auth.UUIDGenerator{})

	registerUC := auth.NewRegisterUserUsecase(store, hasher, tokens, auth.NewAdminPolicy(testAdminKey), auth.SystemClock{})
	loginUC, err := auth.NewLoginUsecase(store.Accounts(), hasher, tokens, cache.NewRedisLoginThrottle(rdb, 3, time.Minute), log)
	require.NoError(t, err)
	sweetUC := usecase.NewSweetUsecase(store.Sweets(), store, metrics)

	e := New(Deps{
		Log:          log,
		Metrics:      metrics,
		Authn:        auth.NewAuthenticator(tokens, store.Accounts()),
		AllowOrigins: []string{"http://localhost:8501"},
		Info:         handler.NewInfoHandler(nil, log),
		Auth:         handler.NewAuthHandler(registerUC, loginUC),
		Sweets:       handler.NewSweetHandler(sweetUC),
	})
	return &testServer{e: e, store: store, redis: mr}
}

func (s *testServer) do(t *testing.T, method string, path string, token string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

// 登録してアクセストークンを返す
func (s *testServer) register(t *testing.T, username string, adminKey string) string {
	t.Helper()

	body := fmt.Sprintf(`{"username":%q,"password":"pw-%s","admin_key":%q}`, username, username, adminKey)
	rec := s.do(t, http.MethodPost, "/api/auth/register", "", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out handler.TokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Equal(t, "bearer", out.TokenType)
	return out.AccessToken
}

func (s *testServer) createSweet(t *testing.T, token string, body string) model.Sweet {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/sweets", token, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out model.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func (s *testServer) listSweets(t *testing.T, token string) []model.Sweet {
	t.Helper()

	rec := s.do(t, http.MethodGet, "/api/sweets", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out []model.Sweet
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func errorOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	msg, _ := body["error"].(string)
	return msg
}

// =====================
// tests
// =====================

func TestServer_SweetsRequireBearer(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/sweets"},
		{http.MethodPost, "/api/sweets"},
		{http.MethodGet, "/api/sweets/search"},
		{http.MethodPut, "/api/sweets/1"},
		{http.MethodDelete, "/api/sweets/1"},
		{http.MethodPost, "/api/sweets/1/purchase"},
		{http.MethodPost, "/api/sweets/1/restock"},
	} {
		rec := s.do(t, tc.method, tc.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
		assert.Equal(t, "Bearer", rec.Header().Get(echo.HeaderWWWAuthenticate))
	}

	rec := s.do(t, http.MethodGet, "/api/sweets", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_PublicRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", "", "").Code)

	rec := s.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sweetshop_http_requests_total")

	rec = s.do(t, http.MethodGet, "/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", errorOf(t, rec))
}

func TestServer_FirstAccountIsAdmin(t *testing.T) {
	s := newTestServer(t)

	admin := s.register(t, "first", "")
	user := s.register(t, "second", "")
	viaKey := s.register(t, "third", testAdminKey)
	wrongKey := s.register(t, "fourth", "ASWD")

	item := s.createSweet(t, admin, `{"name":"Ladoo","category":"Indian","price":2.5,"quantity":10}`)
	restock := fmt.Sprintf("/api/sweets/%d/restock", item.ID)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, restock, admin, `{"quantity":1}`).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPost, restock, viaKey, `{"quantity":1}`).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, restock, user, `{"quantity":1}`).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, restock, wrongKey, `{"quantity":1}`).Code)

	assert.Equal(t, int64(12), s.listSweets(t, user)[0].Quantity)
}

func TestServer_DeleteRequiresAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "owner", "")
	user := s.register(t, "customer", "")

	item := s.createSweet(t, user, `{"name":"Barfi","category":"Indian","price":1.5,"quantity":3}`)
	path := fmt.Sprintf("/api/sweets/%d", item.ID)

	rec := s.do(t, http.MethodDelete, path, user, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "admin privilege required", errorOf(t, rec))
	require.Len(t, s.listSweets(t, user), 1)

	rec = s.do(t, http.MethodDelete, path, admin, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, s.listSweets(t, user))

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, path, admin, "").Code)
}

func TestServer_LadooScenario(t *testing.T) {
	s := newTestServer(t)
	admin := s.register(t, "owner", "")
	user := s.register(t, "customer", "")

	item := s.createSweet(t, admin, `{"name":"Ladoo","category":"Indian","price":2.5,"quantity":10}`)
	base := fmt.Sprintf("/api/sweets/%d", item.ID)

	rec := s.do(t, http.MethodPost, base+"/purchase", user, `{"quantity":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/purchase", user, `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, errorOf(t, rec), "insufficient stock")
	assert.Equal(t, int64(3), s.listSweets(t, user)[0].Quantity)

	// 一般ユーザーは入荷できない
	rec = s.do(t, http.MethodPost, base+"/restock", user, `{"quantity":5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, base+"/restock", admin, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, base+"/purchase", user, `{"quantity":5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	list := s.listSweets(t, user)
	require.Len(t, list, 1)
	assert.Equal(t, int64(3), list[0].Quantity)
}

func TestServer_TokenOfRemovedAccountIsRejected(t *testing.T) {
	s := newTestServer(t)
	token := s.register(t, "ghost", "")

	// 別ストアのサーバーでは同じ署名でもアカウントが存在しない
	other := newTestServer(t)
	rec := other.do(t, http.MethodGet, "/api/sweets", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestServer_LoginThrottle(t *testing.T) {
	s := newTestServer(t)
	s.register(t, "alice", "")

	for i := 0; i < 3; i++ {
		rec := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"wrong"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "incorrect username or password", errorOf(t, rec))
	}

	// 上限に達したら正しいパスワードでも拒否
	rec := s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"pw-alice"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	s.redis.FastForward(2 * time.Minute)

	rec = s.do(t, http.MethodPost, "/api/auth/login", "", `{"username":"alice","password":"pw-alice"}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_CORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sweets", nil)
	req.Header.Set(echo.HeaderOrigin, "http://localhost:8501")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:8501", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServer_RequestIDIsSet(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/", "", "")
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}
