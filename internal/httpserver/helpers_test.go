package httpserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/product_catalog/internal/middleware/auth"
	"github.com/Skotchmaster/product_catalog/internal/repo"
	"github.com/Skotchmaster/product_catalog/internal/service"
	"github.com/Skotchmaster/product_catalog/internal/testutil"
	"github.com/Skotchmaster/product_catalog/internal/tokens"
)

var testSecret = []byte("http-test-secret")

type testEnv struct {
	E  *echo.Echo
	DB *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gdb := testutil.OpenDB(t)
	r := repo.New(gdb)

	e := echo.New()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Repo: r, Tokens: tokens.NewIssuer(testSecret, time.Hour)}},
		CatalogHandler: &CatalogHTTP{Svc: &service.CatalogService{Repo: r}},
		Guard:          auth.NewGuard(testSecret, false),
		DB:             gdb,
	})

	return &testEnv{E: e, DB: gdb}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type authBody struct {
	Token  string `json:"token"`
	UserID uint   `json:"userId"`
	Email  string `json:"email"`
}

type messageBody struct {
	Message string `json:"message"`
	Errors  []struct {
		Field string `json:"field"`
	} `json:"errors"`
}

func signupAdmin(t *testing.T, env *testEnv) string {
	t.Helper()

	rec := env.do(t, http.MethodPost, "/api/auth/signup", map[string]any{
		"name":     "Admin",
		"email":    "admin@example.com",
		"password": "secret1",
		"userType": "admin",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[authBody](t, rec).Token
}
