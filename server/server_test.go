package server_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/seller-gateway/internal/config"
	"github.com/jrsteele09/seller-gateway/selection"
	"github.com/jrsteele09/seller-gateway/server"
	"github.com/stretchr/testify/require"
)

const (
	testAppID        = "seller-app"
	testBackendToken = "backend-access-token"
	testRefreshToken = "refresh-token"
)

// testFixture holds the gateway under test and the fake backend it proxies to
type testFixture struct {
	backend    *httptest.Server
	selections *selection.InMemoryRepo
	server     *server.Server
}

func setupTestFixture(t *testing.T, overrides map[string]any) *testFixture {
	t.Helper()

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "backend=1; Path=/")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"path":   r.URL.Path,
			"query":  r.URL.RawQuery,
			"appId":  r.Header.Get("app-id"),
			"cookie": r.Header.Get("Cookie"),
		})
	}))
	t.Cleanup(backend.Close)

	values := map[string]any{
		"env":         "test",
		"backend_url": backend.URL,
		"app_id":      testAppID,
	}
	for k, v := range overrides {
		values[k] = v
	}
	cfg, err := config.Load(config.WithOverrides(values))
	require.NoError(t, err)

	selections := selection.NewInMemoryRepo(time.Hour)
	srv, err := server.New(cfg, selections)
	require.NoError(t, err)

	return &testFixture{backend: backend, selections: selections, server: srv}
}

func (f *testFixture) do(t *testing.T, method, target, body, cookie string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != "" {
		req.Header.Set("Cookie", cookie)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec
}

func authCenterToken(t *testing.T, expiresAt time.Time) string {
	t.Helper()
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   "user-1",
		ExpiresAt: jwtlib.NewNumericDate(expiresAt),
	}).SignedString([]byte("backend-key"))
	require.NoError(t, err)
	return signed
}

func loginBody(authToken string, profile string) string {
	body := `{"accessToken":"` + testBackendToken + `","authCenter":{"accessToken":"` + authToken +
		`","expiresIn":"300","refreshExpiresIn":1800,"refreshToken":"` + testRefreshToken + `"}`
	if profile != "" {
		body += `,"profile":` + profile
	}
	return body + "}"
}

// login performs a successful login and returns the "name=value" cookie pair.
func (f *testFixture) login(t *testing.T, profile string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, loginBody(authCenterToken(t, time.Now().Add(time.Hour)), profile), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pair, _, _ := strings.Cut(rec.Header().Get("Set-Cookie"), ";")
	return pair
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, loginBody("ac-token", ""), "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"success":true}`, rec.Body.String())
	setCookie := rec.Header().Get("Set-Cookie")
	require.True(t, strings.HasPrefix(setCookie, "auth-session="))
	require.True(t, strings.HasSuffix(setCookie, "; Path=/; Max-Age=604800; SameSite=Lax"))
	require.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestLogin_InvalidBodies(t *testing.T) {
	f := setupTestFixture(t, nil)

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty object", `{}`, "Missing required fields"},
		{"missing auth center", `{"accessToken":"a"}`, "Missing required fields"},
		{"missing access token", `{"authCenter":{"accessToken":"b"}}`, "Missing required fields"},
		{"auth center without token", `{"accessToken":"a","authCenter":{}}`, "Missing required fields"},
		{"auth center null", `{"accessToken":"a","authCenter":null}`, "Missing required fields"},
		{"not json", `accessToken=a`, "Invalid request body"},
		{"wrong types", `{"accessToken":1}`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodPost, server.RouteAuthLogin, tt.body, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.JSONEq(t, `{"error":"`+tt.wantErr+`"}`, rec.Body.String())
			require.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestSession(t *testing.T) {
	f := setupTestFixture(t, nil)

	t.Run("absent", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, server.RouteAuthSession, "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"user":null}`, rec.Body.String())
	})

	t.Run("malformed", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, server.RouteAuthSession, "", "auth-session=%7Bbroken")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.JSONEq(t, `{"user":null}`, rec.Body.String())
	})

	t.Run("present", func(t *testing.T) {
		cookie := f.login(t, `{"name":"Somchai"}`)

		rec := f.do(t, http.MethodGet, server.RouteAuthSession, "", "theme=dark; "+cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			User struct {
				AccessToken string `json:"accessToken"`
				AuthCenter  struct {
					ExpiresIn        string `json:"expiresIn"`
					RefreshExpiresIn int64  `json:"refreshExpiresIn"`
					RefreshToken     string `json:"refreshToken"`
				} `json:"authCenter"`
			} `json:"user"`
			Profile   json.RawMessage `json:"profile"`
			ExpiresAt *time.Time      `json:"expiresAt"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, testBackendToken, body.User.AccessToken)
		require.Equal(t, "300", body.User.AuthCenter.ExpiresIn)
		require.Equal(t, int64(1800), body.User.AuthCenter.RefreshExpiresIn)
		require.Equal(t, testRefreshToken, body.User.AuthCenter.RefreshToken)
		require.JSONEq(t, `{"name":"Somchai"}`, string(body.Profile))
		require.NotNil(t, body.ExpiresAt)
		require.WithinDuration(t, time.Now().Add(time.Hour), *body.ExpiresAt, time.Minute)
	})
}

func TestLogout(t *testing.T) {
	f := setupTestFixture(t, nil)

	t.Run("without session", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, server.RouteAuthLogout, "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"success":true}`, rec.Body.String())
		require.Equal(t, "auth-session=; Path=/; Max-Age=0", rec.Header().Get("Set-Cookie"))
	})

	t.Run("clears selection", func(t *testing.T) {
		cookie := f.login(t, `{"name":"Somchai"}`)

		rec := f.do(t, http.MethodPut, server.RouteSelectionMerchant, `{"merchantId":1,"merchantUuid":"m-1","merchantSlug":"shop"}`, cookie)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = f.do(t, http.MethodPost, server.RouteAuthLogout, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "auth-session=; Path=/; Max-Age=0", rec.Header().Get("Set-Cookie"))

		// The cookie is still valid until the browser drops it, but its selection is gone
		rec = f.do(t, http.MethodGet, server.RouteSelection, "", cookie)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"user":null,"merchant":null,"organization":null}`, rec.Body.String())
	})
}

func TestGuard(t *testing.T) {
	f := setupTestFixture(t, nil)
	cookie := f.login(t, "")

	tests := []struct {
		name         string
		path         string
		cookie       string
		wantStatus   int
		wantLocation string
	}{
		{"dashboard without session", "/dashboard", "", http.StatusTemporaryRedirect, "/login"},
		{"dashboard subpage without session", "/dashboard/orders", "", http.StatusTemporaryRedirect, "/login"},
		{"root without session", "/", "", http.StatusTemporaryRedirect, "/login"},
		{"login with session", "/login", cookie, http.StatusTemporaryRedirect, "/"},
		{"login without session", "/login", "", http.StatusOK, ""},
		{"dashboard with session", "/dashboard", cookie, http.StatusOK, ""},
		{"unclassified page", "/register", "", http.StatusOK, ""},
		{"api never redirected", server.RouteAuthSession, "", http.StatusUnauthorized, ""},
		{"png never redirected", "/dashboard/logo.png", "", http.StatusNotFound, ""},
		{"next static never redirected", "/_next/static/chunk.js", "", http.StatusNotFound, ""},
		{"broken cookie counts as absent", "/dashboard", "auth-session=garbage", http.StatusTemporaryRedirect, "/login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, http.MethodGet, tt.path, "", tt.cookie)
			require.Equal(t, tt.wantStatus, rec.Code)
			require.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			require.Empty(t, rec.Header().Values("Set-Cookie"))
		})
	}
}

func TestStaticShell(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/login", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "no-cache", rec.Header().Get("Cache-Control"))
	require.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	require.Contains(t, rec.Body.String(), `<div id="root"></div>`)

	rec = f.do(t, http.MethodGet, "/favicon.svg", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	require.Equal(t, "public, max-age=3600, must-revalidate", rec.Header().Get("Cache-Control"))

	rec = f.do(t, http.MethodGet, "/missing.css", "", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProxyRoutes(t *testing.T) {
	f := setupTestFixture(t, nil)

	t.Run("forwards to service base url", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/api/order/v1/orders?page=2", "", "theme=dark")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"path":"/api-order/v1/orders","query":"page=2","appId":"seller-app","cookie":"theme=dark"}`, rec.Body.String())
		require.Equal(t, []string{"backend=1; Path=/"}, rec.Header().Values("Set-Cookie"))
	})

	t.Run("unknown service", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/api/billing/invoices", `{"a":1}`, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"error":"Invalid service","validServices":["customer","product","order"]}`, rec.Body.String())
	})

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete} {
		t.Run(method, func(t *testing.T) {
			rec := f.do(t, method, "/api/customer/profile", `{"a":1}`, "")
			require.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestSelectionEndpoints(t *testing.T) {
	f := setupTestFixture(t, nil)

	t.Run("requires session", func(t *testing.T) {
		for _, tc := range []struct{ method, path string }{
			{http.MethodGet, server.RouteSelection},
			{http.MethodDelete, server.RouteSelection},
			{http.MethodPut, server.RouteSelectionMerchant},
			{http.MethodPut, server.RouteSelectionOrganization},
		} {
			rec := f.do(t, tc.method, tc.path, `{}`, "")
			require.Equal(t, http.StatusUnauthorized, rec.Code, tc.method+" "+tc.path)
			require.JSONEq(t, `{"error":"Unauthorized"}`, rec.Body.String())
		}
	})

	cookie := f.login(t, `{"name":"Somchai"}`)

	rec := f.do(t, http.MethodGet, server.RouteSelection, "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"user":{"name":"Somchai"},"merchant":null,"organization":null}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, server.RouteSelectionMerchant, `{"merchantId":12,"merchantUuid":"m-uuid","merchantSlug":"shop-12"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPut, server.RouteSelectionOrganization, `{"organizationId":3,"organizeId":null,"organizeUuid":"org-uuid"}`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{
		"user":{"name":"Somchai"},
		"merchant":{"merchantId":12,"merchantUuid":"m-uuid","merchantSlug":"shop-12"},
		"organization":{"organizationId":3,"organizeId":null,"organizeUuid":"org-uuid"}
	}`, rec.Body.String())

	rec = f.do(t, http.MethodPut, server.RouteSelectionMerchant, `null`, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"merchant":null`)

	rec = f.do(t, http.MethodPut, server.RouteSelectionMerchant, `{"merchantId":"twelve"}`, cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodDelete, server.RouteSelection, "", cookie)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = f.do(t, http.MethodGet, server.RouteSelection, "", cookie)
	require.JSONEq(t, `{"user":null,"merchant":null,"organization":null}`, rec.Body.String())
}

func TestSelectionEndpoints_ConcurrentUpdates(t *testing.T) {
	f := setupTestFixture(t, nil)
	cookie := f.login(t, "")

	const rounds = 50
	for i := 0; i < rounds; i++ {
		require.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, server.RouteSelection, "", cookie).Code)

		var wg sync.WaitGroup
		codes := make([]int, 2)
		wg.Add(2)
		go func() {
			defer wg.Done()
			codes[0] = f.do(t, http.MethodPut, server.RouteSelectionMerchant, `{"merchantId":12,"merchantUuid":"m","merchantSlug":"shop-12"}`, cookie).Code
		}()
		go func() {
			defer wg.Done()
			codes[1] = f.do(t, http.MethodPut, server.RouteSelectionOrganization, `{"organizeUuid":"org-uuid"}`, cookie).Code
		}()
		wg.Wait()
		require.Equal(t, []int{http.StatusOK, http.StatusOK}, codes)

		rec := f.do(t, http.MethodGet, server.RouteSelection, "", cookie)
		require.Contains(t, rec.Body.String(), `"merchantSlug":"shop-12"`)
		require.Contains(t, rec.Body.String(), `"organizeUuid":"org-uuid"`)
	}
}

func TestLoginRateLimit(t *testing.T) {
	f := setupTestFixture(t, map[string]any{"login_rate_limit": 0.01, "login_rate_burst": 1})

	rec := f.do(t, http.MethodPost, server.RouteAuthLogin, loginBody("ac", ""), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, server.RouteAuthLogin, loginBody("ac", ""), "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"error":"Too many requests"}`, rec.Body.String())
	require.Equal(t, "100", rec.Header().Get("Retry-After"))

	// Other endpoints are not limited
	rec = f.do(t, http.MethodGet, server.RouteAuthSession, "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodGet, server.RouteHealth, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	f.do(t, http.MethodGet, "/api/product/items", "", "")

	rec = f.do(t, http.MethodGet, server.RouteMetrics, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, `seller_gateway_http_requests_total{method="GET",route="GET /healthz",status="200"} 1`)
	require.Contains(t, body, `seller_gateway_proxy_upstream_responses_total{service="product",status="200"} 1`)
}

func TestRequestID(t *testing.T) {
	f := setupTestFixture(t, nil)

	rec := f.do(t, http.MethodGet, server.RouteHealth, "", "")
	require.Len(t, rec.Header().Get(server.HeaderRequestID), 36)

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	req.Header.Set(server.HeaderRequestID, "req-123")
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get(server.HeaderRequestID))
}

func TestCORS(t *testing.T) {
	f := setupTestFixture(t, map[string]any{"allowed_origins": "https://seller.example.com"})

	preflight := func(origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/order/v1/orders", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		f.server.ServeHTTP(rec, req)
		return rec
	}

	rec := preflight("https://seller.example.com")
	require.Equal(t, "https://seller.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	rec = preflight("https://evil.example.com")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	req := httptest.NewRequest(http.MethodGet, server.RouteHealth, nil)
	req.Header.Set("Origin", "https://seller.example.com")
	rec = httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	require.Equal(t, "https://seller.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes(t *testing.T) {
	f := setupTestFixture(t, nil)
	routes := f.server.Routes()

	require.Contains(t, routes, "POST "+server.RouteAuthLogin)
	require.Contains(t, routes, "PATCH "+server.RouteProxy)
	require.Contains(t, routes, "GET "+server.RoutePages)
}
