package mockapi

import (
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/logger"
)

func testConfig() *config.MockAPIConfig {
	return &config.MockAPIConfig{
		Environment:       "test",
		Host:              "127.0.0.1",
		Port:              8080,
		SecretKey:         strings.Repeat("s", 32),
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		AllowedOrigins:    []string{"http://localhost:3000"},
		SeedContent:       true,
		MaxAPIRequestSize: portal.MaxAPIRequestSize,
	}
}

func newTestServer(t *testing.T, cfg *config.MockAPIConfig) (*Server, *httptest.Server) {
	t.Helper()
	s, err := NewServer(cfg, logger.Discard())
	require.NoError(t, err)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

// newJarClient returns an http client that keeps the mock api cookies between calls
func newJarClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar}
}

type envelope struct {
	RequestID string          `json:"request_id"`
	Status    bool            `json:"status"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Error     json.RawMessage `json:"error"`
}

func decodeEnvelope(t *testing.T, res *http.Response) envelope {
	t.Helper()
	defer res.Body.Close()
	var env envelope
	require.NoError(t, json.NewDecoder(res.Body).Decode(&env))
	return env
}

func csrfToken(t *testing.T, client *http.Client, base string) string {
	t.Helper()
	res, err := client.Get(base + "/api/csrf")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.NotEmpty(t, body.CSRFToken)
	return body.CSRFToken
}

func post(t *testing.T, client *http.Client, url, token, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(portal.CSRFHeaderName, token)
	}
	res, err := client.Do(req)
	require.NoError(t, err)
	return res
}

const validMessage = `{"name":"Ahmad","email":"ahmad@example.com","subject":"Informasi PSB","message":"Kapan pendaftaran gelombang dua dibuka?"}`

func TestCSRFContract(t *testing.T) {
	s, ts := newTestServer(t, testConfig())
	client := newJarClient(t)

	t.Run("mutation without token is rejected", func(t *testing.T) {
		res := post(t, client, ts.URL+"/api/contact", "", validMessage)
		assert.Equal(t, http.StatusForbidden, res.StatusCode)

		env := decodeEnvelope(t, res)
		assert.False(t, env.Status)
		assert.Equal(t, "CSRF token mismatch", env.Message)
	})

	t.Run("token from another session is rejected", func(t *testing.T) {
		token := csrfToken(t, newJarClient(t), ts.URL)
		csrfToken(t, client, ts.URL)

		res := post(t, client, ts.URL+"/api/contact", token, validMessage)
		res.Body.Close()
		assert.Equal(t, http.StatusForbidden, res.StatusCode)
	})

	t.Run("matching token is accepted", func(t *testing.T) {
		token := csrfToken(t, client, ts.URL)
		res := post(t, client, ts.URL+"/api/contact", token, validMessage)
		assert.Equal(t, http.StatusCreated, res.StatusCode)
		env := decodeEnvelope(t, res)
		assert.True(t, env.Status)
	})

	assert.Equal(t, 1, s.Store().Messages.Count())
}

func TestValidationErrorsAreFieldMaps(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	client := newJarClient(t)
	token := csrfToken(t, client, ts.URL)

	res := post(t, client, ts.URL+"/api/contact", token, `{"name":"A","email":"not-an-email","subject":"Hi","message":"short"}`)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	env := decodeEnvelope(t, res)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(env.Error, &fields))
	assert.Contains(t, fields, "name")
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "subject")
	assert.Contains(t, fields, "message")
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	for _, path := range []string{"/api/messages", "/api/psb/registrants", "/api/dashboard/stats", "/api/admins", "/api/activity-logs"} {
		res, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, res.StatusCode, path)
		res.Body.Close()
	}
}

func TestLoginSetsAuthCookies(t *testing.T) {
	_, ts := newTestServer(t, testConfig())
	client := newJarClient(t)
	token := csrfToken(t, client, ts.URL)

	res := post(t, client, ts.URL+"/api/login", token, `{"username":"admin","password":"wrong-password"}`)
	res.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, res.StatusCode)

	res = post(t, client, ts.URL+"/api/login", token, `{"username":"admin","password":"admin123"}`)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var names []string
	for _, c := range res.Cookies() {
		names = append(names, c.Name)
		assert.True(t, c.HttpOnly, c.Name)
	}
	assert.Contains(t, names, portal.AuthTokenCookieName)
	assert.Contains(t, names, portal.RefreshCookieName)
	res.Body.Close()

	stats, err := client.Get(ts.URL + "/api/dashboard/stats")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, stats.StatusCode)
	env := decodeEnvelope(t, stats)
	assert.JSONEq(t, `{"total_santri":0,"total_articles":3,"total_users":1}`, string(env.Data))
}

func TestRequestIDIsEchoed(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/articles", nil)
	require.NoError(t, err)
	req.Header.Set(portal.RequestIDHeaderName, "req-123")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", res.Header.Get(portal.RequestIDHeaderName))
	env := decodeEnvelope(t, res)
	assert.Equal(t, "req-123", env.RequestID)

	res, err = http.Get(ts.URL + "/api/articles")
	require.NoError(t, err)
	res.Body.Close()
	assert.Len(t, res.Header.Get(portal.RequestIDHeaderName), 36)
}

func TestArticleListShapes(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	res, err := http.Get(ts.URL + "/api/articles")
	require.NoError(t, err)
	env := decodeEnvelope(t, res)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Len(t, list, 3)

	res, err = http.Get(ts.URL + "/api/articles?page=2&limit=2")
	require.NoError(t, err)
	env = decodeEnvelope(t, res)
	var page struct {
		Items []map[string]any `json:"items"`
		Meta  struct {
			Page       int `json:"page"`
			Limit      int `json:"limit"`
			TotalItems int `json:"total_items"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Meta.Page)
	assert.Equal(t, 3, page.Meta.TotalItems)
	assert.Equal(t, 2, page.Meta.TotalPages)

	res, err = http.Get(ts.URL + "/api/articles?page=1537228672809129303&limit=6")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, res.StatusCode)
	env = decodeEnvelope(t, res)
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 3, page.Meta.TotalItems)

	res, err = http.Get(ts.URL + "/api/articles/slug/kegiatan-ramadhan-di-pondok")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	res.Body.Close()

	res, err = http.Get(ts.URL + "/api/articles/slug/missing")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	res.Body.Close()
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRPS = 1
	cfg.RateLimitBurst = 1
	_, ts := newTestServer(t, cfg)

	first, err := http.Get(ts.URL + "/api/articles")
	require.NoError(t, err)
	first.Body.Close()
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second, err := http.Get(ts.URL + "/api/articles")
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)
	env := decodeEnvelope(t, second)
	assert.False(t, env.Status)
}
