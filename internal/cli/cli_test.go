package cli

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/mockapi"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/uistate"
	"github.com/pondok-digital/portal/internal/validation"
)

type harness struct {
	t           *testing.T
	portalURL   string
	sessionFile string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	backend, err := mockapi.NewServer(&config.MockAPIConfig{
		Environment:       "test",
		Host:              "127.0.0.1",
		Port:              8080,
		SecretKey:         strings.Repeat("c", 32),
		AdminUsername:     "admin",
		AdminPassword:     "admin123",
		AllowedOrigins:    []string{"http://localhost:3000"},
		SeedContent:       true,
		MaxAPIRequestSize: portal.MaxAPIRequestSize,
	}, logger.Discard())
	require.NoError(t, err)

	ts := httptest.NewServer(backend.Handler())
	t.Cleanup(ts.Close)

	return &harness{
		t:           t,
		portalURL:   ts.URL,
		sessionFile: filepath.Join(t.TempDir(), "portalctl", "session.json"),
	}
}

// run executes one portalctl invocation, each with a fresh process state
func (h *harness) run(args ...string) (stdout, stderr string, err error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(Options{
		In:  strings.NewReader(""),
		Out: &out,
		Err: &errOut,
		Config: &config.CLIConfig{
			PortalURL:   h.portalURL,
			ProxyPath:   portal.DefaultProxyPath,
			SessionFile: h.sessionFile,
			LogLevel:    "error",
			Timeout:     5 * time.Second,
		},
	})
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) login() {
	h.t.Helper()
	_, stderr, err := h.run("login", "--username", "admin", "--password", "admin123")
	require.NoError(h.t, err)
	require.Contains(h.t, stderr, "Signed in as admin (super_admin)")
}

func (h *harness) sessionExists() bool {
	_, err := os.Stat(h.sessionFile)
	return !errors.Is(err, fs.ErrNotExist)
}

func TestLoginPersistsTheSession(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", stdout)

	h.login()
	assert.True(t, h.sessionExists())

	stdout, _, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "admin (super_admin) on "+h.portalURL+"\n", stdout)

	// a later invocation reuses the stored cookies
	stdout, _, err = h.run("stats")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Santri")
	assert.Contains(t, stdout, "3")

	_, stderr, err := h.run("logout")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Signed out")
	assert.False(t, h.sessionExists())

	stdout, _, err = h.run("whoami")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", stdout)
}

func TestLoginFailures(t *testing.T) {
	h := newHarness(t)

	t.Run("wrong password", func(t *testing.T) {
		_, stderr, err := h.run("login", "-u", "admin", "-p", "wrong-password")
		require.Error(t, err)
		assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
		assert.NotContains(t, stderr, "Session expired")
		assert.False(t, h.sessionExists())
	})

	t.Run("password required without a terminal", func(t *testing.T) {
		_, _, err := h.run("login", "-u", "admin")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "--password is required")
	})

	t.Run("username required", func(t *testing.T) {
		_, _, err := h.run("login", "-p", "admin123")
		require.Error(t, err)
	})
}

func TestAdminCommandsNeedASession(t *testing.T) {
	h := newHarness(t)

	for _, args := range [][]string{
		{"stats"},
		{"messages", "list"},
		{"registrants", "list"},
		{"articles", "delete", "1"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			_, _, err := h.run(args...)
			assert.ErrorIs(t, err, errNotLoggedIn)
		})
	}
}

func TestExpiredSessionIsCleared(t *testing.T) {
	h := newHarness(t)

	// a stored session whose token the backend no longer accepts
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(h.portalURL)
	require.NoError(t, err)
	jar.SetCookies(u, []*http.Cookie{{Name: portal.AuthTokenCookieName, Value: "expired.token.value", Path: "/"}})

	session := &uistate.Session{Origin: h.portalURL, User: &uistate.User{ID: 1, Username: "admin", Role: "super_admin"}}
	require.NoError(t, session.Capture(jar))
	require.NoError(t, uistate.NewSessionStore(h.sessionFile).Save(session))

	_, stderr, err := h.run("stats")
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, apiclient.StatusCode(err))
	assert.Contains(t, stderr, "Session expired")
	assert.Contains(t, stderr, "portalctl login")
	assert.False(t, h.sessionExists())

	lines := strings.Split(FormatError(err), "\n")
	assert.Equal(t, "Your session has ended. Please log in again.", lines[0])
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "request id: "))
	assert.Len(t, strings.TrimPrefix(lines[1], "request id: "), 36)
}

func TestArticles(t *testing.T) {
	h := newHarness(t)

	stdout, _, err := h.run("articles", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Kegiatan Ramadhan di Pondok")
	assert.Contains(t, stdout, "Page 1 of 1 (3 articles)")

	stdout, _, err = h.run("articles", "list", "--page", "2", "--limit", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Page 2 of 2 (3 articles)")

	stdout, _, err = h.run("articles", "get", "kegiatan-ramadhan-di-pondok")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Kegiatan Ramadhan di Pondok")
	assert.NotContains(t, stdout, "<p>")

	_, _, err = h.run("articles", "get", "tidak-ada")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no article with slug")

	h.login()

	_, stderr, err := h.run("articles", "create",
		"--title", "Wisuda Tahfidz Angkatan Ketujuh",
		"--content", "<p>Alhamdulillah wisuda tahfidz berjalan lancar.</p>",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "(wisuda-tahfidz-angkatan-ketujuh)")

	// drafts are listed for signed-in admins
	stdout, _, err = h.run("articles", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Page 1 of 1 (4 articles)")

	_, stderr, err = h.run("articles", "delete", "4")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Deleted article #4")

	_, _, err = h.run("articles", "delete", "4")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apiclient.StatusCode(err))

	_, _, err = h.run("articles", "delete", "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")
}

func TestContactAndInbox(t *testing.T) {
	h := newHarness(t)

	_, _, err := h.run("contact", "--name", "Ahmad")
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.FieldNames(), "email")
	assert.True(t, strings.HasPrefix(FormatError(err), "Please check your input"))

	_, stderr, err := h.run("contact",
		"--name", "Ahmad",
		"--email", "ahmad@example.com",
		"--subject", "Pendaftaran",
		"--message", "Kapan pendaftaran santri baru dibuka?",
	)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Message sent")

	h.login()

	stdout, _, err := h.run("messages", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Ahmad <ahmad@example.com>")
	assert.Contains(t, stdout, "Pendaftaran")

	_, stderr, err = h.run("messages", "read", "1")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Message #1 marked as read")

	stdout, _, err = h.run("messages", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "yes")

	_, _, err = h.run("messages", "delete", "1")
	require.NoError(t, err)

	stdout, _, err = h.run("messages", "list")
	require.NoError(t, err)
	assert.Equal(t, "No messages.\n", stdout)
}

func TestRegistrants(t *testing.T) {
	h := newHarness(t)

	client, err := apiclient.New(apiclient.Options{Origin: h.portalURL})
	require.NoError(t, err)
	err = services.New(client).Admission.Register(context.Background(), services.RegistrationInput{
		FullName:       "Muhammad Fauzan",
		NIK:            "3201010101100001",
		BirthPlace:     "Bogor",
		BirthDate:      "2012-03-14",
		Gender:         "L",
		Address:        "Jl. Pesantren No. 12, Bogor",
		FatherName:     "Abdul Rahman",
		FatherJob:      "Petani",
		MotherName:     "Siti Aminah",
		MotherJob:      "Guru",
		ParentPhone:    "081234567890",
		SchoolOrigin:   "SDN 1 Bogor",
		SchoolAddress:  "Jl. Merdeka No. 1, Bogor",
		GraduationYear: "2024",
	})
	require.NoError(t, err)

	h.login()

	stdout, _, err := h.run("registrants", "list", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Muhammad Fauzan")
	assert.Contains(t, stdout, "PENDING")

	_, stderr, err := h.run("registrants", "status", "1", "accepted")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Registrant #1 is now ACCEPTED")

	stdout, _, err = h.run("registrants", "list", "--status", "PENDING")
	require.NoError(t, err)
	assert.Equal(t, "No registrants.\n", stdout)

	_, _, err = h.run("registrants", "list", "--status", "bogus")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid status")

	_, _, err = h.run("registrants", "status", "1", "LULUS")
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestExecuteReportsErrors(t *testing.T) {
	var out, errOut bytes.Buffer
	code := Execute(context.Background(), Options{
		Out:  &out,
		Err:  &errOut,
		Args: []string{"articles", "list"},
		Config: &config.CLIConfig{
			PortalURL:   "http://127.0.0.1:1",
			ProxyPath:   portal.DefaultProxyPath,
			SessionFile: filepath.Join(t.TempDir(), "session.json"),
			LogLevel:    "error",
			Timeout:     time.Second,
		},
	})
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Unable to connect")
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "field errors",
			err: &apiclient.HTTPError{
				StatusCode: http.StatusBadRequest,
				Message:    "Validation failed",
				Errors:     map[string][]string{"title": {"is required"}, "content": {"is too short"}},
				RequestID:  "req-1",
			},
			want: "Validation failed\n  - content: is too short\n  - title: is required\nrequest id: req-1",
		},
		{
			name: "connection",
			err:  &apiclient.ConnectionError{Method: http.MethodGet, Path: "/articles", Err: errors.New("refused")},
			want: "Unable to connect. Please check your internet connection and try again.",
		},
		{
			name: "local",
			err:  errNotLoggedIn,
			want: "not logged in, run 'portalctl login' first",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatError(tt.err))
		})
	}
}
