// Package cli implements portalctl, the interactive admin client for the portal.
//
// portalctl behaves like the browser: it talks to the UI server's same-origin /api proxy
// with a cookie jar, so every call goes through the browser-mode api client (CSRF tokens,
// session expiry, rate limit and server error notifications, the loading signal). The
// cookies are persisted between invocations in the session file.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/net/publicsuffix"

	"github.com/pondok-digital/portal/internal/apiclient"
	"github.com/pondok-digital/portal/internal/config"
	"github.com/pondok-digital/portal/internal/events"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/uistate"
	"github.com/pondok-digital/portal/internal/version"
)

var errNotLoggedIn = errors.New("not logged in, run 'portalctl login' first")

// Options configure the root command
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Config is loaded from the environment when nil
	Config *config.CLIConfig

	// Args replaces the process arguments when not nil
	Args []string

	// Interactive shows the loading spinner and allows password prompts. Set it when stderr is a terminal.
	Interactive bool
}

// app is the state shared by the commands of one invocation
type app struct {
	opts   Options
	cfg    *config.CLIConfig
	logger *slog.Logger

	store   *uistate.SessionStore
	session *uistate.Session
	jar     http.CookieJar

	loading  *uistate.Loading
	bus      *events.Bus
	client   *apiclient.Client
	services *services.Services

	toasts *toaster

	// set when the stored session was removed during this invocation
	sessionCleared bool

	cleanup []func()
}

func NewRootCommand(opts Options) *cobra.Command {
	cmd, _ := newRoot(opts)
	return cmd
}

func newRoot(opts Options) (*cobra.Command, *app) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Err == nil {
		opts.Err = os.Stderr
	}
	a := &app{opts: opts}

	var portalURL string

	cmd := &cobra.Command{
		Use:   "portalctl",
		Short: "Pondok pesantren portal admin client",
		Long: `portalctl manages the portal content from the terminal.

It signs in through the portal UI server like a browser does and keeps the
session in a local file between invocations.`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(portalURL)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.persist()
		},
	}
	cmd.SetIn(opts.In)
	cmd.SetOut(opts.Out)
	cmd.SetErr(opts.Err)

	cmd.PersistentFlags().StringVar(&portalURL, "portal-url", "", "portal UI server origin (overrides PORTAL_URL)")

	cmd.AddCommand(
		a.newLoginCommand(),
		a.newLogoutCommand(),
		a.newWhoamiCommand(),
		a.newArticlesCommand(),
		a.newMessagesCommand(),
		a.newRegistrantsCommand(),
		a.newContactCommand(),
		a.newStatsCommand(),
	)
	return cmd, a
}

// Execute runs portalctl with the process arguments and returns the exit code
func Execute(ctx context.Context, opts Options) int {
	cmd, a := newRoot(opts)
	defer a.close()
	if opts.Args != nil {
		cmd.SetArgs(opts.Args)
	}

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	errOut := opts.Err
	if errOut == nil {
		errOut = os.Stderr
	}
	newToaster(errOut).print(events.Notification{Level: events.LevelError, Title: "Error", Message: FormatError(err)})
	return 1
}

func (a *app) setup(portalURL string) error {
	cfg := a.opts.Config
	if cfg == nil {
		var err error
		cfg, err = config.NewCLIConfig()
		if err != nil {
			return err
		}
	}
	if portalURL != "" {
		cfg.PortalURL = strings.TrimRight(portalURL, "/")
	}
	a.cfg = cfg
	a.logger = logger.NewTextLogger(a.opts.Err, logger.ParseLogLevel(cfg.LogLevel))

	path := cfg.SessionFile
	if path == "" {
		var err error
		path, err = uistate.DefaultSessionPath()
		if err != nil {
			return err
		}
	}
	a.store = uistate.NewSessionStore(path)

	session, err := a.store.Load(cfg.PortalURL)
	if err != nil {
		return err
	}
	a.session = session

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return fmt.Errorf("creating cookie jar: %w", err)
	}
	if err := session.Restore(jar); err != nil {
		return err
	}
	a.jar = jar

	a.loading = uistate.NewLoading()
	a.bus = events.NewBus()
	a.toasts = newToaster(a.opts.Err)

	a.cleanup = append(a.cleanup, a.bus.Subscribe(a.handleEvent))
	if a.opts.Interactive {
		spinner := newLoadingOverlay(a.opts.Err, "Loading")
		a.cleanup = append(a.cleanup, a.loading.Subscribe(spinner.set), spinner.stop)
	}

	client, err := apiclient.New(apiclient.Options{
		Origin:     cfg.PortalURL,
		ProxyPath:  cfg.ProxyPath,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		Jar:        jar,
		Logger:     a.logger,
		Loading:    a.loading,
		Events:     a.bus,
	})
	if err != nil {
		return err
	}
	a.client = client
	a.services = services.New(client)

	a.logger.Debug("portalctl ready",
		slog.String("portal_url", cfg.PortalURL),
		slog.String("session_file", a.store.Path()),
		slog.Bool("logged_in", session.LoggedIn()),
	)
	return nil
}

// handleEvent applies the global side effects published by the api client
func (a *app) handleEvent(e events.Event) {
	switch ev := e.(type) {
	case events.SessionExpired:
		if err := a.clearSession(); err != nil {
			a.logger.Warn("could not remove the session file", slog.String("error", err.Error()))
		}
		a.toasts.print(events.Notification{
			Level:   events.LevelWarning,
			Title:   "Session expired",
			Message: "Run 'portalctl login' to sign in again.",
		})
	case events.Notification:
		a.toasts.print(ev)
	}
}

func (a *app) clearSession() error {
	a.sessionCleared = true
	a.session = &uistate.Session{Origin: a.cfg.PortalURL}
	return a.store.Clear()
}

// persist saves the cookies of a signed-in session after a successful command
func (a *app) persist() error {
	defer a.close()

	if a.sessionCleared || !a.session.LoggedIn() {
		return nil
	}
	if err := a.session.Capture(a.jar); err != nil {
		return err
	}
	return a.store.Save(a.session)
}

func (a *app) close() {
	if a == nil {
		return
	}
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
	a.cleanup = nil
}

func (a *app) requireSession() error {
	if !a.session.LoggedIn() {
		return errNotLoggedIn
	}
	return nil
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q: expected a positive number", arg)
	}
	return uint(id), nil
}

// FormatError renders err for the terminal: the user message followed by any field errors
func FormatError(err error) string {
	var userErr interface{ UserError() string }
	if !errors.As(err, &userErr) {
		// flag, argument and local errors
		return err.Error()
	}

	var b strings.Builder
	b.WriteString(userErr.UserError())

	var httpErr *apiclient.HTTPError
	if errors.As(err, &httpErr) {
		for _, line := range httpErr.FieldErrors() {
			b.WriteString("\n  - " + line)
		}
		if httpErr.RequestID != "" {
			b.WriteString("\nrequest id: " + httpErr.RequestID)
		}
	}
	return b.String()
}
