// Package apiclient is the single gateway every portal service call flows through.
//
// The client runs in one of two modes, resolved once at construction:
//
//   - server mode: in-process callers (the portal UI server rendering pages) talk to the
//     backend over the trusted direct url. No CSRF, loading signal or global side effects.
//   - browser mode: an interactive user agent talks to the same-origin /api proxy with the
//     user's cookies. Mutating calls carry a CSRF token, a 403 is retried once with a fresh
//     token, a 401 publishes events.SessionExpired, 429 and 5xx publish a notification and
//     the global loading signal is held while the call is in flight.
//
// The cross-cutting behaviour is an explicit ordered pipeline of request and response
// stages (see pipeline.go) rather than implicit interceptors.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/events"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/uistate"
	"golang.org/x/net/publicsuffix"
)

const DefaultTimeout = 30 * time.Second

type Mode int

const (
	ModeAuto Mode = iota
	ModeServer
	ModeBrowser
)

func (m Mode) String() string {
	switch m {
	case ModeServer:
		return "server"
	case ModeBrowser:
		return "browser"
	default:
		return "auto"
	}
}

// Options configure a Client. Only BackendURL (server mode) or Origin (browser mode) is required.
type Options struct {
	// ModeAuto selects browser mode when Origin is set, otherwise server mode
	Mode Mode

	// direct backend url including the api prefix, e.g. http://localhost:8080/api
	BackendURL string

	// url of the portal UI server the user agent is attached to, e.g. http://localhost:3000
	Origin string

	// same-origin proxy path, defaults to /api
	ProxyPath string

	HTTPClient *http.Client

	// browser mode cookie store. A public-suffix aware jar is created when nil.
	Jar http.CookieJar

	Logger *slog.Logger

	// browser mode only: shared loading signal and event bus. A private loading signal is created when nil.
	Loading *uistate.Loading
	Events  *events.Bus

	// login entry point announced in SessionExpired events, defaults to /login
	LoginPath string
}

// Client is safe for concurrent use and is intended to be created once per process.
type Client struct {
	mode       Mode
	baseURL    string
	httpClient *http.Client
	jar        http.CookieJar
	logger     *slog.Logger
	loading    *uistate.Loading
	events     *events.Bus
	loginPath  string

	// set by the first 401 of a session epoch, cleared by ResetSession
	sessionExpired atomic.Bool

	requestStages  []requestStage
	responseStages []responseStage
}

// New resolves the mode and base url and assembles the pipeline for that mode.
func New(opts Options) (*Client, error) {
	mode := opts.Mode
	if mode == ModeAuto {
		if opts.Origin != "" {
			mode = ModeBrowser
		} else {
			mode = ModeServer
		}
	}

	c := &Client{
		mode:      mode,
		logger:    opts.Logger,
		loginPath: opts.LoginPath,
	}
	if c.logger == nil {
		c.logger = logger.Discard()
	}
	c.logger = c.logger.With(slog.String("component", "apiclient"), slog.String("mode", mode.String()))
	if c.loginPath == "" {
		c.loginPath = portal.LoginPath
	}

	switch mode {
	case ModeServer:
		base, err := parseBaseURL(opts.BackendURL)
		if err != nil {
			return nil, fmt.Errorf("invalid backend url: %w", err)
		}
		c.baseURL = base
	case ModeBrowser:
		origin, err := parseBaseURL(opts.Origin)
		if err != nil {
			return nil, fmt.Errorf("invalid origin: %w", err)
		}
		proxyPath := opts.ProxyPath
		if proxyPath == "" {
			proxyPath = portal.DefaultProxyPath
		}
		c.baseURL = origin + "/" + strings.Trim(proxyPath, "/")
	default:
		return nil, fmt.Errorf("unknown client mode %d", mode)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	if mode == ModeBrowser {
		jar := opts.Jar
		if jar == nil {
			jar = httpClient.Jar
		}
		if jar == nil {
			var err error
			jar, err = cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
			if err != nil {
				return nil, fmt.Errorf("creating cookie jar: %w", err)
			}
		}
		c.jar = jar

		// cookies are attached by dispatch, the transport must not apply them a second time
		if httpClient.Jar != nil {
			clone := *httpClient
			clone.Jar = nil
			httpClient = &clone
		}

		c.loading = opts.Loading
		if c.loading == nil {
			c.loading = uistate.NewLoading()
		}
		c.events = opts.Events
	}
	c.httpClient = httpClient

	c.requestStages, c.responseStages = c.pipeline()
	return c, nil
}

func parseBaseURL(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", raw)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

func (c *Client) Mode() Mode {
	return c.mode
}

// BaseURL is the url every request path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Loading returns the loading signal held while calls are in flight (nil in server mode)
func (c *Client) Loading() *uistate.Loading {
	return c.loading
}

// Jar returns the cookie store used in browser mode (nil in server mode)
func (c *Client) Jar() http.CookieJar {
	return c.jar
}

// ResetSession starts a new session epoch so the next 401 publishes SessionExpired again.
// Call it after a successful login.
func (c *Client) ResetSession() {
	c.sessionExpired.Store(false)
}

// Send dispatches req through the pipeline.
//
// On 2xx it returns the response. Otherwise it returns *HTTPError for the final response,
// or *ConnectionError when no response was received. The loading hold taken in browser
// mode is released on every return path.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("apiclient: nil request")
	}

	if c.loading != nil {
		release := c.loading.Begin()
		defer release()
	}

	if err := req.encode(); err != nil {
		return nil, err
	}

	for _, stage := range c.requestStages {
		stage(ctx, req)
	}

	for {
		res, err := c.dispatch(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.OK() {
			return res, nil
		}
		if !c.settle(ctx, req, res) {
			return nil, newHTTPError(req, res)
		}
	}
}

// settle runs the response stages for a failed response and reports whether req should be re-dispatched
func (c *Client) settle(ctx context.Context, req *Request, res *Response) (retry bool) {
	for _, stage := range c.responseStages {
		if stage(ctx, req, res) {
			return true
		}
	}
	return false
}

func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	req := NewRequest(http.MethodGet, path, nil)
	req.Query = query
	return c.Send(ctx, req)
}

func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, NewRequest(http.MethodPost, path, body))
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, NewRequest(http.MethodPut, path, body))
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Send(ctx, NewRequest(http.MethodPatch, path, body))
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Send(ctx, NewRequest(http.MethodDelete, path, nil))
}

func (c *Client) resolve(req *Request) string {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		sep := "?"
		if strings.Contains(target, "?") {
			sep = "&"
		}
		target += sep + req.Query.Encode()
	}
	return target
}

// dispatch performs exactly one network call and reads the whole response
func (c *Client) dispatch(ctx context.Context, req *Request) (*Response, error) {
	var body io.Reader
	if req.payload != nil {
		body = bytes.NewReader(req.payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.resolve(req), body)
	if err != nil {
		return nil, fmt.Errorf("creating %s %s request: %w", req.Method, req.Path, err)
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.jar != nil {
		for _, cookie := range c.jar.Cookies(httpReq.URL) {
			httpReq.AddCookie(cookie)
		}
	}

	start := time.Now()
	httpRes, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.String("error", err.Error()),
		)
		return nil, &ConnectionError{Method: req.Method, Path: req.Path, Err: err}
	}
	defer httpRes.Body.Close()

	if c.jar != nil {
		if cookies := httpRes.Cookies(); len(cookies) > 0 {
			c.jar.SetCookies(httpReq.URL, cookies)
		}
	}

	data, err := io.ReadAll(httpRes.Body)
	if err != nil {
		return nil, &ConnectionError{Method: req.Method, Path: req.Path, Err: fmt.Errorf("reading response body: %w", err)}
	}

	res := &Response{
		StatusCode: httpRes.StatusCode,
		Header:     httpRes.Header,
		Body:       data,
		RequestID:  httpRes.Header.Get(portal.RequestIDHeaderName),
	}
	if res.RequestID == "" {
		res.RequestID = req.requestID()
	}

	c.logger.Debug("request completed",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", res.StatusCode),
		slog.String("request_id", res.RequestID),
		slog.Bool("retried", req.retried),
		slog.Duration("duration", time.Since(start)),
	)
	return res, nil
}
