package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/events"
)

// requestStage prepares a request before its first dispatch
type requestStage func(ctx context.Context, req *Request)

// responseStage inspects a non-2xx response. Returning true re-dispatches the request.
// Stages run in order and the first stage that asks for a retry ends the pass.
type responseStage func(ctx context.Context, req *Request, res *Response) (retry bool)

// requests to these paths report bad credentials or token problems with 401, not an expired session
var sessionExemptPaths = map[string]bool{
	portal.LoginPath: true,
	"/logout":        true,
	"/refresh":       true,
	portal.CSRFPath:  true,
}

// pipeline returns the stages for the client mode.
//
//	request:  request id -> csrf attach (browser)
//	response: csrf retry -> session expiry -> rate limit notice -> server error notice (browser)
//
// Any response left unhandled is returned to the caller as an *HTTPError.
func (c *Client) pipeline() ([]requestStage, []responseStage) {
	if c.mode != ModeBrowser {
		return []requestStage{stampRequestID}, nil
	}

	return []requestStage{
			stampRequestID,
			c.attachCSRF,
		}, []responseStage{
			c.retryCSRF,
			c.expireSession,
			c.noticeRateLimit,
			c.noticeServerError,
		}
}

func stampRequestID(_ context.Context, req *Request) {
	if req.Header.Get(portal.RequestIDHeaderName) == "" {
		req.Header.Set(portal.RequestIDHeaderName, uuid.NewString())
	}
}

// attachCSRF fetches a token for mutating verbs that do not already carry one.
// A failed fetch leaves the request without the header and the backend decides.
func (c *Client) attachCSRF(ctx context.Context, req *Request) {
	if !req.mutating() || req.Header.Get(portal.CSRFHeaderName) != "" {
		return
	}
	c.setCSRFToken(req, c.FetchCSRFToken(ctx))
}

func (c *Client) setCSRFToken(req *Request, token string) {
	if token == "" {
		req.Header.Del(portal.CSRFHeaderName)
		return
	}
	req.Header.Set(portal.CSRFHeaderName, token)
	req.credentialed = true
}

// retryCSRF re-dispatches a mutating request rejected with 403 once, with a freshly fetched token.
// Read verbs never carry a token, so a 403 on them is returned as is.
// retried is set before the re-dispatch so a second 403 falls through to the caller.
func (c *Client) retryCSRF(ctx context.Context, req *Request, res *Response) bool {
	if res.StatusCode != http.StatusForbidden || !req.mutating() || req.retried {
		return false
	}
	req.retried = true

	c.logger.Debug("csrf rejected, retrying with a new token",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("request_id", res.RequestID),
	)
	c.setCSRFToken(req, c.FetchCSRFToken(ctx))
	return true
}

// expireSession publishes SessionExpired for the first 401 of the session epoch.
// Sibling calls failing with 401 afterwards only return their error.
func (c *Client) expireSession(_ context.Context, req *Request, res *Response) bool {
	if res.StatusCode != http.StatusUnauthorized || sessionExemptPaths["/"+strings.Trim(req.Path, "/")] {
		return false
	}
	if !c.sessionExpired.CompareAndSwap(false, true) {
		return false
	}

	c.logger.Warn("session expired",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.String("request_id", res.RequestID),
	)
	c.events.Publish(events.SessionExpired{
		LoginPath: c.loginPath,
		Method:    req.Method,
		Path:      req.Path,
	})
	return false
}

func (c *Client) noticeRateLimit(_ context.Context, req *Request, res *Response) bool {
	if res.StatusCode != http.StatusTooManyRequests {
		return false
	}
	c.logger.Warn("rate limited", slog.String("method", req.Method), slog.String("path", req.Path))
	c.events.Publish(events.Notification{
		Level:   events.LevelWarning,
		Title:   "Rate limited",
		Message: portal.RateLimitedMessage,
	})
	return false
}

func (c *Client) noticeServerError(_ context.Context, req *Request, res *Response) bool {
	if res.StatusCode < http.StatusInternalServerError {
		return false
	}
	c.logger.Error("server error",
		slog.String("method", req.Method),
		slog.String("path", req.Path),
		slog.Int("status", res.StatusCode),
		slog.String("request_id", res.RequestID),
	)
	c.events.Publish(events.Notification{
		Level:   events.LevelError,
		Title:   "Server error",
		Message: portal.ServerErrorMessage,
	})
	return false
}
