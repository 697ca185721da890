package apiclient

import (
	"context"
	"log/slog"
	"net/http"

	portal "github.com/pondok-digital/portal"
)

type csrfResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// FetchCSRFToken asks the backend for a CSRF token (GET /csrf).
//
// It never returns an error: any failure is logged and reported as "". Server mode
// clients skip CSRF entirely and always get "".
//
// Concurrent callers each fetch their own token.
func (c *Client) FetchCSRFToken(ctx context.Context) string {
	if c.mode != ModeBrowser {
		return ""
	}

	req := NewRequest(http.MethodGet, portal.CSRFPath, nil)
	stampRequestID(ctx, req)

	res, err := c.dispatch(ctx, req)
	if err != nil {
		c.logger.Warn("could not fetch csrf token", slog.String("error", err.Error()))
		return ""
	}
	if !res.OK() {
		c.logger.Warn("could not fetch csrf token",
			slog.Int("status", res.StatusCode),
			slog.String("request_id", res.RequestID),
		)
		return ""
	}

	var body csrfResponse
	if err := res.JSON(&body); err != nil {
		c.logger.Warn("could not decode csrf token response", slog.String("error", err.Error()))
		return ""
	}
	if body.CSRFToken == "" {
		c.logger.Warn("csrf endpoint returned an empty token", slog.String("request_id", res.RequestID))
	}
	return body.CSRFToken
}
