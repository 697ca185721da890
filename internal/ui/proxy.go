package ui

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apperrors"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/response"
)

// newAPIProxy forwards /api/<path>?<query> to <backendURL>/<path>?<query>.
// Method, body, cookies and the request id travel unchanged. Set-Cookie and X-Request-ID come back
// unchanged so the backend session cookies land on the ui origin.
func newAPIProxy(backendURL string, log *slog.Logger) (http.Handler, error) {
	target, err := url.Parse(backendURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", backendURL, err)
	}
	basePath := strings.TrimRight(target.Path, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = portal.ProxyTimeout

	proxy := &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			rest := strings.TrimPrefix(pr.In.URL.Path, portal.DefaultProxyPath)

			pr.Out.URL.Scheme = target.Scheme
			pr.Out.URL.Host = target.Host
			pr.Out.URL.Path = basePath + "/" + strings.TrimLeft(rest, "/")
			pr.Out.URL.RawPath = ""
			pr.Out.Host = ""
			pr.Out.Header.Set(portal.RequestIDHeaderName, chimiddleware.GetReqID(pr.In.Context()))
			pr.SetXForwarded()
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ContextRequestLogger(r.Context()).Error("backend request failed",
				slog.String("component", "ui.proxy"),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("error", err.Error()),
			)
			w.Header().Set(portal.RequestIDHeaderName, chimiddleware.GetReqID(r.Context()))
			response.RespondWithError(w, r, http.StatusBadGateway, apperrors.ErrCodeBackendUnavailable, "Backend unavailable")
		},
		ErrorLog: slog.NewLogLogger(log.Handler(), slog.LevelError),
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the backend echoes the forwarded request id
		w.Header().Del(portal.RequestIDHeaderName)
		proxy.ServeHTTP(w, r)
	}), nil
}
