package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apperrors"
	"github.com/pondok-digital/portal/internal/context"
	"github.com/pondok-digital/portal/internal/logger"
	"github.com/pondok-digital/portal/internal/response"
)

// RequireAuth checks the access token cookie and adds the principal to the request context
func (a *AuthService) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(portal.AuthTokenCookieName)
		if err != nil || cookie.Value == "" {
			response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeAuthenticationFailure, "Unauthorized")
			return
		}

		claims, err := a.ValidateAccessToken(cookie.Value)
		if errors.Is(err, ErrTokenExpired) {
			response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Session expired")
			return
		}
		if err != nil {
			response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Unauthorized")
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Unauthorized")
			return
		}

		logger.ContextWithLogAttrs(r.Context(), slog.Uint64("user_id", uint64(userID)))

		ctx := context.WithPrincipal(r.Context(), context.Principal{
			UserID:   userID,
			Username: claims.Username,
			Role:     claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole must run after RequireAuth
func (a *AuthService) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := context.PrincipalFrom(r.Context())
			if !ok {
				response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeAuthenticationFailure, "Unauthorized")
				return
			}
			if !slices.Contains(roles, p.Role) {
				response.RespondWithError(w, r, http.StatusForbidden, apperrors.ErrCodeForbidden, "Forbidden")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCSRF rejects mutating requests whose X-CSRF-TOKEN header does not match the csrf session cookie
func (a *AuthService) RequireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		default:
			next.ServeHTTP(w, r)
			return
		}

		var session string
		if cookie, err := r.Cookie(portal.CSRFSessionCookieName); err == nil {
			session = cookie.Value
		}

		if !a.ValidCSRFToken(session, r.Header.Get(portal.CSRFHeaderName)) {
			logger.ContextWithLogAttrs(r.Context(), slog.Bool("csrf_session_present", session != ""))
			response.RespondWithError(w, r, http.StatusForbidden, apperrors.ErrCodeCSRFMismatch, "CSRF token mismatch")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OptionalAuth adds the principal when a valid access token cookie is present and never rejects the request.
// Public endpoints use it to show unpublished content to admins.
func (a *AuthService) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(portal.AuthTokenCookieName)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := a.ValidateAccessToken(cookie.Value)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithPrincipal(r.Context(), context.Principal{
			UserID:   userID,
			Username: claims.Username,
			Role:     claims.Role,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
