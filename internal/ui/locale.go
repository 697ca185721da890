package ui

import (
	"context"
	"net/http"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/text/language"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/auth"
)

const localeCookieName = "portal_locale"

var (
	localeTags    = []language.Tag{language.Indonesian, language.English}
	localeMatcher = language.NewMatcher(localeTags)

	// paths served without a locale prefix
	unlocalizedPrefixes = []string{portal.DefaultProxyPath + "/", "/health", "/version", "/static/"}
)

type localeKey struct{}

func localeFrom(ctx context.Context) (string, bool) {
	locale, ok := ctx.Value(localeKey{}).(string)
	return locale, ok
}

func isLocale(s string) bool {
	return slices.Contains(portal.Locales, s)
}

// splitLocale splits "/en/articles" into "en" and "/articles"
func splitLocale(p string) (locale, rest string, ok bool) {
	trimmed := strings.TrimPrefix(p, "/")
	locale, rest, _ = strings.Cut(trimmed, "/")
	if !isLocale(locale) {
		return "", p, false
	}
	rest = "/" + rest
	if len(rest) > 1 {
		rest = strings.TrimSuffix(rest, "/")
	}
	return locale, rest, true
}

// negotiateLocale prefers the locale cookie, then Accept-Language, then the default locale
func negotiateLocale(r *http.Request) string {
	if c, err := r.Cookie(localeCookieName); err == nil && isLocale(c.Value) {
		return c.Value
	}

	tags, _, _ := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	tag, _, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return portal.DefaultLocale
	}
	base, _ := tag.Base()
	if !isLocale(base.String()) {
		return portal.DefaultLocale
	}
	return base.String()
}

func isProtected(rest string) bool {
	for _, p := range portal.ProtectedPaths {
		if rest == p || strings.HasPrefix(rest, p+"/") {
			return true
		}
	}
	return false
}

// sessionClaims reads the auth cookie without verifying its signature. The backend verifies the
// token on every api call; the ui only needs to know whether a session is plausibly present.
func sessionClaims(r *http.Request) (*auth.Claims, bool) {
	cookie, err := r.Cookie(portal.AuthTokenCookieName)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	claims := &auth.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(cookie.Value, claims); err != nil {
		return nil, false
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		return nil, false
	}
	return claims, true
}

// LocaleRouting redirects page requests without a locale prefix to the negotiated locale and
// sends protected admin pages to the login page when there is no session cookie.
func LocaleRouting(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		for _, prefix := range unlocalizedPrefixes {
			if strings.HasPrefix(p, prefix) || p == strings.TrimSuffix(prefix, "/") {
				next.ServeHTTP(w, r)
				return
			}
		}
		// files such as favicon.ico
		if strings.Contains(path.Base(p), ".") {
			next.ServeHTTP(w, r)
			return
		}

		locale, rest, ok := splitLocale(p)
		if !ok {
			target := "/" + negotiateLocale(r)
			if p != "/" {
				target += p
			}
			if r.URL.RawQuery != "" {
				target += "?" + r.URL.RawQuery
			}
			http.Redirect(w, r, target, http.StatusTemporaryRedirect)
			return
		}

		if isProtected(rest) {
			if _, ok := sessionClaims(r); !ok {
				http.Redirect(w, r, "/"+locale+portal.LoginPath, http.StatusSeeOther)
				return
			}
		}

		http.SetCookie(w, &http.Cookie{
			Name:     localeCookieName,
			Value:    locale,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			SameSite: http.SameSiteLaxMode,
		})
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), localeKey{}, locale)))
	})
}
