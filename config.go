package portal

import "time"

/*
shared constants for the portal binaries:
  - wire contract with the backend API (header names, fixed endpoints, cookie names)
  - locale routing settings
  - operational timeouts

configuration loaded from the environment lives in internal/config.
*/

const (
	// backend contract
	CSRFHeaderName      = "X-CSRF-TOKEN"
	RequestIDHeaderName = "X-Request-ID"
	CSRFPath            = "/csrf"
	LoginPath           = "/login"
	DefaultProxyPath    = "/api"

	// cookies set by the backend
	AuthTokenCookieName   = "auth_token"
	RefreshCookieName     = "refresh_token"
	CSRFSessionCookieName = "csrf_session"

	// user facing notification copy
	RateLimitedMessage = "Too many requests. Please try again in a few moments."
	ServerErrorMessage = "Server error. Please try again later."

	// Security & Auth constants
	BcryptCost         = 10
	AccessTokenExpiry  = 60 * time.Minute
	RefreshTokenExpiry = 7 * 24 * time.Hour
	CSRFSessionExpiry  = 24 * time.Hour
	TokenIssuerName    = "portal"

	// Operational timeouts
	ServerShutdownTimeout = 10 * time.Second
	ProxyTimeout          = 30 * time.Second

	// Request limits
	MaxAPIRequestSize = 1 << 20 // 1MB

	// locale routing
	DefaultLocale = "id"

	// article excerpts shown on list pages
	ExcerptLength = 150
)

// Locales supported by the portal, the first entry is the default
var Locales = []string{"id", "en"}

// ProtectedPaths are admin pages that require the auth cookie (checked without the locale prefix)
var ProtectedPaths = []string{"/dashboard", "/students", "/registrants", "/users", "/gallery"}

var ValidEnvs = map[string]bool{
	"dev":     true,
	"test":    true,
	"staging": true,
	"prod":    true,
}

var ValidRegistrantStatuses = map[string]bool{ // santri.status
	"PENDING":  true,
	"VERIFIED": true,
	"ACCEPTED": true,
	"REJECTED": true,
}

var ValidRoles = map[string]bool{ // users.role
	"super_admin": true,
	"admin":       true,
}
