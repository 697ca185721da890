// Package auth issues and checks the credentials used by the development backend:
// bcrypt password hashes, HS256 access and refresh tokens carried in HttpOnly cookies and
// CSRF tokens bound to a csrf session cookie.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/helpers"
	"github.com/pondok-digital/portal/internal/services"
	"golang.org/x/crypto/bcrypt"
)

const (
	accessAudience  = "access"
	refreshAudience = "refresh"
)

var ErrTokenExpired = errors.New("token expired")

type AuthService struct {
	secretKey string
}

func NewAuthService(secretKey string) *AuthService {
	return &AuthService{secretKey: secretKey}
}

// Claims carried by access and refresh tokens. The subject is the user id.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (uint, error) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse user id in token: %w", err)
	}
	return uint(id), nil
}

func (a *AuthService) HashPassword(password string) (string, error) {
	dat, err := bcrypt.GenerateFromPassword([]byte(password), portal.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(dat), nil
}

func (a *AuthService) CheckPasswordHash(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// GenerateAccessToken creates a JWT signed with HS256 for user
func (a *AuthService) GenerateAccessToken(user services.User, expiresIn time.Duration) (string, error) {
	return a.sign(user, accessAudience, expiresIn)
}

// GenerateRefreshToken creates a longer lived token only accepted by the refresh endpoint
func (a *AuthService) GenerateRefreshToken(user services.User, expiresIn time.Duration) (string, error) {
	return a.sign(user, refreshAudience, expiresIn)
}

func (a *AuthService) sign(user services.User, audience string, expiresIn time.Duration) (string, error) {
	issuedAt := time.Now()

	claims := &Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    portal.TokenIssuerName,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(expiresIn)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.secretKey))
	if err != nil {
		return "", fmt.Errorf("could not sign JWT: %w", err)
	}
	return signed, nil
}

// ValidateAccessToken checks the signature, expiry and audience of an access token
func (a *AuthService) ValidateAccessToken(tokenString string) (*Claims, error) {
	return a.validate(tokenString, accessAudience)
}

func (a *AuthService) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return a.validate(tokenString, refreshAudience)
}

func (a *AuthService) validate(tokenString, audience string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return []byte(a.secretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(portal.TokenIssuerName),
		jwt.WithAudience(audience),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	return claims, nil
}

// NewCSRFSession returns a random session id for the csrf session cookie
func (a *AuthService) NewCSRFSession() (string, error) {
	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("error creating csrf session: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// CSRFToken derives the token for a csrf session
func (a *AuthService) CSRFToken(session string) string {
	mac := hmac.New(sha256.New, []byte(a.secretKey))
	mac.Write([]byte("csrf:" + session))
	return hex.EncodeToString(mac.Sum(nil))
}

func (a *AuthService) ValidCSRFToken(session, token string) bool {
	if session == "" || token == "" {
		return false
	}
	return hmac.Equal([]byte(a.CSRFToken(session)), []byte(token))
}

func (a *AuthService) newCookie(r *http.Request, name, value string, maxAge time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   helpers.GetScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
	}
}

// SetAuthCookies stores the access and refresh tokens in HttpOnly cookies
func (a *AuthService) SetAuthCookies(w http.ResponseWriter, r *http.Request, accessToken, refreshToken string) {
	http.SetCookie(w, a.newCookie(r, portal.AuthTokenCookieName, accessToken, portal.AccessTokenExpiry))
	http.SetCookie(w, a.newCookie(r, portal.RefreshCookieName, refreshToken, portal.RefreshTokenExpiry))
}

func (a *AuthService) ClearAuthCookies(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{portal.AuthTokenCookieName, portal.RefreshCookieName} {
		c := a.newCookie(r, name, "", 0)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

func (a *AuthService) SetCSRFSessionCookie(w http.ResponseWriter, r *http.Request, session string) {
	http.SetCookie(w, a.newCookie(r, portal.CSRFSessionCookieName, session, portal.CSRFSessionExpiry))
}
