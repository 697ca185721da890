package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	portal "github.com/pondok-digital/portal"
	"github.com/pondok-digital/portal/internal/apperrors"
	"github.com/pondok-digital/portal/internal/auth"
	"github.com/pondok-digital/portal/internal/context"
	"github.com/pondok-digital/portal/internal/response"
	"github.com/pondok-digital/portal/internal/services"
	"github.com/pondok-digital/portal/internal/store"
)

type AuthHandler struct {
	store       *store.Store
	authService *auth.AuthService
}

func NewAuthHandler(s *store.Store, authService *auth.AuthService) *AuthHandler {
	return &AuthHandler{store: s, authService: authService}
}

type LoginResponse struct {
	User         services.User `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	ExpiresIn    int64         `json:"expires_in"`
}

// CSRFHandler godoc
//
//	@Summary		CSRF token
//	@Description	Returns the token for the caller's csrf session, starting a session when the request has none.
//	@Description	Mutating requests must echo the token in the X-CSRF-TOKEN header.
//	@Tags			auth
//
//	@Success		200	{object}	map[string]string
//	@Router			/csrf [get]
func (a *AuthHandler) CSRFHandler(w http.ResponseWriter, r *http.Request) {
	var session string
	if cookie, err := r.Cookie(portal.CSRFSessionCookieName); err == nil {
		session = cookie.Value
	}

	if session == "" {
		var err error
		session, err = a.authService.NewCSRFSession()
		if err != nil {
			response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, err.Error())
			return
		}
		a.authService.SetCSRFSessionCookie(w, r, session)
	}

	// bare object, not the envelope
	response.RespondWithJSON(w, http.StatusOK, map[string]string{"csrf_token": a.authService.CSRFToken(session)})
}

// LoginHandler godoc
//
//	@Summary		Login
//	@Description	Sets the auth_token and refresh_token cookies. The tokens are also returned in the body.
//	@Tags			auth
//
//	@Param			request	body		services.LoginInput	true	"credentials"
//	@Success		200		{object}	handlers.LoginResponse
//	@Failure		400		{object}	response.Envelope	"validation_failed"
//	@Failure		401		{object}	response.Envelope	"authentication_error"
//	@Failure		429		{object}	response.Envelope	"rate_limit_exceeded"
//	@Router			/login [post]
func (a *AuthHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req services.LoginInput
	if !decodeValid(w, r, &req) {
		return
	}

	user, err := a.store.Users.Find(func(u store.User) bool {
		return strings.EqualFold(u.Username, req.Username)
	})
	if err != nil {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeAuthenticationFailure, "Invalid username or password")
		return
	}
	if err := a.authService.CheckPasswordHash(user.PasswordHash, req.Password); err != nil {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeAuthenticationFailure, "Invalid username or password")
		return
	}

	accessToken, refreshToken, ok := a.issueTokens(w, r, user.User)
	if !ok {
		return
	}

	ctx := context.WithPrincipal(r.Context(), context.Principal{UserID: user.ID, Username: user.Username, Role: user.Role})
	audit(a.store, r.WithContext(ctx), "LOGIN", "user", user.ID)

	response.RespondWithData(w, r, http.StatusOK, "Login successful", LoginResponse{
		User:         user.User,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(portal.AccessTokenExpiry.Seconds()),
	})
}

func (a *AuthHandler) issueTokens(w http.ResponseWriter, r *http.Request, user services.User) (string, string, bool) {
	accessToken, err := a.authService.GenerateAccessToken(user, portal.AccessTokenExpiry)
	if err != nil {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, err.Error())
		return "", "", false
	}
	refreshToken, err := a.authService.GenerateRefreshToken(user, portal.RefreshTokenExpiry)
	if err != nil {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, err.Error())
		return "", "", false
	}
	a.authService.SetAuthCookies(w, r, accessToken, refreshToken)
	return accessToken, refreshToken, true
}

// LogoutHandler clears the auth cookies. It succeeds whether or not the caller was logged in.
func (a *AuthHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(portal.AuthTokenCookieName); err == nil {
		if claims, err := a.authService.ValidateAccessToken(cookie.Value); err == nil {
			if id, err := claims.UserID(); err == nil {
				ctx := context.WithPrincipal(r.Context(), context.Principal{UserID: id, Username: claims.Username, Role: claims.Role})
				audit(a.store, r.WithContext(ctx), "LOGOUT", "user", id)
			}
		}
	}

	a.authService.ClearAuthCookies(w, r)
	response.RespondWithData(w, r, http.StatusOK, "Logout successful", nil)
}

// RefreshHandler godoc
//
//	@Summary		Refresh access token
//	@Description	Exchanges the refresh_token cookie for new auth cookies.
//	@Tags			auth
//
//	@Success		200
//	@Failure		401	{object}	response.Envelope	"token_invalid"
//	@Router			/refresh [post]
func (a *AuthHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(portal.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Refresh token required")
		return
	}

	claims, err := a.authService.ValidateRefreshToken(cookie.Value)
	if err != nil {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Invalid refresh token")
		return
	}
	id, err := claims.UserID()
	if err != nil {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Invalid refresh token")
		return
	}

	// the account may have been deleted since the token was issued
	user, err := a.store.Users.Get(id)
	if err != nil {
		response.RespondWithError(w, r, http.StatusUnauthorized, apperrors.ErrCodeTokenInvalid, "Invalid refresh token")
		return
	}

	if _, _, ok := a.issueTokens(w, r, user.User); !ok {
		return
	}
	response.RespondWithData(w, r, http.StatusOK, "Token refreshed", nil)
}

func (a *AuthHandler) ListAdminsHandler(w http.ResponseWriter, r *http.Request) {
	users := a.store.Users.List()
	res := make([]services.User, 0, len(users))
	for _, u := range users {
		res = append(res, u.User)
	}
	response.RespondWithData(w, r, http.StatusOK, "Admins retrieved", res)
}

// CreateAdminHandler godoc
//
//	@Summary	Create admin
//	@Tags		admins
//
//	@Param		request	body	services.AdminInput	true	"admin details"
//	@Success	201
//	@Failure	409	{object}	response.Envelope	"resource_already_exists"
//	@Router		/admins [post]
func (a *AuthHandler) CreateAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req services.AdminInput
	if !decodeValid(w, r, &req) {
		return
	}

	hash, err := a.authService.HashPassword(req.Password)
	if err != nil {
		response.RespondWithError(w, r, http.StatusInternalServerError, apperrors.ErrCodeInternalError, fmt.Sprintf("could not hash password: %v", err))
		return
	}

	user, err := CreateUser(a.store, req.Username, hash, "admin")
	if err != nil {
		respondWithStoreError(w, r, err, "username")
		return
	}

	audit(a.store, r, "CREATE", "user", user.ID)
	response.RespondWithData(w, r, http.StatusCreated, "Admin created", user.User)
}

func (a *AuthHandler) DeleteAdminHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if p, ok := context.PrincipalFrom(r.Context()); ok && p.UserID == id {
		response.RespondWithError(w, r, http.StatusBadRequest, apperrors.ErrCodeInvalidRequest, "You cannot delete your own account")
		return
	}

	if err := a.store.Users.Delete(id); err != nil {
		respondWithStoreError(w, r, err, "admin")
		return
	}

	audit(a.store, r, "DELETE", "user", id)
	response.RespondWithData(w, r, http.StatusOK, "Admin deleted", nil)
}

// CreateUser adds an account, failing with store.ErrConflict when the username is taken
func CreateUser(s *store.Store, username, passwordHash, role string) (store.User, error) {
	return s.Users.Insert(func(id uint) (store.User, error) {
		return store.User{
			User:         services.User{ID: id, Username: username, Role: role},
			PasswordHash: passwordHash,
			CreatedAt:    time.Now().UTC(),
		}, nil
	}, func(existing, row store.User) bool {
		return strings.EqualFold(existing.Username, row.Username)
	})
}
