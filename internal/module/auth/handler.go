package auth

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// AuthHandler handles REST API requests for authentication.
type AuthHandler struct {
	svc          Service
	guard        *Guard
	cookieName   string
	cookieExpiry time.Duration
	secureCookie bool
}

// NewHandler creates a new AuthHandler with the given service.
func NewHandler(svc Service, guard *Guard, cookieName string, cookieExpiry time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{
		svc:          svc,
		guard:        guard,
		cookieName:   cookieName,
		cookieExpiry: cookieExpiry,
		secureCookie: secureCookie,
	}
}

// Signup handles POST /api/v1/users/signup.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	creds, err := h.svc.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	h.setAuthCookie(c, creds.Token, h.cookieExpiry)
	pkg.Created(c, gin.H{
		"token": creds.Token,
		"user":  creds.User,
	})
}

// Login handles POST /api/v1/users/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	creds, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	h.setAuthCookie(c, creds.Token, h.cookieExpiry)
	pkg.Success(c, gin.H{
		"token": creds.Token,
		"user":  creds.User,
	})
}

// Logout handles GET /api/v1/users/logout. The cookie is replaced with a
// short-lived dummy value rather than deleted, which works for httpOnly
// cookies the browser scripts cannot touch.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setAuthCookie(c, "loggedout", 10*time.Second)
	pkg.Success(c, nil)
}

// ForgotPassword handles POST /api/v1/users/forgotPassword.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, gin.H{"message": "token sent to email"})
}

// ResetPassword handles PATCH /api/v1/users/resetPassword/:token.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	creds, err := h.svc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	h.setAuthCookie(c, creds.Token, h.cookieExpiry)
	pkg.Success(c, gin.H{
		"token": creds.Token,
		"user":  creds.User,
	})
}

// UpdatePassword handles PATCH /api/v1/users/updateMyPassword.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	user, ok := UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}

	var req UpdatePasswordRequest
	if !pkg.BindAndValidate(c, &req) {
		return
	}

	creds, err := h.svc.UpdatePassword(c.Request.Context(), user, req.PasswordCurrent, req.Password)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	h.setAuthCookie(c, creds.Token, h.cookieExpiry)
	pkg.Success(c, gin.H{
		"token": creds.Token,
		"user":  creds.User,
	})
}

func (h *AuthHandler) setAuthCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetCookie(h.cookieName, token, int(ttl.Seconds()), "/", "", h.secureCookie, true)
}
