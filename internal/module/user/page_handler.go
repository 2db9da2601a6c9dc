package user

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/tourbase/internal/module/auth"
)

// UserPageHandler renders the account-related pages.
type UserPageHandler struct{}

// NewPageHandler creates a new UserPageHandler.
func NewPageHandler() *UserPageHandler {
	return &UserPageHandler{}
}

// LoginPage renders the login form.
// GET /login
func (h *UserPageHandler) LoginPage(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	c.HTML(http.StatusOK, "pages/login.html", gin.H{
		"Title": "Log into your account",
		"User":  user,
	})
}

// SignupPage renders the signup form.
// GET /signup
func (h *UserPageHandler) SignupPage(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	c.HTML(http.StatusOK, "pages/signup.html", gin.H{
		"Title": "Create your account",
		"User":  user,
	})
}

// AccountPage renders the account settings page.
// GET /me
func (h *UserPageHandler) AccountPage(c *gin.Context) {
	user, _ := auth.UserFrom(c)
	c.HTML(http.StatusOK, "pages/account.html", gin.H{
		"Title": "Your account",
		"User":  user,
	})
}
