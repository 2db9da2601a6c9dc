package auth

import "github.com/gin-gonic/gin"

// AuthModule implements the app.Module interface for the auth flows. The
// routes live under /users next to the account resource, matching the REST
// surface clients expect.
type AuthModule struct {
	handler *AuthHandler
	guard   *Guard
}

// NewModule creates a new AuthModule with the given handler and guard.
// Panics if either is nil.
func NewModule(h *AuthHandler, g *Guard) *AuthModule {
	if h == nil {
		panic("auth.NewModule: handler must not be nil")
	}
	if g == nil {
		panic("auth.NewModule: guard must not be nil")
	}
	return &AuthModule{handler: h, guard: g}
}

// RegisterRoutes registers auth API routes.
func (m *AuthModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	users := api.Group("/users")
	users.POST("/signup", m.handler.Signup)
	users.POST("/login", m.handler.Login)
	users.GET("/logout", m.handler.Logout)
	users.POST("/forgotPassword", m.handler.ForgotPassword)
	users.PATCH("/resetPassword/:token", m.handler.ResetPassword)
	users.PATCH("/updateMyPassword", m.guard.Protect(), m.handler.UpdatePassword)
}
