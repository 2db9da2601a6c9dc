package auth

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// contextUserKey is the gin context key holding the authenticated user.
const contextUserKey = "auth.currentUser"

// Guard authenticates requests from a bearer token or the auth cookie and
// loads the corresponding user from the repository.
type Guard struct {
	userRepo   domain.UserRepository
	jwtSecret  []byte
	cookieName string
}

// NewGuard creates a Guard verifying tokens with the given secret.
func NewGuard(userRepo domain.UserRepository, jwtSecret, cookieName string) *Guard {
	return &Guard{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		cookieName: cookieName,
	}
}

// Protect returns middleware that rejects unauthenticated requests. On
// success the user is stored in the context for downstream handlers.
func (g *Guard) Protect() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := g.authenticate(c)
		if err != nil {
			pkg.Error(c, err)
			c.Abort()
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// CurrentUser returns middleware for rendered pages: it resolves the user
// when a valid token is present but never rejects the request. Any
// authentication failure degrades to an anonymous visit.
func (g *Guard) CurrentUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, err := g.authenticate(c); err == nil {
			c.Set(contextUserKey, user)
		}
		c.Next()
	}
}

// RestrictTo returns middleware that allows only the given roles. It must
// run after Protect.
func RestrictTo(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := UserFrom(c)
		if !ok {
			pkg.Error(c, domain.ErrNotAuthenticated)
			c.Abort()
			return
		}
		for _, role := range roles {
			if user.Role == role {
				c.Next()
				return
			}
		}
		pkg.Error(c, domain.ErrForbidden)
		c.Abort()
	}
}

// UserFrom returns the authenticated user stored by Protect or CurrentUser.
func UserFrom(c *gin.Context) (*domain.User, bool) {
	value, exists := c.Get(contextUserKey)
	if !exists {
		return nil, false
	}
	user, ok := value.(*domain.User)
	return user, ok
}

// authenticate extracts and verifies the token, then loads the user and
// checks the token is not stale relative to the last password change.
func (g *Guard) authenticate(c *gin.Context) (*domain.User, error) {
	token := g.extractToken(c)
	if token == "" {
		return nil, domain.NewAppError(domain.CodeNotAuthenticated, "you are not logged in, please log in to get access", nil)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return g.jwtSecret, nil
	})
	if err != nil {
		// The normalizer distinguishes expired from invalid tokens.
		return nil, err
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	userID, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	user, err := g.userRepo.GetByID(c.Request.Context(), userID)
	if err != nil {
		if domain.IsNotFound(err) {
			// Deleted or deactivated since the token was issued.
			return nil, domain.ErrStaleToken
		}
		return nil, err
	}

	if claims.IssuedAt != nil && user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		return nil, domain.ErrStaleToken
	}

	return user, nil
}

// extractToken prefers the Authorization header and falls back to the cookie
// set on login, so the API and the rendered pages share the guard.
func (g *Guard) extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	if cookie, err := c.Cookie(g.cookieName); err == nil {
		return cookie
	}
	return ""
}
