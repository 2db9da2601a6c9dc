package user

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/resource"
)

// Descriptor declares the user resource for admin CRUD. Credentials are not
// writable here; they only change through the auth flows.
func Descriptor() resource.Descriptor {
	return resource.Descriptor{
		Name:       "user",
		Collection: Collection,
		Rules: []resource.FieldRule{
			{Name: "name", Kind: resource.KindString, Required: true, MaxLen: 100, Trim: true},
			{Name: "email", Kind: resource.KindString, Required: true, Trim: true},
			{Name: "photo", Kind: resource.KindString, MaxLen: 255},
			{Name: "role", Kind: resource.KindString, Enum: []string{
				domain.RoleUser, domain.RoleGuide, domain.RoleLeadGuide, domain.RoleAdmin,
			}},
			{Name: "active", Kind: resource.KindBool},
		},
		Defaults: map[string]any{
			"role": domain.RoleUser,
		},
		UniqueFields: []string{"email"},
	}
}

// UserModule implements the app.Module interface for the user domain.
type UserModule struct {
	handler     *UserHandler
	pageHandler *UserPageHandler
	admin       *resource.Handler[domain.User]
	guard       *auth.Guard
}

// NewModule creates a new UserModule.
// Panics if any dependency is nil.
func NewModule(db *mongo.Database, repo domain.UserRepository, guard *auth.Guard) *UserModule {
	if db == nil {
		panic("user.NewModule: db must not be nil")
	}
	if repo == nil {
		panic("user.NewModule: repository must not be nil")
	}
	if guard == nil {
		panic("user.NewModule: guard must not be nil")
	}
	admin := resource.NewHandler[domain.User](db, Descriptor(),
		resource.WithBaseFilter[domain.User](func(c *gin.Context) bson.M {
			return activeFilter()
		}),
	)
	return &UserModule{
		handler:     NewHandler(repo),
		pageHandler: NewPageHandler(),
		admin:       admin,
		guard:       guard,
	}
}

// RegisterRoutes registers user API and page routes.
func (m *UserModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	users := api.Group("/users")
	users.Use(m.guard.Protect())

	users.GET("/me", m.handler.GetMe)
	users.PATCH("/updateMe", m.handler.UpdateMe)
	users.DELETE("/deleteMe", m.handler.DeleteMe)

	admin := users.Group("")
	admin.Use(auth.RestrictTo(domain.RoleAdmin))
	admin.GET("", m.admin.List)
	admin.POST("", m.handler.CreateUser)
	admin.GET("/:id", m.admin.GetOne)
	admin.PATCH("/:id", m.admin.Update)
	admin.DELETE("/:id", m.admin.Delete)

	pages.GET("/login", m.pageHandler.LoginPage)
	pages.GET("/signup", m.pageHandler.SignupPage)
	pages.GET("/me", m.guard.Protect(), m.pageHandler.AccountPage)
}
