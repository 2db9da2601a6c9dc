package tour

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/resource"
)

// TourModule implements the app.Module interface for the tour domain.
type TourModule struct {
	handler     *TourHandler
	pageHandler *TourPageHandler
	crud        *resource.Handler[domain.Tour]
	guard       *auth.Guard

	// reviews registers the nested /tours/:id/reviews routes; wiring them
	// here keeps one owner per route subtree.
	registerReviews func(tours *gin.RouterGroup)
}

// NewModule creates a new TourModule.
// Panics if any dependency is nil.
func NewModule(db *mongo.Database, repo domain.TourRepository, reviewRepo domain.ReviewRepository, guard *auth.Guard, registerReviews func(tours *gin.RouterGroup)) *TourModule {
	if db == nil {
		panic("tour.NewModule: db must not be nil")
	}
	if repo == nil {
		panic("tour.NewModule: repository must not be nil")
	}
	if guard == nil {
		panic("tour.NewModule: guard must not be nil")
	}
	crud := resource.NewHandler[domain.Tour](db, Descriptor(),
		resource.WithBaseFilter[domain.Tour](func(c *gin.Context) bson.M {
			return publicFilter()
		}),
		resource.WithBeforeHook[domain.Tour](resource.PhaseCreate, slugHook),
		resource.WithBeforeHook[domain.Tour](resource.PhaseUpdate, slugHook),
	)
	return &TourModule{
		handler:         NewHandler(repo),
		pageHandler:     NewPageHandler(repo, reviewRepo),
		crud:            crud,
		guard:           guard,
		registerReviews: registerReviews,
	}
}

// Indexes returns the generic handler for index creation at startup.
func (m *TourModule) Indexes() *resource.Handler[domain.Tour] {
	return m.crud
}

// RegisterRoutes registers tour API and page routes.
func (m *TourModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	tours := api.Group("/tours")

	tours.GET("/top-5-cheap", AliasTopCheap, m.crud.List)
	tours.GET("/tour-stats", m.handler.Stats)
	tours.GET("/monthly-plan/:year",
		m.guard.Protect(),
		auth.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide, domain.RoleGuide),
		m.handler.MonthlyPlan,
	)

	tours.GET("", m.crud.List)
	tours.GET("/:id", m.crud.GetOne)

	staff := tours.Group("")
	staff.Use(m.guard.Protect(), auth.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	staff.POST("", m.crud.Create)
	staff.PATCH("/:id", m.crud.Update)
	staff.DELETE("/:id", m.crud.Delete)

	if m.registerReviews != nil {
		m.registerReviews(tours)
	}

	pages.GET("/", m.pageHandler.OverviewPage)
	pages.GET("/tour/:slug", m.pageHandler.DetailPage)
}
