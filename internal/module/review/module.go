package review

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/resource"
)

// ReviewModule implements the app.Module interface for the review domain.
// Every write triggers a recompute of the owning tour's rating cache.
type ReviewModule struct {
	crud     *resource.Handler[domain.Review]
	repo     domain.ReviewRepository
	tourRepo domain.TourRepository
	guard    *auth.Guard
}

// NewModule creates a new ReviewModule.
// Panics if any dependency is nil.
func NewModule(db *mongo.Database, repo domain.ReviewRepository, tourRepo domain.TourRepository, guard *auth.Guard) *ReviewModule {
	if db == nil {
		panic("review.NewModule: db must not be nil")
	}
	if repo == nil {
		panic("review.NewModule: repository must not be nil")
	}
	if tourRepo == nil {
		panic("review.NewModule: tour repository must not be nil")
	}
	if guard == nil {
		panic("review.NewModule: guard must not be nil")
	}

	m := &ReviewModule{
		repo:     repo,
		tourRepo: tourRepo,
		guard:    guard,
	}
	m.crud = resource.NewHandler[domain.Review](db, Descriptor(),
		resource.WithBaseFilter[domain.Review](nestedTourFilter),
		resource.WithPrepareCreate[domain.Review](prepareCreate),
		resource.WithAfterHook[domain.Review](resource.PhaseCreate, m.recomputeRatings),
		resource.WithAfterHook[domain.Review](resource.PhaseUpdate, m.recomputeRatings),
		resource.WithAfterHook[domain.Review](resource.PhaseDelete, m.recomputeRatings),
	)
	return m
}

// Indexes returns the generic handler for index creation at startup.
func (m *ReviewModule) Indexes() *resource.Handler[domain.Review] {
	return m.crud
}

// onNestedRoute reports whether the request matched the tour-scoped route
// shape, where :id names the parent tour. On the flat item routes :id is
// the review id and must stay out of the filter.
func onNestedRoute(c *gin.Context) bool {
	return strings.Contains(c.FullPath(), "/tours/:id/reviews")
}

// nestedTourFilter scopes queries to the parent tour when the reviews are
// reached through /tours/:id/reviews.
func nestedTourFilter(c *gin.Context) bson.M {
	if !onNestedRoute(c) {
		return bson.M{}
	}
	tourID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return bson.M{}
	}
	return bson.M{"tour": tourID}
}

// prepareCreate fills the parent references: the tour from the nested route
// when present, the user always from the authenticated identity so nobody
// reviews in someone else's name.
func prepareCreate(c *gin.Context, doc bson.M) error {
	if onNestedRoute(c) {
		doc["tour"] = c.Param("id")
	}
	user, ok := auth.UserFrom(c)
	if !ok {
		return domain.ErrNotAuthenticated
	}
	doc["user"] = user.ID
	return nil
}

// recomputeRatings writes the review aggregate back onto the tour. When the
// last review disappears the cache resets to its pristine defaults.
func (m *ReviewModule) recomputeRatings(ctx context.Context, doc bson.M) error {
	tourID, ok := doc["tour"].(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("review document has no tour reference")
	}

	summary, found, err := m.repo.CalcRatings(ctx, tourID)
	if err != nil {
		return err
	}
	if !found {
		summary = domain.RatingsSummary{Quantity: 0, Average: DefaultAverageRating}
	}
	return m.tourRepo.UpdateRatings(ctx, tourID, summary.Quantity, summary.Average)
}

// RegisterRoutes registers the flat review API routes.
func (m *ReviewModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	reviews := api.Group("/reviews")
	reviews.Use(m.guard.Protect())

	reviews.GET("", m.crud.List)
	reviews.GET("/:id", m.crud.GetOne)
	reviews.POST("", auth.RestrictTo(domain.RoleUser), m.crud.Create)
	reviews.PATCH("/:id", auth.RestrictTo(domain.RoleUser, domain.RoleAdmin), m.crud.Update)
	reviews.DELETE("/:id", auth.RestrictTo(domain.RoleUser, domain.RoleAdmin), m.crud.Delete)
}

// RegisterNested registers the tour-scoped review routes on the tours group.
func (m *ReviewModule) RegisterNested(tours *gin.RouterGroup) {
	nested := tours.Group("/:id/reviews")
	nested.Use(m.guard.Protect())

	nested.GET("", m.crud.List)
	nested.POST("", auth.RestrictTo(domain.RoleUser), m.crud.Create)
}
