package review

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
)

type fakeReviewRepo struct {
	summary domain.RatingsSummary
	found   bool
	err     error

	calcedFor primitive.ObjectID
}

func (r *fakeReviewRepo) CalcRatings(_ context.Context, tourID primitive.ObjectID) (domain.RatingsSummary, bool, error) {
	r.calcedFor = tourID
	return r.summary, r.found, r.err
}

func (r *fakeReviewRepo) ListByTour(_ context.Context, _ primitive.ObjectID) ([]domain.Review, error) {
	return nil, nil
}

type fakeTourRepo struct {
	domain.TourRepository

	updatedTour     primitive.ObjectID
	updatedQuantity int64
	updatedAverage  float64
}

func (r *fakeTourRepo) UpdateRatings(_ context.Context, tourID primitive.ObjectID, quantity int64, average float64) error {
	r.updatedTour = tourID
	r.updatedQuantity = quantity
	r.updatedAverage = average
	return nil
}

func TestRecomputeRatings_WithReviews(t *testing.T) {
	reviewRepo := &fakeReviewRepo{
		summary: domain.RatingsSummary{Quantity: 7, Average: 4.2},
		found:   true,
	}
	tourRepo := &fakeTourRepo{}
	m := &ReviewModule{repo: reviewRepo, tourRepo: tourRepo}

	tourID := primitive.NewObjectID()
	if err := m.recomputeRatings(context.Background(), bson.M{"tour": tourID}); err != nil {
		t.Fatalf("recomputeRatings: %v", err)
	}

	if reviewRepo.calcedFor != tourID {
		t.Errorf("aggregated tour = %v; want %v", reviewRepo.calcedFor, tourID)
	}
	if tourRepo.updatedTour != tourID || tourRepo.updatedQuantity != 7 || tourRepo.updatedAverage != 4.2 {
		t.Errorf("UpdateRatings(%v, %d, %v)", tourRepo.updatedTour, tourRepo.updatedQuantity, tourRepo.updatedAverage)
	}
}

func TestRecomputeRatings_LastReviewDeleted(t *testing.T) {
	reviewRepo := &fakeReviewRepo{found: false}
	tourRepo := &fakeTourRepo{}
	m := &ReviewModule{repo: reviewRepo, tourRepo: tourRepo}

	tourID := primitive.NewObjectID()
	if err := m.recomputeRatings(context.Background(), bson.M{"tour": tourID}); err != nil {
		t.Fatalf("recomputeRatings: %v", err)
	}

	// No reviews left: the cache resets to its pristine defaults.
	if tourRepo.updatedQuantity != 0 || tourRepo.updatedAverage != 4.5 {
		t.Errorf("UpdateRatings(quantity=%d, average=%v); want 0 and 4.5", tourRepo.updatedQuantity, tourRepo.updatedAverage)
	}
}

func TestRecomputeRatings_MissingTourReference(t *testing.T) {
	m := &ReviewModule{repo: &fakeReviewRepo{}, tourRepo: &fakeTourRepo{}}

	if err := m.recomputeRatings(context.Background(), bson.M{}); err == nil {
		t.Error("expected an error for a document without a tour reference")
	}
}

func testContext(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/reviews", nil)
	return c
}

// routeContext routes a request through a real engine so c.FullPath() and
// the route params are populated the way they are in production, then hands
// the captured context to fn.
func routeContext(t *testing.T, method, route, url string, fn func(c *gin.Context)) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Handle(method, route, fn)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, url, nil))
}

func TestNestedTourFilter(t *testing.T) {
	tourID := primitive.NewObjectID()
	reviewID := primitive.NewObjectID()

	tests := []struct {
		name  string
		route string
		url   string
		want  bson.M
	}{
		{
			name:  "flat list has no scope",
			route: "/api/v1/reviews",
			url:   "/api/v1/reviews",
			want:  bson.M{},
		},
		{
			// On the flat item routes :id is the review id; scoping the
			// filter to it would make {tour: X, _id: X} unmatchable.
			name:  "flat item route has no scope",
			route: "/api/v1/reviews/:id",
			url:   "/api/v1/reviews/" + reviewID.Hex(),
			want:  bson.M{},
		},
		{
			name:  "nested route scopes to the tour",
			route: "/api/v1/tours/:id/reviews",
			url:   "/api/v1/tours/" + tourID.Hex() + "/reviews",
			want:  bson.M{"tour": tourID},
		},
		{
			name:  "nested route with malformed id",
			route: "/api/v1/tours/:id/reviews",
			url:   "/api/v1/tours/not-an-id/reviews",
			want:  bson.M{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got bson.M
			routeContext(t, http.MethodGet, tt.route, tt.url, func(c *gin.Context) {
				got = nestedTourFilter(c)
			})
			if len(got) != len(tt.want) {
				t.Fatalf("filter = %v; want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("filter[%q] = %v; want %v", k, got[k], v)
				}
			}
		})
	}
}

func TestPrepareCreate_NestedRoute(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}
	tourID := primitive.NewObjectID()

	// The body may try to claim another author; prepareCreate overrides it.
	doc := bson.M{"review": "Great tour!", "rating": float64(5), "user": "someone-else"}
	var prepErr error
	routeContext(t, http.MethodPost, "/api/v1/tours/:id/reviews", "/api/v1/tours/"+tourID.Hex()+"/reviews", func(c *gin.Context) {
		c.Set("auth.currentUser", user)
		prepErr = prepareCreate(c, doc)
	})
	if prepErr != nil {
		t.Fatalf("prepareCreate: %v", prepErr)
	}
	if doc["user"] != user.ID {
		t.Errorf("user = %v; want the authenticated identity", doc["user"])
	}
	if doc["tour"] != tourID.Hex() {
		t.Errorf("tour = %v; want the route parameter", doc["tour"])
	}
}

func TestPrepareCreate_FlatRoute(t *testing.T) {
	user := &domain.User{ID: primitive.NewObjectID(), Role: domain.RoleUser}

	doc := bson.M{"review": "Great tour!", "rating": float64(5)}
	routeContext(t, http.MethodPost, "/api/v1/reviews", "/api/v1/reviews", func(c *gin.Context) {
		c.Set("auth.currentUser", user)
		if err := prepareCreate(c, doc); err != nil {
			t.Errorf("prepareCreate: %v", err)
		}
	})
	// The flat route carries no tour param; the body's value stands and the
	// descriptor's required rule rejects its absence.
	if _, ok := doc["tour"]; ok {
		t.Errorf("tour = %v; want untouched on the flat route", doc["tour"])
	}
	if doc["user"] != user.ID {
		t.Errorf("user = %v; want the authenticated identity", doc["user"])
	}
}

func TestPrepareCreate_NoAuthenticatedUser(t *testing.T) {
	c := testContext(t)
	err := prepareCreate(c, bson.M{"review": "x"})
	if !domain.IsAuthFailure(err) {
		t.Errorf("error = %v; want an authentication failure", err)
	}
}
