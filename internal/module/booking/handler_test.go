package booking

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
)

type fakeTourRepo struct {
	domain.TourRepository

	tour *domain.Tour
}

func (r *fakeTourRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Tour, error) {
	if r.tour != nil && r.tour.ID == id {
		return r.tour, nil
	}
	return nil, domain.ErrNotFound
}

func (r *fakeTourRepo) ListByIDs(_ context.Context, ids []primitive.ObjectID) ([]domain.Tour, error) {
	if r.tour == nil {
		return nil, nil
	}
	for _, id := range ids {
		if id == r.tour.ID {
			return []domain.Tour{*r.tour}, nil
		}
	}
	return nil, nil
}

type fakeCheckout struct {
	successURL string
	cancelURL  string
	email      string
	session    *domain.CheckoutSession
	err        error
}

func (f *fakeCheckout) CreateCheckoutSession(_ context.Context, tour *domain.Tour, customerEmail, successURL, cancelURL string) (*domain.CheckoutSession, error) {
	f.email = customerEmail
	f.successURL = successURL
	f.cancelURL = cancelURL
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeBookingRepo struct {
	created []domain.Booking
}

func (r *fakeBookingRepo) Create(_ context.Context, booking *domain.Booking) error {
	booking.ID = primitive.NewObjectID()
	r.created = append(r.created, *booking)
	return nil
}

func (r *fakeBookingRepo) ListByUser(_ context.Context, userID primitive.ObjectID) ([]domain.Booking, error) {
	var out []domain.Booking
	for _, b := range r.created {
		if b.User == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func TestGetCheckoutSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tour := &domain.Tour{
		ID:    primitive.NewObjectID(),
		Name:  "The Forest Hiker",
		Slug:  "the-forest-hiker",
		Price: 397,
	}
	user := &domain.User{ID: primitive.NewObjectID(), Email: "leo@example.com"}
	checkout := &fakeCheckout{session: &domain.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.example/pay"}}
	h := NewHandler(&fakeTourRepo{tour: tour}, checkout, "http://localhost:8080/")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/checkout-session/"+tour.ID.Hex(), nil)
	c.Params = gin.Params{{Key: "tourId", Value: tour.ID.Hex()}}
	c.Set("auth.currentUser", user)

	h.GetCheckoutSession(c)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data struct {
			Session domain.CheckoutSession `json:"session"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Data.Session.ID != "cs_test_123" {
		t.Errorf("session id = %q", resp.Data.Session.ID)
	}

	if checkout.email != user.Email {
		t.Errorf("customer email = %q", checkout.email)
	}
	wantSuccess := "http://localhost:8080/my-tours?tour=" + tour.ID.Hex() + "&user=" + user.ID.Hex() + "&price=397"
	if checkout.successURL != wantSuccess {
		t.Errorf("success URL = %q; want %q", checkout.successURL, wantSuccess)
	}
	if checkout.cancelURL != "http://localhost:8080/tour/the-forest-hiker" {
		t.Errorf("cancel URL = %q", checkout.cancelURL)
	}
}

func TestGetCheckoutSession_BadTourID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeTourRepo{}, &fakeCheckout{}, "http://localhost:8080")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/checkout-session/nope", nil)
	c.Params = gin.Params{{Key: "tourId", Value: "nope"}}
	c.Set("auth.currentUser", &domain.User{ID: primitive.NewObjectID()})

	h.GetCheckoutSession(c)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", w.Code)
	}
}

func TestGetCheckoutSession_UnknownTour(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(&fakeTourRepo{}, &fakeCheckout{}, "http://localhost:8080")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	id := primitive.NewObjectID()
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/bookings/checkout-session/"+id.Hex(), nil)
	c.Params = gin.Params{{Key: "tourId", Value: id.Hex()}}
	c.Set("auth.currentUser", &domain.User{ID: primitive.NewObjectID()})

	h.GetCheckoutSession(c)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", w.Code)
	}
}

func TestRecordCheckout(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeBookingRepo{}
	h := NewPageHandler(repo, &fakeTourRepo{})

	tourID := primitive.NewObjectID()
	userID := primitive.NewObjectID()

	r := gin.New()
	reached := false
	r.GET("/my-tours", h.RecordCheckout, func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	})

	// Success redirect from checkout: the booking is recorded and the
	// query string stripped by a redirect.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet,
		"/my-tours?tour="+tourID.Hex()+"&user="+userID.Hex()+"&price=397", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("status = %d; want 302", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/my-tours" {
		t.Errorf("Location = %q; want the clean path", loc)
	}
	if reached {
		t.Error("page handler ran on the recording pass")
	}
	if len(repo.created) != 1 {
		t.Fatalf("created %d bookings; want 1", len(repo.created))
	}
	b := repo.created[0]
	if b.Tour != tourID || b.User != userID || b.Price != 397 || !b.Paid {
		t.Errorf("booking = %+v", b)
	}

	// The reload of the clean URL records nothing.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/my-tours", nil))
	if w.Code != http.StatusOK || !reached {
		t.Errorf("clean reload: status = %d, reached = %v", w.Code, reached)
	}
	if len(repo.created) != 1 {
		t.Errorf("reload double-booked: %d bookings", len(repo.created))
	}
}

func TestRecordCheckout_MalformedParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeBookingRepo{}
	h := NewPageHandler(repo, &fakeTourRepo{})

	r := gin.New()
	r.GET("/my-tours", h.RecordCheckout, func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, query := range []string{
		"?tour=abc&user=" + primitive.NewObjectID().Hex() + "&price=397",
		"?tour=" + primitive.NewObjectID().Hex() + "&price=397",
		"?tour=" + primitive.NewObjectID().Hex() + "&user=" + primitive.NewObjectID().Hex() + "&price=free",
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/my-tours"+query, nil))
		if w.Code != http.StatusOK {
			t.Errorf("query %s: status = %d; want a plain page render", query, w.Code)
		}
	}
	if len(repo.created) != 0 {
		t.Errorf("malformed params recorded %d bookings", len(repo.created))
	}
}
