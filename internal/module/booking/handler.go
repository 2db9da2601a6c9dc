package booking

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/payment"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// BookingHandler handles the checkout endpoint.
type BookingHandler struct {
	tourRepo domain.TourRepository
	checkout payment.CheckoutProvider
	baseURL  string
}

// NewHandler creates a new BookingHandler.
func NewHandler(tourRepo domain.TourRepository, checkout payment.CheckoutProvider, baseURL string) *BookingHandler {
	return &BookingHandler{
		tourRepo: tourRepo,
		checkout: checkout,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// GetCheckoutSession handles GET /api/v1/bookings/checkout-session/:tourId.
// The returned session carries the gateway URL the client redirects to.
func (h *BookingHandler) GetCheckoutSession(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := auth.UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}

	tourID, err := primitive.ObjectIDFromHex(c.Param("tourId"))
	if err != nil {
		pkg.Error(c, err)
		return
	}
	tour, err := h.tourRepo.GetByID(ctx, tourID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	// The success URL carries the booking fields back to the app; the page
	// middleware records the booking and strips them on redirect.
	successURL := fmt.Sprintf("%s/my-tours?tour=%s&user=%s&price=%g",
		h.baseURL, tour.ID.Hex(), user.ID.Hex(), tour.Price)
	cancelURL := h.baseURL + "/tour/" + tour.Slug

	session, err := h.checkout.CreateCheckoutSession(ctx, tour, user.Email, successURL, cancelURL)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	pkg.Success(c, gin.H{"session": session})
}
