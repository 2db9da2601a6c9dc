package booking

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// BookingPageHandler renders the my-tours page and records bookings coming
// back from a successful checkout.
type BookingPageHandler struct {
	repo     domain.BookingRepository
	tourRepo domain.TourRepository
}

// NewPageHandler creates a new BookingPageHandler.
func NewPageHandler(repo domain.BookingRepository, tourRepo domain.TourRepository) *BookingPageHandler {
	return &BookingPageHandler{repo: repo, tourRepo: tourRepo}
}

// RecordCheckout is page middleware: when the checkout success redirect
// lands with the booking fields in the query string, it records the booking
// and redirects to the clean URL so a reload cannot double-book.
func (h *BookingPageHandler) RecordCheckout(c *gin.Context) {
	tourParam := c.Query("tour")
	userParam := c.Query("user")
	priceParam := c.Query("price")
	if tourParam == "" || userParam == "" || priceParam == "" {
		c.Next()
		return
	}

	tourID, err := primitive.ObjectIDFromHex(tourParam)
	if err != nil {
		c.Next()
		return
	}
	userID, err := primitive.ObjectIDFromHex(userParam)
	if err != nil {
		c.Next()
		return
	}
	price, err := strconv.ParseFloat(priceParam, 64)
	if err != nil {
		c.Next()
		return
	}

	booking := domain.Booking{
		Tour:      tourID,
		User:      userID,
		Price:     price,
		CreatedAt: time.Now().UTC(),
		Paid:      true,
	}
	if err := h.repo.Create(c.Request.Context(), &booking); err != nil {
		pkg.Error(c, err)
		c.Abort()
		return
	}

	c.Redirect(http.StatusFound, c.Request.URL.Path)
	c.Abort()
}

// MyToursPage renders the tours the user has booked.
// GET /my-tours
func (h *BookingPageHandler) MyToursPage(c *gin.Context) {
	ctx := c.Request.Context()

	user, ok := auth.UserFrom(c)
	if !ok {
		pkg.Error(c, domain.ErrNotAuthenticated)
		return
	}

	bookings, err := h.repo.ListByUser(ctx, user.ID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	ids := make([]primitive.ObjectID, len(bookings))
	for i, b := range bookings {
		ids[i] = b.Tour
	}
	tours, err := h.tourRepo.ListByIDs(ctx, ids)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	c.HTML(http.StatusOK, "pages/my-tours.html", gin.H{
		"Title": "My tours",
		"Tours": tours,
		"User":  user,
	})
}
