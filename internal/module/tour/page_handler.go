package tour

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// TourPageHandler renders the public tour pages.
type TourPageHandler struct {
	tourRepo   domain.TourRepository
	reviewRepo domain.ReviewRepository
}

// NewPageHandler creates a new TourPageHandler.
func NewPageHandler(tourRepo domain.TourRepository, reviewRepo domain.ReviewRepository) *TourPageHandler {
	return &TourPageHandler{tourRepo: tourRepo, reviewRepo: reviewRepo}
}

// OverviewPage renders the tour cards on the landing page.
// GET /
func (h *TourPageHandler) OverviewPage(c *gin.Context) {
	tours, err := h.tourRepo.ListAll(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}

	user, _ := auth.UserFrom(c)
	c.HTML(http.StatusOK, "pages/overview.html", gin.H{
		"Title": "All tours",
		"Tours": tours,
		"User":  user,
	})
}

// DetailPage renders one tour with its reviews.
// GET /tour/:slug
func (h *TourPageHandler) DetailPage(c *gin.Context) {
	ctx := c.Request.Context()

	tour, err := h.tourRepo.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		pkg.Error(c, err)
		return
	}

	reviews, err := h.reviewRepo.ListByTour(ctx, tour.ID)
	if err != nil {
		pkg.Error(c, err)
		return
	}

	user, _ := auth.UserFrom(c)
	c.HTML(http.StatusOK, "pages/tour.html", gin.H{
		"Title":   tour.Name + " Tour",
		"Tour":    tour,
		"Reviews": reviews,
		"User":    user,
	})
}
