package tour

import (
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/pkg"
)

// TourHandler handles the tour endpoints beyond the generic CRUD: the
// top-5-cheap alias and the two aggregation reports.
type TourHandler struct {
	repo domain.TourRepository
}

// NewHandler creates a new TourHandler.
func NewHandler(repo domain.TourRepository) *TourHandler {
	return &TourHandler{repo: repo}
}

// AliasTopCheap presets the query string for GET /api/v1/tours/top-5-cheap:
// the five best-rated tours, cheapest first on ties, trimmed to the card
// fields. The request then proceeds to the normal list handler.
func AliasTopCheap(c *gin.Context) {
	q := url.Values{}
	q.Set("limit", "5")
	q.Set("sort", "-ratingsAverage,price")
	q.Set("fields", "name,price,ratingsAverage,summary,difficulty")
	c.Request.URL.RawQuery = q.Encode()
	c.Next()
}

// Stats handles GET /api/v1/tours/tour-stats.
func (h *TourHandler) Stats(c *gin.Context) {
	stats, err := h.repo.Stats(c.Request.Context())
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, stats)
}

// MonthlyPlan handles GET /api/v1/tours/monthly-plan/:year.
func (h *TourHandler) MonthlyPlan(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 1900 || year > 9999 {
		pkg.Error(c, domain.NewAppError(domain.CodeValidation, "year must be a four-digit number", nil))
		return
	}

	plan, err := h.repo.MonthlyPlan(c.Request.Context(), year)
	if err != nil {
		pkg.Error(c, err)
		return
	}
	pkg.Success(c, plan)
}
