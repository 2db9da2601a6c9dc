package booking

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/simp-lee/tourbase/internal/domain"
	"github.com/simp-lee/tourbase/internal/module/auth"
	"github.com/simp-lee/tourbase/internal/payment"
	"github.com/simp-lee/tourbase/internal/resource"
)

// BookingModule implements the app.Module interface for the booking domain.
type BookingModule struct {
	handler     *BookingHandler
	pageHandler *BookingPageHandler
	crud        *resource.Handler[domain.Booking]
	guard       *auth.Guard
}

// NewModule creates a new BookingModule.
// Panics if any dependency is nil.
func NewModule(db *mongo.Database, repo domain.BookingRepository, tourRepo domain.TourRepository, checkout payment.CheckoutProvider, guard *auth.Guard, baseURL string) *BookingModule {
	if db == nil {
		panic("booking.NewModule: db must not be nil")
	}
	if repo == nil {
		panic("booking.NewModule: repository must not be nil")
	}
	if tourRepo == nil {
		panic("booking.NewModule: tour repository must not be nil")
	}
	if checkout == nil {
		panic("booking.NewModule: checkout provider must not be nil")
	}
	if guard == nil {
		panic("booking.NewModule: guard must not be nil")
	}
	return &BookingModule{
		handler:     NewHandler(tourRepo, checkout, baseURL),
		pageHandler: NewPageHandler(repo, tourRepo),
		crud:        resource.NewHandler[domain.Booking](db, Descriptor()),
		guard:       guard,
	}
}

// RegisterRoutes registers booking API and page routes.
func (m *BookingModule) RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup) {
	bookings := api.Group("/bookings")
	bookings.Use(m.guard.Protect())

	bookings.GET("/checkout-session/:tourId", m.handler.GetCheckoutSession)

	admin := bookings.Group("")
	admin.Use(auth.RestrictTo(domain.RoleAdmin, domain.RoleLeadGuide))
	admin.GET("", m.crud.List)
	admin.POST("", m.crud.Create)
	admin.GET("/:id", m.crud.GetOne)
	admin.PATCH("/:id", m.crud.Update)
	admin.DELETE("/:id", m.crud.Delete)

	pages.GET("/my-tours", m.guard.Protect(), m.pageHandler.RecordCheckout, m.pageHandler.MyToursPage)
}
