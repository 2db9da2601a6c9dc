package app

import "github.com/gin-gonic/gin"

// Module is a self-registering feature area (tours, users, reviews,
// bookings, auth). Each module attaches its own routes to the versioned API
// group and the server-rendered pages group.
type Module interface {
	RegisterRoutes(api *gin.RouterGroup, pages *gin.RouterGroup)
}
