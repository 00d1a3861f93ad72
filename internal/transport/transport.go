package transport

import (
	"time"

	"github.com/ds124wfegd/gameroom/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

func InitRoutes(reservationHandler *ReservationHandler, disablePeriodHandler *DisablePeriodHandler, healthHandler *HealthHandler, requestTimeout time.Duration) *gin.Engine {

	router := gin.New()

	// Middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.Logger())
	router.Use(middleware.Timeout(requestTimeout))

	// API routes
	api := router.Group("/api/v1")
	{
		// Reservation routes
		reservations := api.Group("/reservations")
		{
			reservations.POST("", middleware.RequireUser(), reservationHandler.BookReservation)
			reservations.GET("/:id", middleware.RequireCaller(), reservationHandler.GetReservation)

			owner := reservations.Group("/:id", middleware.RequireOwner())
			owner.PATCH("/status", reservationHandler.SetReservationStatus)
			owner.GET("/valid-statuses", reservationHandler.GetValidTransitions)
			owner.GET("/remaining-slots", reservationHandler.GetRemainingSlots)
			owner.POST("/split", reservationHandler.SplitReservation)
		}

		api.GET("/users/me/reservations", middleware.RequireUser(), reservationHandler.GetUserReservations)

		// Room routes
		rooms := api.Group("/rooms/:id")
		{
			rooms.GET("/availability", reservationHandler.GetRoomAvailability)
			rooms.GET("/disabled", disablePeriodHandler.IsRoomDisabled)
			rooms.GET("/disable-periods", disablePeriodHandler.GetRoomDisablePeriods)
			rooms.POST("/disable-periods", middleware.RequireOwner(), disablePeriodHandler.CreateDisablePeriod)
		}

		// Disable period routes
		periods := api.Group("/disable-periods/:periodId", middleware.RequireOwner())
		{
			periods.PUT("", disablePeriodHandler.UpdateDisablePeriod)
			periods.DELETE("", disablePeriodHandler.DeleteDisablePeriod)
		}

		// Owner listings
		owners := api.Group("/owners/me", middleware.RequireOwner())
		{
			owners.GET("/reservations", reservationHandler.GetOwnerReservations)
			owners.GET("/disable-periods", disablePeriodHandler.GetOwnerDisablePeriods)
		}

		// Admin routes
		api.GET("/admin/queue/stats", healthHandler.QueueStats)
	}

	// Health check
	router.GET("/health", healthHandler.Health)

	return router
}
