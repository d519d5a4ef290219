// README: HTTP route wiring.
package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"ecoscoot/internal/http/handlers"
	"ecoscoot/internal/http/middleware"
)

type Handlers struct {
	Reservations *handlers.ReservationHandler
	Rides        *handlers.RideHandler
	Wallet       *handlers.WalletHandler
	Pricing      *handlers.PricingHandler
	Scooters     *handlers.ScooterHandler
	System       *handlers.SystemHandler
}

func NewRouter(log *zap.Logger, h Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logging(log), middleware.Metrics())

	r.GET("/health", h.System.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/system/status", h.System.Status)
	api.GET("/pricing", h.Pricing.Get)
	api.GET("/scooters", h.Scooters.List)
	api.GET("/scooters/:id", h.Scooters.Get)

	auth := api.Group("")
	auth.Use(middleware.Identity())
	{
		auth.POST("/reservations", h.Reservations.Create)
		auth.GET("/reservations/me", h.Reservations.Me)
		auth.GET("/reservations/history", h.Reservations.History)
		auth.POST("/reservations/:id/cancel", h.Reservations.Cancel)
		auth.POST("/reservations/:id/start", h.Reservations.Start)

		auth.GET("/rides/me", h.Rides.Me)
		auth.GET("/rides/history", h.Rides.History)
		auth.GET("/rides/:id", h.Rides.Get)
		auth.POST("/rides/:id/end", h.Rides.End)

		auth.GET("/wallet", h.Wallet.Balance)
		auth.POST("/wallet/topup", h.Wallet.TopUp)

		auth.PUT("/pricing", h.Pricing.Put)
		auth.PUT("/scooters/:id/status", h.Scooters.SetStatus)
		auth.PUT("/scooters/:id/battery", h.Scooters.SetBattery)
	}

	return r
}
