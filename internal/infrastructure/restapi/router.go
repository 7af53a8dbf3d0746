package restapi

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter wires the handler routes, CORS and the metrics endpoint.
// middleware runs before CORS on every route.
func SetupRouter(h *Handler, allowOrigins []string, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(allowOrigins) == 0 || slices.Contains(allowOrigins, "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = allowOrigins
	}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		balancer := v1.Group("/balancer")
		balancer.GET("/addresses", h.GetAddressesHandler)
		balancer.GET("/balances", h.GetBalancesHandler)
		balancer.GET("/pools", h.GetPoolsHandler)
		balancer.GET("/events", h.GetEventsHandler)
		balancer.GET("/profit_loss", h.GetProfitLossHandler)
		balancer.POST("/refresh", h.RefreshHandler)
		balancer.DELETE("", h.ResetHandler)

		v1.GET("/status", h.GetStatusHandler)
		v1.GET("/messages", h.GetMessagesHandler)
		v1.GET("/session", h.GetSessionHandler)
		v1.PUT("/session", h.PutSessionHandler)
		v1.POST("/history/ignore", h.IgnoreHandler)
		v1.GET("/assets/:identifier", h.GetAssetHandler)

		prices := v1.Group("/prices/historical")
		prices.GET("", h.GetHistoricalPricesHandler)
		prices.PUT("", h.AddHistoricalPriceHandler)
		prices.PATCH("", h.EditHistoricalPriceHandler)
		prices.DELETE("", h.DeleteHistoricalPriceHandler)
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
