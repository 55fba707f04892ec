package net

import (
	"errors"
	"log"
	nethttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	server "gas-station-sim/server"
	"gas-station-sim/server/internal/metrics"
	"gas-station-sim/server/internal/net/ws"
)

type RouterConfig struct {
	Logger  *log.Logger
	Metrics *metrics.Collector
}

type paymentRequest struct {
	PumpID    int    `json:"pumpId" binding:"required"`
	PaymentID string `json:"paymentId" binding:"required"`
}

type refillRequest struct {
	Amount   float64 `json:"amount" binding:"required"`
	FuelType string  `json:"fuelType" binding:"required"`
}

type selectGasolineRequest struct {
	PumpID       int    `json:"pumpId" binding:"required"`
	GasolineType string `json:"gasolineType" binding:"required"`
}

// NewRouter assembles the REST surface, the websocket feed, and the
// operational endpoints.
func NewRouter(hub *server.Hub, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	wsHandler := ws.NewHandler(hub, ws.HandlerConfig{Logger: logger})
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.Handle(c.Writer, c.Request)
	})

	router.GET("/health", func(c *gin.Context) {
		c.String(nethttp.StatusOK, "ok")
	})

	router.GET("/diagnostics", func(c *gin.Context) {
		c.JSON(nethttp.StatusOK, gin.H{
			"status":     "ok",
			"serverTime": time.Now().UnixMilli(),
			"tickRate":   server.TickRate(),
			"hub":        hub.Diagnostics(),
		})
	})

	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	station := router.Group("/gas-station")
	{
		station.GET("/state", func(c *gin.Context) {
			c.JSON(nethttp.StatusOK, hub.State())
		})
		station.GET("/prices", func(c *gin.Context) {
			c.JSON(nethttp.StatusOK, hub.Prices())
		})
		station.GET("/buy-prices", func(c *gin.Context) {
			c.JSON(nethttp.StatusOK, hub.BuyPrices())
		})
		station.PUT("/prices", func(c *gin.Context) {
			var patch server.PricesPatch
			if err := c.ShouldBindJSON(&patch); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid price update"})
				return
			}
			c.JSON(nethttp.StatusOK, hub.UpdatePrices(patch))
		})
		station.POST("/select-gasoline", func(c *gin.Context) {
			var req selectGasolineRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid selection"})
				return
			}
			applied := hub.SelectGasoline(req.PumpID, server.FuelGrade(req.GasolineType))
			c.JSON(nethttp.StatusOK, gin.H{"applied": applied})
		})
		station.POST("/initiate-payment", func(c *gin.Context) {
			var req paymentRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid payment request"})
				return
			}
			hub.InitiatePayment(req.PumpID, req.PaymentID)
			c.JSON(nethttp.StatusOK, req)
		})
		station.POST("/process-payment", func(c *gin.Context) {
			var req paymentRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid payment request"})
				return
			}
			if !hub.ConfirmPayment(req.PumpID, req.PaymentID) {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "payment failed, paymentId: " + req.PaymentID})
				return
			}
			c.JSON(nethttp.StatusOK, req)
		})
	}

	simulation := router.Group("/gas-station-simulation")
	{
		simulation.POST("/start", func(c *gin.Context) {
			hub.Start()
			c.JSON(nethttp.StatusOK, hub.State())
		})
		simulation.POST("/stop", func(c *gin.Context) {
			hub.Stop()
			c.JSON(nethttp.StatusOK, hub.State())
		})
		simulation.POST("/reset", func(c *gin.Context) {
			hub.Reset()
			c.JSON(nethttp.StatusOK, hub.State())
		})
		simulation.PUT("/settings", func(c *gin.Context) {
			var patch server.SettingsPatch
			if err := c.ShouldBindJSON(&patch); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid settings"})
				return
			}
			hub.UpdateSettings(patch)
			c.JSON(nethttp.StatusOK, hub.State())
		})
		simulation.POST("/refill-tank", func(c *gin.Context) {
			var req refillRequest
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid refill request"})
				return
			}
			if !hub.RefillTank(req.Amount, server.FuelGrade(req.FuelType)) {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid refill request"})
				return
			}
			c.JSON(nethttp.StatusOK, hub.State())
		})
	}

	pumps := router.Group("/pumps")
	{
		pumps.GET("", func(c *gin.Context) {
			c.JSON(nethttp.StatusOK, hub.Pumps())
		})
		pumps.GET("/:id", func(c *gin.Context) {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid pump id"})
				return
			}
			pump, ok := hub.PumpByID(id)
			if !ok {
				c.JSON(nethttp.StatusNotFound, gin.H{"error": "pump not found"})
				return
			}
			c.JSON(nethttp.StatusOK, pump)
		})
		pumps.POST("", func(c *gin.Context) {
			c.JSON(nethttp.StatusCreated, hub.CreatePump())
		})
		pumps.DELETE("/:id", func(c *gin.Context) {
			id, err := strconv.Atoi(c.Param("id"))
			if err != nil {
				c.JSON(nethttp.StatusBadRequest, gin.H{"error": "invalid pump id"})
				return
			}
			switch err := hub.DeletePump(id); {
			case errors.Is(err, server.ErrPumpNotFound):
				c.JSON(nethttp.StatusNotFound, gin.H{"error": "pump not found"})
			case errors.Is(err, server.ErrPumpBusy):
				c.JSON(nethttp.StatusConflict, gin.H{"error": "pump is serving a vehicle"})
			case err != nil:
				c.JSON(nethttp.StatusInternalServerError, gin.H{"error": "failed to delete pump"})
			default:
				c.Status(nethttp.StatusNoContent)
			}
		})
	}

	return router
}
