package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/restock-engine/internal/api/handlers"
	"github.com/andresuchdata/restock-engine/internal/api/middleware"
	"github.com/andresuchdata/restock-engine/internal/domain"
	"github.com/andresuchdata/restock-engine/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	Inventory *service.InventoryService
	Decisions *service.DecisionService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Inventory != nil {
			inventoryHandler := handlers.NewInventoryHandler(services.Inventory)
			inventoryGroup := apiGroup.Group("/inventory")
			{
				inventoryGroup.GET("/:store/:product", inventoryHandler.GetInventory)
				inventoryGroup.POST("/delta", inventoryHandler.ApplyDelta)
				inventoryGroup.POST("/sale", inventoryHandler.RecordSale)
				inventoryGroup.POST("/receipt", inventoryHandler.RecordReceipt)
				inventoryGroup.POST("/batch/:mode", inventoryHandler.Batch)
				inventoryGroup.POST("/delta_batch", inventoryHandler.BatchAs(domain.BatchModeDelta))
				inventoryGroup.POST("/sale_batch", inventoryHandler.BatchAs(domain.BatchModeSale))
				inventoryGroup.POST("/receipt_batch", inventoryHandler.BatchAs(domain.BatchModeReceipt))
			}
		}

		if services.Decisions != nil {
			decisionHandler := handlers.NewDecisionHandler(services.Decisions)

			alertsGroup := apiGroup.Group("/alerts")
			{
				alertsGroup.GET("/low_stock", decisionHandler.GetLowStockAlerts)
				alertsGroup.GET("/overstock", decisionHandler.GetOverstockAlerts)
			}

			apiGroup.GET("/forecast/:store/:product", decisionHandler.GetForecast)
			apiGroup.GET("/reorder/:store/:product", decisionHandler.GetReorderRecommendation)
			apiGroup.GET("/optimal_stocking/:store/:product", decisionHandler.GetOptimalStocking)
			apiGroup.GET("/remediation", decisionHandler.GetRemediationActions)
			apiGroup.GET("/transfers/feasibility", decisionHandler.GetTransferFeasibility)
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
