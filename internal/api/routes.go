package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/api/handlers"
	"github.com/codyseavey/pokemarket/internal/events"
	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/services"
)

// Deps are the collaborators the routes are served by
type Deps struct {
	DB             *gorm.DB
	Prices         services.PriceFetcher
	Images         *services.ImageStorageService
	Snapshots      *services.SnapshotService
	Market         *services.MarketService
	Publisher      events.Publisher
	AllowedOrigins []string
	Logger         *slog.Logger
}

func SetupRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), metrics.Middleware())

	config := cors.DefaultConfig()
	if len(deps.AllowedOrigins) == 0 || (len(deps.AllowedOrigins) == 1 && deps.AllowedOrigins[0] == "*") {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = deps.AllowedOrigins
	}
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	config.AllowCredentials = false
	router.Use(cors.New(config))

	cardHandler := handlers.NewCardHandler(deps.DB, deps.Prices, deps.Images, deps.Market, deps.Publisher, deps.Logger)
	priceHandler := handlers.NewPriceHandler(deps.Snapshots)

	// Serve scanned images
	if deps.Images != nil {
		router.Static(services.ScannedImagesRoute, deps.Images.GetStorageDir())
	}

	cards := router.Group("/cards")
	{
		cards.POST("/", cardHandler.CreateCard)
		cards.GET("/", cardHandler.ListCards)
		cards.GET("/:id", cardHandler.GetCard)
		cards.DELETE("/:id", cardHandler.DeleteCard)
		cards.GET("/:id/price-history", cardHandler.GetPriceHistory)
		cards.GET("/:id/ai-insights", cardHandler.GetAIInsights)
	}

	priceHistory := router.Group("/price-history")
	{
		priceHistory.POST("/snapshot/:card_id", priceHandler.CaptureSnapshot)
		priceHistory.POST("/snapshot-all", priceHandler.CaptureAllSnapshots)
		priceHistory.GET("/:card_id", priceHandler.GetSnapshotHistory)
	}

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "PokéMarket AI API is running!", "status": "healthy"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
