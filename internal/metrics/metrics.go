// Package metrics provides Prometheus metrics for the PokéMarket backend.
// Scrape these at /metrics.
package metrics

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// HTTP Metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokemarket_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pokemarket_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Price lookup metrics (pokemontcg.io)
	PriceLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokemarket_price_lookups_total",
			Help: "Total number of pokemontcg.io price lookups",
		},
		[]string{"result"}, // "found", "not_found", "error"
	)

	PriceLookupDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokemarket_price_lookup_duration_seconds",
			Help:    "pokemontcg.io request latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
	)

	// Snapshot metrics
	SnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokemarket_snapshots_total",
			Help: "Price snapshot attempts by outcome",
		},
		[]string{"result"}, // "created", "existing", "no_price"
	)

	// AI insights metrics
	InsightsRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pokemarket_ai_insights_requests_total",
			Help: "AI insight requests by source",
		},
		[]string{"source"}, // "cache", "api", "error"
	)

	InsightsLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pokemarket_ai_insights_latency_seconds",
			Help:    "Anthropic API call latency for insights",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30},
		},
	)

	// Collection Metrics
	CollectionCardsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokemarket_collection_cards_total",
			Help: "Total number of cards in the portfolio",
		},
	)

	CollectionValueUSD = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pokemarket_collection_value_usd",
			Help: "Sum of market prices of all cards in USD",
		},
	)
)

// Middleware records request counts and latency per route template
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// UpdateCollectionMetrics refreshes the portfolio gauges from the database
func UpdateCollectionMetrics(db *gorm.DB) {
	var stats struct {
		Count int64
		Value float64
	}
	err := db.Table("cards").
		Select("COUNT(*) AS count, COALESCE(SUM(market_price), 0) AS value").
		Scan(&stats).Error
	if err != nil {
		slog.Warn("failed to update collection metrics", "error", err)
		return
	}
	CollectionCardsTotal.Set(float64(stats.Count))
	CollectionValueUSD.Set(stats.Value)
}
