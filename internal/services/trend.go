package services

import (
	"math"

	"github.com/codyseavey/pokemarket/internal/models"
)

// Trend labels by week-over-week change
const (
	TrendStrongUpward   = "Strong Upward"
	TrendUpward         = "Upward"
	TrendStable         = "Stable"
	TrendDownward       = "Downward"
	TrendStrongDownward = "Strong Downward"
)

// AnalyzeTrend summarizes a chronological price list.
// It returns nil with fewer than two prices.
func AnalyzeTrend(prices []float64) *models.TrendAnalysis {
	if len(prices) < 2 {
		return nil
	}

	current := prices[len(prices)-1]
	weekAgo := prices[0]
	if len(prices) >= 7 {
		weekAgo = prices[len(prices)-7]
	}

	var weekChange float64
	if weekAgo > 0 {
		weekChange = (current - weekAgo) / weekAgo * 100
	}

	lowest, highest, sum := prices[0], prices[0], 0.0
	for _, p := range prices {
		lowest = math.Min(lowest, p)
		highest = math.Max(highest, p)
		sum += p
	}

	return &models.TrendAnalysis{
		Trend:             trendLabel(weekChange),
		WeekChangePercent: round2(weekChange),
		LowestPrice:       lowest,
		HighestPrice:      highest,
		AveragePrice:      round2(sum / float64(len(prices))),
		TotalDataPoints:   len(prices),
	}
}

// AnalyzeSeries runs AnalyzeTrend over the Near Mint series, or the longest
// series when Near Mint is missing.
func AnalyzeSeries(series models.PriceSeries) *models.TrendAnalysis {
	samples := series[models.ConditionNearMint]
	if len(samples) == 0 {
		for _, condition := range models.AllConditions() {
			if s := series[condition]; len(s) > len(samples) {
				samples = s
			}
		}
	}
	if len(samples) == 0 {
		for _, s := range series {
			if len(s) > len(samples) {
				samples = s
			}
		}
	}

	prices := make([]float64, len(samples))
	for i, s := range samples {
		prices[i] = s.Market
	}
	return AnalyzeTrend(prices)
}

func trendLabel(weekChange float64) string {
	switch {
	case weekChange > 10:
		return TrendStrongUpward
	case weekChange > 5:
		return TrendUpward
	case weekChange < -10:
		return TrendStrongDownward
	case weekChange < -5:
		return TrendDownward
	default:
		return TrendStable
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
