package analytics

import (
	"fmt"
	"strings"

	"github.com/codyseavey/pokemarket/internal/models"
)

// Polarity is the direction an indicator conveys.
type Polarity int

const (
	Neutral Polarity = iota
	Positive
	Negative
)

func (p Polarity) String() string {
	switch p {
	case Positive:
		return "positive"
	case Negative:
		return "negative"
	default:
		return "neutral"
	}
}

// Indicator is a colored marker for a trend label or recommendation.
type Indicator struct {
	Polarity Polarity
	emoji    string
}

// Color returns the hex color of the indicator.
func (i Indicator) Color() string {
	switch i.Polarity {
	case Positive:
		return "#4CAF50"
	case Negative:
		return "#f44336"
	default:
		return "#FFD700"
	}
}

// Emoji returns the glyph shown next to the value.
func (i Indicator) Emoji() string {
	return i.emoji
}

// TrendIndicator classifies a server trend label by case-sensitive substring:
// "Upward" is positive, "Downward" negative, anything else neutral.
func TrendIndicator(trend string) Indicator {
	switch {
	case strings.Contains(trend, "Upward"):
		return Indicator{Polarity: Positive, emoji: "📈"}
	case strings.Contains(trend, "Downward"):
		return Indicator{Polarity: Negative, emoji: "📉"}
	default:
		return Indicator{Polarity: Neutral, emoji: "➡️"}
	}
}

// RecommendationIndicator classifies by exact match on BUY and SELL.
func RecommendationIndicator(rec string) Indicator {
	switch models.Recommendation(rec) {
	case models.RecommendationBuy:
		return Indicator{Polarity: Positive, emoji: "🟢"}
	case models.RecommendationSell:
		return Indicator{Polarity: Negative, emoji: "🔴"}
	default:
		return Indicator{Polarity: Neutral, emoji: "🟡"}
	}
}

// ChangeIndicator colors a week-over-week change: only gains are positive.
func ChangeIndicator(pct float64) Indicator {
	if pct > 0 {
		return Indicator{Polarity: Positive, emoji: "▲"}
	}
	return Indicator{Polarity: Negative, emoji: "▼"}
}

// FormatChange renders a percent change with two decimals and an explicit
// plus sign on gains.
func FormatChange(pct float64) string {
	if pct > 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// FormatPrice renders a price in dollars, or N/A when unknown.
func FormatPrice(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("$%.2f", *p)
}
