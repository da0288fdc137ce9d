package models

import (
	"encoding/json"
	"time"
)

// Recommendation is the AI's action call for a card
type Recommendation string

const (
	RecommendationBuy  Recommendation = "BUY"
	RecommendationHold Recommendation = "HOLD"
	RecommendationSell Recommendation = "SELL"
)

// ParseRecommendation maps a model reply to a known recommendation, HOLD otherwise
func ParseRecommendation(s string) Recommendation {
	switch Recommendation(s) {
	case RecommendationBuy, RecommendationSell:
		return Recommendation(s)
	default:
		return RecommendationHold
	}
}

// Insight is the generated buy/hold/sell analysis for a card
type Insight struct {
	Prediction     string         `json:"prediction"`
	Recommendation Recommendation `json:"recommendation"`
	Reasoning      string         `json:"reasoning"`
	Confidence     int            `json:"confidence"` // 0-100
	GeneratedAt    time.Time      `json:"generated_at"`
}

func (i *Insight) UnmarshalJSON(data []byte) error {
	type plain Insight
	aux := struct {
		*plain
		GeneratedAt Timestamp `json:"generated_at"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	i.GeneratedAt = aux.GeneratedAt.Time
	return nil
}

// AIInsights is the response of GET /cards/{id}/ai-insights
type AIInsights struct {
	CardID        uint           `json:"card_id"`
	CardName      string         `json:"card_name"`
	SetName       string         `json:"set_name,omitempty"`
	CurrentPrice  *float64       `json:"current_price,omitempty"`
	Insights      *Insight       `json:"ai_insights"`
	TrendAnalysis *TrendAnalysis `json:"trend_analysis,omitempty"`
	Message       string         `json:"message,omitempty"`
}

// Available is false while the backend has not produced insights yet
func (a *AIInsights) Available() bool {
	return a != nil && a.Insights != nil
}
