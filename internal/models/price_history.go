package models

import (
	"encoding/json"
	"time"
)

// ConditionNearMint is the condition whose series drives the price chart
const ConditionNearMint = "Near Mint"

// AllConditions returns the physical conditions prices are tracked for
func AllConditions() []string {
	return []string{
		"Mint",
		ConditionNearMint,
		"Lightly Played",
		"Moderately Played",
		"Heavily Played",
		"Damaged",
	}
}

// PriceSample is one point of a price time series
type PriceSample struct {
	Date   string  `json:"date"`
	Market float64 `json:"market"`
}

// PriceSeries maps a physical condition to its chronological samples
type PriceSeries map[string][]PriceSample

// TrendAnalysis is the server-computed summary over a price series
type TrendAnalysis struct {
	Trend             string  `json:"trend"`
	WeekChangePercent float64 `json:"week_change_percent"`
	LowestPrice       float64 `json:"lowest_price"`
	HighestPrice      float64 `json:"highest_price"`
	AveragePrice      float64 `json:"average_price"`
	TotalDataPoints   int     `json:"total_data_points"`
}

// Empty reports whether the summary carries no usable trend
func (t *TrendAnalysis) Empty() bool {
	return t == nil || t.Trend == ""
}

// PriceHistory is the response of GET /cards/{id}/price-history
type PriceHistory struct {
	CardID        uint           `json:"card_id"`
	CardName      string         `json:"card_name"`
	SetName       string         `json:"set_name,omitempty"`
	CurrentPrice  *float64       `json:"current_price,omitempty"`
	PriceHistory  PriceSeries    `json:"price_history"`
	TrendAnalysis *TrendAnalysis `json:"trend_analysis,omitempty"`
	LastUpdated   *time.Time     `json:"last_updated,omitempty"`
	Message       string         `json:"message,omitempty"`
}

func (h *PriceHistory) UnmarshalJSON(data []byte) error {
	type plain PriceHistory
	aux := struct {
		*plain
		LastUpdated *Timestamp `json:"last_updated"`
	}{plain: (*plain)(h)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	h.LastUpdated = aux.LastUpdated.ptr()
	return nil
}

// HasTrend is false when the backend had insufficient data to summarize
func (h *PriceHistory) HasTrend() bool {
	return h != nil && !h.TrendAnalysis.Empty()
}

// PriceSnapshot is one stored daily price observation for a card
type PriceSnapshot struct {
	ID           uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	CardID       uint      `json:"card_id" gorm:"not null;index"`
	MarketPrice  *float64  `json:"market_price"`
	LowPrice     *float64  `json:"low_price"`
	HighPrice    *float64  `json:"high_price"`
	Condition    string    `json:"condition" gorm:"default:'Near Mint'"`
	SnapshotDate time.Time `json:"snapshot_date" gorm:"not null;index"`
}

// TableName keeps the table name used by the original schema
func (PriceSnapshot) TableName() string {
	return "price_history"
}

// SnapshotSummary describes one captured snapshot in a batch result
type SnapshotSummary struct {
	CardID   uint     `json:"card_id"`
	CardName string   `json:"card_name"`
	Price    *float64 `json:"price"`
}

// SnapshotBatchResult is returned by POST /price-history/snapshot-all
type SnapshotBatchResult struct {
	TotalCards int               `json:"total_cards"`
	Successful int               `json:"successful"`
	Skipped    int               `json:"skipped"`
	Failed     int               `json:"failed"`
	Snapshots  []SnapshotSummary `json:"snapshots"`
}
