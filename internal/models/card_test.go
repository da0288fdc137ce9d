package models

import (
	"testing"
)

func TestCardCreateWithDefaults(t *testing.T) {
	req := CardCreate{CardName: "Pikachu"}.WithDefaults()

	tests := []struct {
		name     string
		got      string
		expected string
	}{
		{"set name", req.SetName, UnknownValue},
		{"card number", req.CardNumber, UnknownValue},
		{"rarity", req.Rarity, UnknownValue},
		{"condition", req.Condition, UnknownValue},
		{"confidence", req.Confidence, ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.expected)
			}
		})
	}

	if req.CardName != "Pikachu" {
		t.Errorf("card name should be kept, got %q", req.CardName)
	}
}

func TestCardCreateWithDefaultsKeepsSuppliedValues(t *testing.T) {
	req := CardCreate{
		CardName:   "Charizard",
		SetName:    "Base Set",
		CardNumber: "4/102",
		Rarity:     "Holo Rare",
		Condition:  "Near Mint",
		Confidence: ConfidenceHigh,
	}.WithDefaults()

	if req.SetName != "Base Set" || req.CardNumber != "4/102" || req.Rarity != "Holo Rare" ||
		req.Condition != "Near Mint" || req.Confidence != ConfidenceHigh {
		t.Errorf("supplied values were overwritten: %+v", req)
	}
}

func TestCardValidate(t *testing.T) {
	negative := -1.0
	positive := 12.5

	tests := []struct {
		name    string
		card    Card
		wantErr bool
	}{
		{"valid", Card{CardName: "Pikachu", MarketPrice: &positive}, false},
		{"missing name", Card{}, true},
		{"negative market price", Card{CardName: "Pikachu", MarketPrice: &negative}, true},
		{"negative low price", Card{CardName: "Pikachu", LowPrice: &negative}, true},
		{"nil prices", Card{CardName: "Pikachu"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.card.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCardIsSaved(t *testing.T) {
	card := Card{CardName: "Pikachu"}
	if card.IsSaved() {
		t.Error("card without id should not be saved")
	}
	card.ID = 7
	if !card.IsSaved() {
		t.Error("card with id should be saved")
	}
}

func TestCardIdentificationNormalize(t *testing.T) {
	id := CardIdentification{CardName: "Mew", Rarity: "Rare"}
	id.Normalize()

	if id.CardName != "Mew" || id.Rarity != "Rare" {
		t.Errorf("present fields changed: %+v", id)
	}
	if id.SetName != UnknownValue || id.CardNumber != UnknownValue || id.Condition != UnknownValue {
		t.Errorf("missing fields not filled: %+v", id)
	}
	if id.Confidence != ConfidenceLow {
		t.Errorf("confidence = %q, want %q", id.Confidence, ConfidenceLow)
	}
}

func TestTrendAnalysisEmpty(t *testing.T) {
	var nilTrend *TrendAnalysis
	if !nilTrend.Empty() {
		t.Error("nil trend should be empty")
	}
	if !(&TrendAnalysis{}).Empty() {
		t.Error("zero trend should be empty")
	}
	if (&TrendAnalysis{Trend: "Stable"}).Empty() {
		t.Error("trend with label should not be empty")
	}
}

func TestPriceHistoryHasTrend(t *testing.T) {
	var h *PriceHistory
	if h.HasTrend() {
		t.Error("nil history has no trend")
	}
	h = &PriceHistory{TrendAnalysis: &TrendAnalysis{Trend: "Upward"}}
	if !h.HasTrend() {
		t.Error("expected trend")
	}
}

func TestParseRecommendation(t *testing.T) {
	tests := []struct {
		input    string
		expected Recommendation
	}{
		{"BUY", RecommendationBuy},
		{"SELL", RecommendationSell},
		{"HOLD", RecommendationHold},
		{"buy", RecommendationHold},
		{"", RecommendationHold},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseRecommendation(tt.input); got != tt.expected {
				t.Errorf("ParseRecommendation(%q) = %s, want %s", tt.input, got, tt.expected)
			}
		})
	}
}

func TestAIInsightsAvailable(t *testing.T) {
	a := &AIInsights{CardID: 1}
	if a.Available() {
		t.Error("insights without ai_insights should not be available")
	}
	a.Insights = &Insight{Recommendation: RecommendationBuy}
	if !a.Available() {
		t.Error("insights should be available")
	}
}
