package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/models"
)

func anthropicReply(text string) []byte {
	body, _ := json.Marshal(map[string]any{
		"id":            "msg_1",
		"type":          "message",
		"role":          "assistant",
		"model":         "claude-sonnet-4-20250514",
		"content":       []map[string]any{{"type": "text", "text": text}},
		"stop_reason":   "end_turn",
		"stop_sequence": nil,
		"usage":         map[string]any{"input_tokens": 1, "output_tokens": 1},
	})
	return body
}

func newTestInsights(t *testing.T, handler http.HandlerFunc) (*AIInsightsService, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return NewAIInsightsService(config.VisionConfig{APIKey: "sk-test", BaseURL: srv.URL}, nil), &calls
}

func TestParseInsight(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		rec        models.Recommendation
		confidence int
	}{
		{"plain", `{"prediction":"Up","recommendation":"BUY","reasoning":"Demand","confidence":85}`, models.RecommendationBuy, 85},
		{"fenced", "```json\n{\"recommendation\":\"sell\",\"confidence\":\"40%\"}\n```", models.RecommendationSell, 40},
		{"defaults", `{"prediction":"?"}`, models.RecommendationHold, 50},
		{"unknown recommendation", `{"recommendation":"MAYBE","confidence":150}`, models.RecommendationHold, 100},
		{"fractional confidence", `{"recommendation":"HOLD","confidence":72.6}`, models.RecommendationHold, 73},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseInsight(tt.text)
			if err != nil {
				t.Fatalf("parseInsight() error: %v", err)
			}
			if got.Recommendation != tt.rec {
				t.Errorf("recommendation = %q, want %q", got.Recommendation, tt.rec)
			}
			if got.Confidence != tt.confidence {
				t.Errorf("confidence = %d, want %d", got.Confidence, tt.confidence)
			}
		})
	}

	if _, err := parseInsight("I cannot help with that."); err == nil {
		t.Error("expected an error for a reply without JSON")
	}
}

func TestInsightsPrompt(t *testing.T) {
	card := &models.Card{CardName: "Charizard", SetName: "Base Set", MarketPrice: price(350.5)}
	trend := &models.TrendAnalysis{Trend: TrendUpward, WeekChangePercent: 6.25, AveragePrice: 340, LowestPrice: 300, HighestPrice: 360, TotalDataPoints: 30}

	prompt := insightsPrompt(card, trend)
	for _, want := range []string{"Card: Charizard (Base Set)", "Current Price: $350.50", "- Trend: Upward", "- Week Change: 6.25%", "- Price Range: $300.00 - $360.00", "- Data Points: 30 days", `"recommendation": "BUY|HOLD|SELL"`} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestGenerateInsights_CachedPerDay(t *testing.T) {
	svc, calls := newTestInsights(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(anthropicReply(`{"prediction":"Up","recommendation":"BUY","reasoning":"Demand","confidence":85}`))
	})
	day := time.Date(2024, 5, 10, 8, 0, 0, 0, time.UTC)
	svc.now = fixedClock(day)
	card := &models.Card{ID: 1, CardName: "Charizard", SetName: "Base Set"}
	trend := &models.TrendAnalysis{Trend: TrendUpward, TotalDataPoints: 2}

	first, err := svc.GenerateInsights(context.Background(), card, trend)
	if err != nil {
		t.Fatalf("GenerateInsights() error: %v", err)
	}
	if first.Recommendation != models.RecommendationBuy || first.Confidence != 85 || !first.GeneratedAt.Equal(day) {
		t.Errorf("unexpected insight %+v", first)
	}

	if _, err := svc.GenerateInsights(context.Background(), card, trend); err != nil {
		t.Fatalf("second GenerateInsights() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected the cached insight to be reused, got %d calls", calls.Load())
	}

	svc.now = fixedClock(day.AddDate(0, 0, 1))
	if _, err := svc.GenerateInsights(context.Background(), card, trend); err != nil {
		t.Fatalf("next-day GenerateInsights() error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected a new call on the next day, got %d calls", calls.Load())
	}
}

func TestGenerateInsights_Errors(t *testing.T) {
	disabled := NewAIInsightsService(config.VisionConfig{}, nil)
	if disabled.Enabled() {
		t.Error("expected service without key to be disabled")
	}
	if _, err := disabled.GenerateInsights(context.Background(), &models.Card{ID: 1}, nil); !errors.Is(err, ErrInsightsDisabled) {
		t.Errorf("expected ErrInsightsDisabled, got %v", err)
	}

	svc, calls := newTestInsights(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"boom"}}`))
	})
	if _, err := svc.GenerateInsights(context.Background(), &models.Card{ID: 2}, nil); err == nil {
		t.Error("expected an error for a failing API")
	}
	if calls.Load() != 1 {
		t.Errorf("expected no retries, got %d calls", calls.Load())
	}
}
