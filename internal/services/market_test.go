package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/codyseavey/pokemarket/internal/models"
)

type fakeTracker struct {
	history *TrackerHistory
	err     error
	calls   int
}

func (f *fakeTracker) FetchPriceHistory(context.Context, string, string) (*TrackerHistory, error) {
	f.calls++
	return f.history, f.err
}

type fakeInsights struct {
	insight *models.Insight
	err     error
	calls   int
}

func (f *fakeInsights) GenerateInsights(context.Context, *models.Card, *models.TrendAnalysis) (*models.Insight, error) {
	f.calls++
	return f.insight, f.err
}

func seedSnapshots(t *testing.T, svc *SnapshotService, cardID uint, now time.Time, prices ...float64) {
	t.Helper()
	for i, p := range prices {
		snap := models.PriceSnapshot{
			CardID:       cardID,
			MarketPrice:  price(p),
			Condition:    models.ConditionNearMint,
			SnapshotDate: now.AddDate(0, 0, i-len(prices)),
		}
		if err := svc.db.Create(&snap).Error; err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}
}

func TestMarketHistory_LocalSnapshots(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	snaps, _ := newTestSnapshots(t, nil, now)
	card := createCard(t, snaps.db, "Charizard", "Base Set")
	seedSnapshots(t, snaps, card.ID, now, 100, 120)
	tracker := &fakeTracker{err: ErrHistoryUnavailable}

	market := NewMarketService(snaps, tracker, nil, 90, nil)
	h, err := market.History(context.Background(), &card)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if tracker.calls != 0 {
		t.Error("tracker should not be asked when local history suffices")
	}
	if !h.HasTrend() || h.TrendAnalysis.Trend != TrendStrongUpward {
		t.Errorf("unexpected trend %+v", h.TrendAnalysis)
	}
	if len(h.PriceHistory[models.ConditionNearMint]) != 2 {
		t.Errorf("unexpected series %+v", h.PriceHistory)
	}
}

func TestMarketHistory_TrackerFallback(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	snaps, _ := newTestSnapshots(t, nil, now)
	card := createCard(t, snaps.db, "Charizard", "Base Set")
	seedSnapshots(t, snaps, card.ID, now, 100)
	tracker := &fakeTracker{history: &TrackerHistory{
		Series: models.PriceSeries{models.ConditionNearMint: {
			{Date: "2024-05-01", Market: 100}, {Date: "2024-05-02", Market: 101}, {Date: "2024-05-03", Market: 102},
		}},
		FetchedAt: now,
	}}

	market := NewMarketService(snaps, tracker, nil, 90, nil)
	h, err := market.History(context.Background(), &card)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if tracker.calls != 1 {
		t.Errorf("expected 1 tracker call, got %d", tracker.calls)
	}
	if h.TrendAnalysis.TotalDataPoints != 3 {
		t.Errorf("expected remote series, got %+v", h.TrendAnalysis)
	}
}

func TestMarketHistory_Unavailable(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	snaps, _ := newTestSnapshots(t, nil, now)
	card := createCard(t, snaps.db, "Charizard", "Base Set")

	market := NewMarketService(snaps, &fakeTracker{err: errors.New("boom")}, nil, 90, nil)
	h, err := market.History(context.Background(), &card)
	if err != nil {
		t.Fatalf("History() error: %v", err)
	}
	if h.Message != MessageHistoryUnavailable || h.PriceHistory != nil || h.HasTrend() {
		t.Errorf("expected unavailable history, got %+v", h)
	}
}

func TestMarketInsights(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	snaps, _ := newTestSnapshots(t, nil, now)
	card := createCard(t, snaps.db, "Charizard", "Base Set")
	bare := createCard(t, snaps.db, "Pikachu", "Jungle")
	seedSnapshots(t, snaps, card.ID, now, 100, 95, 90)

	t.Run("insufficient history", func(t *testing.T) {
		gen := &fakeInsights{}
		resp, err := NewMarketService(snaps, nil, gen, 90, nil).Insights(context.Background(), &bare)
		if err != nil {
			t.Fatalf("Insights() error: %v", err)
		}
		if resp.Available() || resp.Message != MessageInsufficientHistory || gen.calls != 0 {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("generated", func(t *testing.T) {
		gen := &fakeInsights{insight: &models.Insight{Recommendation: models.RecommendationSell, Confidence: 70}}
		resp, err := NewMarketService(snaps, nil, gen, 90, nil).Insights(context.Background(), &card)
		if err != nil {
			t.Fatalf("Insights() error: %v", err)
		}
		if !resp.Available() || resp.Insights.Recommendation != models.RecommendationSell {
			t.Errorf("unexpected response %+v", resp)
		}
		if resp.TrendAnalysis == nil || resp.TrendAnalysis.Trend != TrendDownward {
			t.Errorf("expected embedded trend, got %+v", resp.TrendAnalysis)
		}
	})

	t.Run("generator failure", func(t *testing.T) {
		gen := &fakeInsights{err: errors.New("overloaded")}
		resp, err := NewMarketService(snaps, nil, gen, 90, nil).Insights(context.Background(), &card)
		if err != nil {
			t.Fatalf("Insights() error: %v", err)
		}
		if resp.Available() || resp.Message != MessageInsightsUnavailable || resp.TrendAnalysis == nil {
			t.Errorf("unexpected response %+v", resp)
		}
	})

	t.Run("no generator", func(t *testing.T) {
		resp, err := NewMarketService(snaps, nil, nil, 90, nil).Insights(context.Background(), &card)
		if err != nil {
			t.Fatalf("Insights() error: %v", err)
		}
		if resp.Message != MessageInsightsUnavailable {
			t.Errorf("unexpected response %+v", resp)
		}
	})
}
