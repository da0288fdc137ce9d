package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/database"
	"github.com/codyseavey/pokemarket/internal/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func createCard(t *testing.T, db *gorm.DB, name, set string) models.Card {
	t.Helper()
	card := models.Card{CardName: name, SetName: set, Condition: models.UnknownValue, Confidence: models.ConfidenceLow}
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("create card: %v", err)
	}
	return card
}

func price(v float64) *float64 { return &v }

// fakePrices answers price lookups from a map keyed by card name
type fakePrices struct {
	mu     sync.Mutex
	quotes map[string]float64
	errs   map[string]error
	calls  int
}

func (f *fakePrices) FetchCardPrice(_ context.Context, cardName, _ string) (*PriceQuote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err, ok := f.errs[cardName]; ok {
		return nil, err
	}
	p, ok := f.quotes[cardName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPriceNotFound, cardName)
	}
	return &PriceQuote{MarketPrice: price(p), LowPrice: price(p * 0.8), HighPrice: price(p * 1.5), FetchedAt: time.Now().UTC()}, nil
}

func (f *fakePrices) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
