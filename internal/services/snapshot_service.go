package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/events"
	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/models"
)

var (
	// ErrCardNotFound is returned when a card id has no row
	ErrCardNotFound = errors.New("card not found")
	// ErrPriceLookup wraps failures of the price source during a snapshot
	ErrPriceLookup = errors.New("price lookup failed")
)

// SnapshotService records one price snapshot per card per day
type SnapshotService struct {
	db        *gorm.DB
	prices    PriceFetcher
	publisher events.Publisher
	logger    *slog.Logger

	mu            sync.Mutex
	lastBatch     time.Time
	snapshotHour  int // Hour of day (UTC) to take the batch snapshot (0-23)
	checkInterval time.Duration
	now           func() time.Time
}

func NewSnapshotService(db *gorm.DB, prices PriceFetcher, publisher events.Publisher, snapshotHour int, logger *slog.Logger) *SnapshotService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &SnapshotService{
		db:            db,
		prices:        prices,
		publisher:     publisher,
		logger:        logger.With("component", "snapshots"),
		snapshotHour:  snapshotHour,
		checkInterval: 15 * time.Minute,
		now:           time.Now,
	}
}

// Start begins the background snapshot worker
func (s *SnapshotService) Start(ctx context.Context) {
	s.logger.Info("snapshot service started", "hour", s.snapshotHour, "interval", s.checkInterval)

	s.checkAndSnapshot(ctx)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("snapshot service stopping")
			return
		case <-ticker.C:
			s.checkAndSnapshot(ctx)
		}
	}
}

// checkAndSnapshot runs the daily batch once the configured hour has passed
func (s *SnapshotService) checkAndSnapshot(ctx context.Context) bool {
	now := s.now().UTC()
	today := startOfDay(now)

	s.mu.Lock()
	done := !s.lastBatch.Before(today)
	s.mu.Unlock()
	if done || now.Hour() < s.snapshotHour {
		return false
	}

	result := s.CaptureAll(ctx)
	s.logger.Info("daily snapshot batch completed",
		"total", result.TotalCards, "successful", result.Successful,
		"skipped", result.Skipped, "failed", result.Failed)

	s.mu.Lock()
	s.lastBatch = now
	s.mu.Unlock()
	return true
}

// Capture stores today's snapshot for a card. An existing snapshot from
// today is returned unchanged without a price lookup.
func (s *SnapshotService) Capture(ctx context.Context, cardID uint) (*models.PriceSnapshot, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).First(&card, cardID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %d", ErrCardNotFound, cardID)
		}
		return nil, fmt.Errorf("failed to load card %d: %w", cardID, err)
	}

	now := s.now().UTC()
	var existing models.PriceSnapshot
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND snapshot_date >= ?", cardID, startOfDay(now)).
		First(&existing).Error
	if err == nil {
		metrics.SnapshotsTotal.WithLabelValues("existing").Inc()
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check today's snapshot: %w", err)
	}

	quote, err := s.prices.FetchCardPrice(ctx, card.CardName, card.SetName)
	if err != nil {
		metrics.SnapshotsTotal.WithLabelValues("no_price").Inc()
		return nil, fmt.Errorf("%w for card %d: %w", ErrPriceLookup, cardID, err)
	}

	snapshot := models.PriceSnapshot{
		CardID:       cardID,
		MarketPrice:  quote.MarketPrice,
		LowPrice:     quote.LowPrice,
		HighPrice:    quote.HighPrice,
		Condition:    models.ConditionNearMint,
		SnapshotDate: now,
	}
	if err := s.db.WithContext(ctx).Create(&snapshot).Error; err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}

	metrics.SnapshotsTotal.WithLabelValues("created").Inc()
	s.logger.Debug("snapshot created", "card_id", cardID, "card_name", card.CardName)
	return &snapshot, nil
}

// CaptureAll snapshots every card. Cards without a price are skipped;
// any other error counts as failed.
func (s *SnapshotService) CaptureAll(ctx context.Context) models.SnapshotBatchResult {
	result := models.SnapshotBatchResult{Snapshots: []models.SnapshotSummary{}}

	var cards []models.Card
	if err := s.db.WithContext(ctx).Order("id").Find(&cards).Error; err != nil {
		s.logger.Error("failed to list cards for snapshot batch", "error", err)
		return result
	}
	result.TotalCards = len(cards)

	for _, card := range cards {
		if ctx.Err() != nil {
			result.Failed += result.TotalCards - result.Successful - result.Skipped - result.Failed
			break
		}
		snapshot, err := s.Capture(ctx, card.ID)
		switch {
		case err == nil:
			result.Successful++
			result.Snapshots = append(result.Snapshots, models.SnapshotSummary{
				CardID:   card.ID,
				CardName: card.CardName,
				Price:    snapshot.MarketPrice,
			})
		case errors.Is(err, ErrPriceNotFound), errors.Is(err, ErrCardNotFound):
			result.Skipped++
		default:
			s.logger.Warn("snapshot failed", "card_id", card.ID, "error", err)
			result.Failed++
		}
	}

	if err := s.publisher.Publish(ctx, events.SubjectSnapshotsCaptured, result); err != nil {
		s.logger.Warn("failed to publish snapshot batch", "error", err)
	}
	return result
}

// History returns a card's snapshots from the last days, oldest first
func (s *SnapshotService) History(ctx context.Context, cardID uint, days int) ([]models.PriceSnapshot, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -days)

	snapshots := []models.PriceSnapshot{}
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND snapshot_date >= ?", cardID, cutoff).
		Order("snapshot_date ASC").
		Find(&snapshots).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshots: %w", err)
	}
	return snapshots, nil
}

// Series groups a card's recent snapshots by condition
func (s *SnapshotService) Series(ctx context.Context, cardID uint, days int) (models.PriceSeries, error) {
	snapshots, err := s.History(ctx, cardID, days)
	if err != nil {
		return nil, err
	}
	return SeriesFromSnapshots(snapshots), nil
}

// SeriesFromSnapshots converts stored snapshots into chart samples.
// Snapshots without a market price are left out.
func SeriesFromSnapshots(snapshots []models.PriceSnapshot) models.PriceSeries {
	series := models.PriceSeries{}
	for _, snap := range snapshots {
		if snap.MarketPrice == nil {
			continue
		}
		condition := snap.Condition
		if condition == "" {
			condition = models.ConditionNearMint
		}
		series[condition] = append(series[condition], models.PriceSample{
			Date:   snap.SnapshotDate.UTC().Format(time.DateOnly),
			Market: *snap.MarketPrice,
		})
	}
	return series
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
