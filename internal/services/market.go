package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codyseavey/pokemarket/internal/models"
)

// Messages returned in place of unavailable data
const (
	MessageHistoryUnavailable  = "Price history not available"
	MessageInsufficientHistory = "Not enough price history to generate insights"
	MessageInsightsUnavailable = "AI insights not available"
)

// minLocalPoints is the local sample count below which the remote tracker is asked
const minLocalPoints = 2

// MarketService assembles the price history and AI insights of a card
type MarketService struct {
	snapshots *SnapshotService
	tracker   HistoryFetcher
	insights  InsightGenerator
	days      int
	logger    *slog.Logger
}

// NewMarketService wires the history sources. tracker and insights may be nil.
func NewMarketService(snapshots *SnapshotService, tracker HistoryFetcher, insights InsightGenerator, days int, logger *slog.Logger) *MarketService {
	if logger == nil {
		logger = slog.Default()
	}
	if days <= 0 {
		days = 90
	}
	return &MarketService{
		snapshots: snapshots,
		tracker:   tracker,
		insights:  insights,
		days:      days,
		logger:    logger.With("component", "market"),
	}
}

// History returns the card's price series and trend. A card with no data
// gets a nil series and MessageHistoryUnavailable rather than an error.
func (s *MarketService) History(ctx context.Context, card *models.Card) (*models.PriceHistory, error) {
	series, err := s.snapshots.Series(ctx, card.ID, s.days)
	if err != nil {
		return nil, err
	}
	lastUpdated := s.snapshots.now().UTC()

	if seriesLen(series) < minLocalPoints && s.tracker != nil {
		remote, err := s.tracker.FetchPriceHistory(ctx, card.CardName, card.SetName)
		switch {
		case err == nil:
			series = remote.Series
			lastUpdated = remote.FetchedAt
		case errors.Is(err, ErrHistoryUnavailable):
			s.logger.Debug("no remote history", "card_id", card.ID, "reason", err)
		default:
			s.logger.Warn("remote history lookup failed", "card_id", card.ID, "error", err)
		}
	}

	if seriesLen(series) == 0 {
		return &models.PriceHistory{
			CardID:   card.ID,
			CardName: card.CardName,
			Message:  MessageHistoryUnavailable,
		}, nil
	}

	return &models.PriceHistory{
		CardID:        card.ID,
		CardName:      card.CardName,
		SetName:       card.SetName,
		CurrentPrice:  card.MarketPrice,
		PriceHistory:  series,
		TrendAnalysis: AnalyzeSeries(series),
		LastUpdated:   &lastUpdated,
	}, nil
}

// Insights returns today's AI analysis of the card. Missing trend data or
// a failing model yields null insights with an explanatory message.
func (s *MarketService) Insights(ctx context.Context, card *models.Card) (*models.AIInsights, error) {
	history, err := s.History(ctx, card)
	if err != nil {
		return nil, err
	}

	resp := &models.AIInsights{
		CardID:        card.ID,
		CardName:      card.CardName,
		SetName:       card.SetName,
		CurrentPrice:  card.MarketPrice,
		TrendAnalysis: history.TrendAnalysis,
	}
	if !history.HasTrend() {
		resp.Message = MessageInsufficientHistory
		return resp, nil
	}
	if s.insights == nil {
		resp.Message = MessageInsightsUnavailable
		return resp, nil
	}

	insight, err := s.insights.GenerateInsights(ctx, card, history.TrendAnalysis)
	if err != nil {
		if !errors.Is(err, ErrInsightsDisabled) {
			s.logger.Warn("insight generation failed", "card_id", card.ID, "error", err)
		}
		resp.Message = MessageInsightsUnavailable
		return resp, nil
	}
	resp.Insights = insight
	return resp, nil
}

func seriesLen(series models.PriceSeries) int {
	n := 0
	for _, samples := range series {
		n = max(n, len(samples))
	}
	return n
}
