package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/codyseavey/pokemarket/internal/client/vision"
	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/models"
)

const (
	insightsCacheSize  = 256
	defaultConfidence  = 50
	insightsMaxTokens  = 1024
	insightsDateLayout = "2006-01-02"
)

// ErrInsightsDisabled means no Anthropic API key is configured
var ErrInsightsDisabled = errors.New("AI insights are not configured")

// InsightGenerator produces buy/hold/sell insights for a card
type InsightGenerator interface {
	GenerateInsights(ctx context.Context, card *models.Card, trend *models.TrendAnalysis) (*models.Insight, error)
}

// AIInsightsService asks Claude for a market analysis of a card.
// Results are cached per card per day.
type AIInsightsService struct {
	api     anthropic.Client
	enabled bool
	model   string
	cache   *lru.Cache[string, models.Insight]
	logger  *slog.Logger
	now     func() time.Time
}

func NewAIInsightsService(cfg config.VisionConfig, logger *slog.Logger) *AIInsightsService {
	if logger == nil {
		logger = slog.Default()
	}
	model := cfg.Model
	if model == "" {
		model = vision.DefaultModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, models.Insight](insightsCacheSize)

	svc := &AIInsightsService{
		api:     anthropic.NewClient(opts...),
		enabled: cfg.APIKey != "",
		model:   model,
		cache:   cache,
		logger:  logger.With("component", "ai_insights"),
		now:     time.Now,
	}
	if svc.enabled {
		svc.logger.Info("AI insights enabled", "model", model)
	} else {
		svc.logger.Info("AI insights disabled (no ANTHROPIC_API_KEY)")
	}
	return svc
}

// Enabled reports whether an API key is configured
func (s *AIInsightsService) Enabled() bool {
	return s.enabled
}

func (s *AIInsightsService) cacheKey(cardID uint) string {
	return fmt.Sprintf("%d:%s", cardID, s.now().UTC().Format(insightsDateLayout))
}

// GenerateInsights returns today's insight for the card, calling the model on a cache miss
func (s *AIInsightsService) GenerateInsights(ctx context.Context, card *models.Card, trend *models.TrendAnalysis) (*models.Insight, error) {
	if !s.enabled {
		return nil, ErrInsightsDisabled
	}

	key := s.cacheKey(card.ID)
	if cached, ok := s.cache.Get(key); ok {
		metrics.InsightsRequestsTotal.WithLabelValues("cache").Inc()
		return &cached, nil
	}

	start := time.Now()
	msg, err := s.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(s.model),
		MaxTokens: insightsMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(insightsPrompt(card, trend))),
		},
	})
	metrics.InsightsLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to generate insights: %w", err)
	}
	if len(msg.Content) == 0 || msg.Content[0].Text == "" {
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, errors.New("insights response has no text content")
	}

	insight, err := parseInsight(msg.Content[0].Text)
	if err != nil {
		metrics.InsightsRequestsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	insight.GeneratedAt = s.now().UTC()

	s.cache.Add(key, *insight)
	metrics.InsightsRequestsTotal.WithLabelValues("api").Inc()
	s.logger.Info("insights generated", "card_id", card.ID, "recommendation", insight.Recommendation, "confidence", insight.Confidence)
	return insight, nil
}

func insightsPrompt(card *models.Card, trend *models.TrendAnalysis) string {
	var current float64
	if card.MarketPrice != nil {
		current = *card.MarketPrice
	}
	if trend == nil {
		trend = &models.TrendAnalysis{Trend: models.UnknownValue}
	}

	var b strings.Builder
	b.WriteString("You are an expert Pokémon TCG market analyst. Analyze this card's price data and provide investment insights.\n\n")
	fmt.Fprintf(&b, "Card: %s (%s)\n", card.CardName, card.SetName)
	fmt.Fprintf(&b, "Current Price: $%.2f\n\n", current)
	b.WriteString("Price Trend Analysis:\n")
	fmt.Fprintf(&b, "- Trend: %s\n", trend.Trend)
	fmt.Fprintf(&b, "- Week Change: %.2f%%\n", trend.WeekChangePercent)
	fmt.Fprintf(&b, "- Average Price: $%.2f\n", trend.AveragePrice)
	fmt.Fprintf(&b, "- Price Range: $%.2f - $%.2f\n", trend.LowestPrice, trend.HighestPrice)
	fmt.Fprintf(&b, "- Data Points: %d days\n\n", trend.TotalDataPoints)
	b.WriteString(`Based on this data, provide:

1. **Prediction** (1-2 sentences): Short-term price outlook
2. **Recommendation** (one word): BUY, HOLD, or SELL
3. **Reasoning** (2-3 sentences): Why you recommend this action
4. **Confidence** (percentage): How confident are you in this analysis

Format your response as JSON:
{
  "prediction": "...",
  "recommendation": "BUY|HOLD|SELL",
  "reasoning": "...",
  "confidence": 85
}`)
	return b.String()
}

// parseInsight reads the JSON object out of the model reply.
// Missing fields fall back to HOLD and 50% confidence.
func parseInsight(text string) (*models.Insight, error) {
	raw, err := vision.ExtractJSONObject(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}

	var fields struct {
		Prediction     string `json:"prediction"`
		Recommendation string `json:"recommendation"`
		Reasoning      string `json:"reasoning"`
		Confidence     any    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("failed to parse insights: %w", err)
	}

	return &models.Insight{
		Prediction:     fields.Prediction,
		Recommendation: models.ParseRecommendation(strings.ToUpper(strings.TrimSpace(fields.Recommendation))),
		Reasoning:      fields.Reasoning,
		Confidence:     parseConfidence(fields.Confidence),
	}, nil
}

func parseConfidence(v any) int {
	var c float64
	switch t := v.(type) {
	case float64:
		c = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(t), "%"), 64)
		if err != nil {
			return defaultConfidence
		}
		c = f
	default:
		return defaultConfidence
	}
	switch {
	case c < 0:
		return 0
	case c > 100:
		return 100
	}
	return int(c + 0.5)
}
