package views

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/codyseavey/pokemarket/internal/analytics"
	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/resource"
)

// AnalyticsSource is the backend surface the analytics view reads.
type AnalyticsSource interface {
	CardLister
	GetPriceHistory(ctx context.Context, id uint) (*models.PriceHistory, error)
	GetAIInsights(ctx context.Context, id uint) (*models.AIInsights, error)
}

// AnalyticsView shows the price trend and AI insights of one selected card.
// Responses for a card that is no longer selected are discarded.
type AnalyticsView struct {
	src    AnalyticsSource
	logger *slog.Logger

	cards    resource.Loader[[]models.Card]
	history  resource.Loader[*models.PriceHistory]
	insights resource.Loader[*models.AIInsights]

	mu       sync.Mutex
	selected uint
	closed   bool
}

func NewAnalyticsView(src AnalyticsSource, logger *slog.Logger) *AnalyticsView {
	if logger == nil {
		logger = slog.Default()
	}
	return &AnalyticsView{src: src, logger: logger.With("view", "analytics")}
}

// LoadCards fetches the card list without changing the selection.
func (v *AnalyticsView) LoadCards(ctx context.Context) error {
	return v.cards.Load(ctx, v.src.ListCards)
}

// Load fetches the card list and selects the first card.
func (v *AnalyticsView) Load(ctx context.Context) error {
	if err := v.LoadCards(ctx); err != nil {
		return err
	}
	cards := v.cards.State().Data
	if len(cards) == 0 {
		return nil
	}
	return v.Select(ctx, cards[0].ID)
}

// Select makes id the current card and fetches its price history and
// insights concurrently. A failure of one fetch does not affect the other;
// both errors are joined in the result. A fetch whose card is no longer
// selected when it completes is discarded and reports no error.
func (v *AnalyticsView) Select(ctx context.Context, id uint) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return resource.ErrStale
	}
	v.selected = id
	histTok, err := v.history.Supersede()
	if err != nil {
		v.mu.Unlock()
		return err
	}
	insTok, err := v.insights.Supersede()
	if err != nil {
		v.mu.Unlock()
		return err
	}
	v.mu.Unlock()

	var (
		g               errgroup.Group
		histErr, insErr error
	)
	g.Go(func() error {
		h, err := v.src.GetPriceHistory(ctx, id)
		histErr = apply(v, id, &v.history, histTok, h, err)
		return nil
	})
	g.Go(func() error {
		ai, err := v.src.GetAIInsights(ctx, id)
		insErr = apply(v, id, &v.insights, insTok, ai, err)
		return nil
	})
	_ = g.Wait()

	return errors.Join(histErr, insErr)
}

// apply stores a fetch result only while id is still the selected card.
func apply[T any](v *AnalyticsView, id uint, l *resource.Loader[T], tok resource.Token, data T, fetchErr error) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.selected != id {
		v.logger.Debug("discarding stale response", "card_id", id, "selected", v.selected)
		return nil
	}
	if err := l.Finish(tok, data, fetchErr); err != nil {
		return nil
	}
	if fetchErr != nil {
		v.logger.Warn("analytics fetch failed", "card_id", id, "error", fetchErr)
	}
	return fetchErr
}

// AnalyticsState is a consistent snapshot of the view for rendering.
type AnalyticsState struct {
	Cards    resource.Resource[[]models.Card]
	Selected *models.Card
	History  resource.Resource[*models.PriceHistory]
	Insights resource.Resource[*models.AIInsights]
}

// Chart derives the plottable series of the loaded history.
func (s AnalyticsState) Chart() (analytics.Chart, bool) {
	if !s.History.IsReady() {
		return analytics.Chart{}, false
	}
	return analytics.BuildChart(s.History.Data)
}

// Trend returns the trend summary to show. The insights copy is used when
// the history fetch failed.
func (s AnalyticsState) Trend() *models.TrendAnalysis {
	if s.History.IsReady() && s.History.Data.HasTrend() {
		return s.History.Data.TrendAnalysis
	}
	if s.Insights.IsReady() && s.Insights.Data != nil && !s.Insights.Data.TrendAnalysis.Empty() {
		return s.Insights.Data.TrendAnalysis
	}
	return nil
}

// State returns the current snapshot.
func (v *AnalyticsView) State() AnalyticsState {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := AnalyticsState{
		Cards:    v.cards.State(),
		History:  v.history.State(),
		Insights: v.insights.State(),
	}
	if st.Cards.IsReady() {
		for i := range st.Cards.Data {
			if st.Cards.Data[i].ID == v.selected {
				card := st.Cards.Data[i]
				st.Selected = &card
				break
			}
		}
	}
	return st
}

// SelectedID returns the currently selected card identifier, 0 when none.
func (v *AnalyticsView) SelectedID() uint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected
}

// Close turns every late arrival into a no-op.
func (v *AnalyticsView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
	v.cards.Close()
	v.history.Close()
	v.insights.Close()
}
