// Package views holds the screen state of the portfolio and analytics tabs.
// Each view owns the data it fetched and re-fetches after every write.
package views

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/resource"
)

// CardLister lists the collection.
type CardLister interface {
	ListCards(ctx context.Context) ([]models.Card, error)
}

// CardStore lists and deletes cards.
type CardStore interface {
	CardLister
	DeleteCard(ctx context.Context, id uint) error
}

// PortfolioView lists held cards and their aggregate value.
type PortfolioView struct {
	store  CardStore
	logger *slog.Logger
	cards  resource.Loader[[]models.Card]

	mu       sync.Mutex
	deleting bool
}

func NewPortfolioView(store CardStore, logger *slog.Logger) *PortfolioView {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioView{store: store, logger: logger.With("view", "portfolio")}
}

// Load fetches the collection. It is refused with resource.ErrBusy while a
// load is outstanding.
func (v *PortfolioView) Load(ctx context.Context) error {
	return v.cards.Load(ctx, v.store.ListCards)
}

// State returns the list resource.
func (v *PortfolioView) State() resource.Resource[[]models.Card] {
	return v.cards.State()
}

// Cards returns a copy of the loaded list, or nil before a successful load.
func (v *PortfolioView) Cards() []models.Card {
	st := v.cards.State()
	if !st.IsReady() {
		return nil
	}
	return slices.Clone(st.Data)
}

// TotalValue sums the market price of every loaded card. Cards without a
// market price count as zero.
func (v *PortfolioView) TotalValue() float64 {
	return TotalValue(v.Cards())
}

// TotalValue sums the market price of cards.
func TotalValue(cards []models.Card) float64 {
	var total float64
	for _, c := range cards {
		if c.MarketPrice != nil {
			total += *c.MarketPrice
		}
	}
	return total
}

// Delete removes a card and re-fetches the list. On failure the local list is
// left as it was and the error is returned.
func (v *PortfolioView) Delete(ctx context.Context, id uint) error {
	v.mu.Lock()
	if v.deleting {
		v.mu.Unlock()
		return resource.ErrBusy
	}
	v.deleting = true
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.deleting = false
		v.mu.Unlock()
	}()

	if err := v.store.DeleteCard(ctx, id); err != nil {
		v.logger.Warn("delete failed", "card_id", id, "error", err)
		return err
	}
	v.logger.Info("card deleted", "card_id", id)
	return v.cards.Reload(ctx, v.store.ListCards)
}

// Close discards any response that arrives afterwards.
func (v *PortfolioView) Close() {
	v.cards.Close()
}
