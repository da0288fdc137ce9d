package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/models"
)

const pokemonTCGBaseURL = "https://api.pokemontcg.io/v2"

// ErrPriceNotFound means the card or its TCGPlayer prices are unknown to pokemontcg.io
var ErrPriceNotFound = errors.New("no price data found")

// priceCategories is the order TCGPlayer price categories are tried in
var priceCategories = []string{"holofoil", "normal", "reverseHolofoil", "1stEditionHolofoil"}

// PriceQuote is the current TCGPlayer price of a card
type PriceQuote struct {
	MarketPrice *float64
	LowPrice    *float64
	HighPrice   *float64
	FetchedAt   time.Time
}

// PriceFetcher looks up a card's current price
type PriceFetcher interface {
	FetchCardPrice(ctx context.Context, cardName, setName string) (*PriceQuote, error)
}

type PokemonTCGService struct {
	client  *http.Client
	apiKey  string
	baseURL string
	limiter *rate.Limiter
	logger  *slog.Logger
}

func NewPokemonTCGService(apiKey string, requestsPerSecond int, logger *slog.Logger) *PokemonTCGService {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 2
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PokemonTCGService{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: pokemonTCGBaseURL,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		logger:  logger,
	}
}

type pokemonSearchResponse struct {
	Data []pokemonCard `json:"data"`
}

type pokemonCard struct {
	TCGPlayer *pokemonTCGPrice `json:"tcgplayer"`
	Set       pokemonSet       `json:"set"`
	ID        string           `json:"id"`
	Name      string           `json:"name"`
}

type pokemonSet struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type pokemonTCGPrice struct {
	Prices    map[string]pokemonPriceSet `json:"prices"`
	URL       string                     `json:"url"`
	UpdatedAt string                     `json:"updatedAt"`
}

type pokemonPriceSet struct {
	Low    *float64 `json:"low"`
	Mid    *float64 `json:"mid"`
	High   *float64 `json:"high"`
	Market *float64 `json:"market"`
}

// searchQuery builds the pokemontcg.io Lucene-style query for a card
func searchQuery(cardName, setName string) string {
	q := fmt.Sprintf("name:%q", cardName)
	if setName != "" && setName != models.UnknownValue {
		q += fmt.Sprintf(" set.name:%q", setName)
	}
	return q
}

// FetchCardPrice returns the first matching card's TCGPlayer prices.
// ErrPriceNotFound is returned when nothing matches.
func (s *PokemonTCGService) FetchCardPrice(ctx context.Context, cardName, setName string) (*PriceQuote, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("price lookup rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", searchQuery(cardName, setName))
	params.Set("select", "id,name,set,tcgplayer")
	reqURL := fmt.Sprintf("%s/cards?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("X-Api-Key", s.apiKey)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		metrics.PriceLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to query pokemontcg.io: %w", err)
	}
	defer resp.Body.Close()
	metrics.PriceLookupDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		metrics.PriceLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("pokemontcg.io API returned status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp pokemonSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		metrics.PriceLookupsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(searchResp.Data) == 0 {
		metrics.PriceLookupsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: no cards match %q", ErrPriceNotFound, cardName)
	}

	card := searchResp.Data[0]
	prices, ok := pickPriceSet(card.TCGPlayer)
	if !ok {
		metrics.PriceLookupsTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("%w: %s has no TCGPlayer prices", ErrPriceNotFound, card.ID)
	}

	metrics.PriceLookupsTotal.WithLabelValues("found").Inc()
	s.logger.Debug("price fetched", "card", cardName, "set", setName, "match", card.ID)

	return &PriceQuote{
		MarketPrice: prices.Market,
		LowPrice:    prices.Low,
		HighPrice:   prices.High,
		FetchedAt:   time.Now().UTC(),
	}, nil
}

func pickPriceSet(tp *pokemonTCGPrice) (pokemonPriceSet, bool) {
	if tp == nil {
		return pokemonPriceSet{}, false
	}
	for _, category := range priceCategories {
		if p, ok := tp.Prices[category]; ok {
			return p, true
		}
	}
	return pokemonPriceSet{}, false
}
