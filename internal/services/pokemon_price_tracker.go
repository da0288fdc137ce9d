package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/codyseavey/pokemarket/internal/models"
)

const pokemonPriceTrackerBaseURL = "https://www.pokemonpricetracker.com/api/v2"

// ErrHistoryUnavailable means the tracker has no history for the card or no key is configured
var ErrHistoryUnavailable = errors.New("price history not available")

// TrackerHistory is the remote price history of one card
type TrackerHistory struct {
	CardName     string
	SetName      string
	CurrentPrice *float64
	Series       models.PriceSeries
	FetchedAt    time.Time
}

// HistoryFetcher looks up a card's remote price history
type HistoryFetcher interface {
	FetchPriceHistory(ctx context.Context, cardName, setName string) (*TrackerHistory, error)
}

type PokemonPriceTrackerService struct {
	client  *http.Client
	apiKey  string
	baseURL string
}

func NewPokemonPriceTrackerService(apiKey string) *PokemonPriceTrackerService {
	return &PokemonPriceTrackerService{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		apiKey:  apiKey,
		baseURL: pokemonPriceTrackerBaseURL,
	}
}

// Enabled reports whether an API key is configured
func (s *PokemonPriceTrackerService) Enabled() bool {
	return s != nil && s.apiKey != ""
}

type pptSearchResponse struct {
	Data []pptCard `json:"data"`
}

type pptCard struct {
	Prices       pptPrices       `json:"prices"`
	PriceHistory json.RawMessage `json:"priceHistory"`
	Name         string          `json:"name"`
	SetName      string          `json:"setName"`
}

type pptPrices struct {
	Market *float64 `json:"market"`
}

// FetchPriceHistory returns the history of the best search match
func (s *PokemonPriceTrackerService) FetchPriceHistory(ctx context.Context, cardName, setName string) (*TrackerHistory, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: POKEMON_PRICE_TRACKER_API_KEY is not set", ErrHistoryUnavailable)
	}

	params := url.Values{}
	params.Set("search", cardName)
	params.Set("limit", "1")
	params.Set("includeHistory", "true")
	if setName != "" && setName != models.UnknownValue {
		params.Set("setName", setName)
	}
	reqURL := fmt.Sprintf("%s/cards?%s", s.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query pokemon price tracker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pokemon price tracker API returned status %d", resp.StatusCode)
	}

	var searchResp pptSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(searchResp.Data) == 0 {
		return nil, fmt.Errorf("%w: no cards match %q", ErrHistoryUnavailable, cardName)
	}

	card := searchResp.Data[0]
	series := decodeTrackerHistory(card.PriceHistory)
	if len(series) == 0 {
		return nil, fmt.Errorf("%w: %s has no history", ErrHistoryUnavailable, card.Name)
	}

	return &TrackerHistory{
		CardName:     card.Name,
		SetName:      card.SetName,
		CurrentPrice: card.Prices.Market,
		Series:       series,
		FetchedAt:    time.Now().UTC(),
	}, nil
}

// decodeTrackerHistory accepts either a condition-keyed series or a flat date->price map.
// A flat map is treated as Near Mint.
func decodeTrackerHistory(raw json.RawMessage) models.PriceSeries {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var series models.PriceSeries
	if err := json.Unmarshal(raw, &series); err == nil {
		for condition, samples := range series {
			if len(samples) == 0 {
				delete(series, condition)
			}
		}
		return series
	}

	var flat map[string]float64
	if err := json.Unmarshal(raw, &flat); err != nil || len(flat) == 0 {
		return nil
	}
	samples := make([]models.PriceSample, 0, len(flat))
	for date, price := range flat {
		samples = append(samples, models.PriceSample{Date: date, Market: price})
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Date < samples[j].Date })
	return models.PriceSeries{models.ConditionNearMint: samples}
}
