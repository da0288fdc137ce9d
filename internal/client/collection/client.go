// Package collection talks to the collection backend that stores cards and
// serves their price history and AI insights.
package collection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/models"
)

// Client issues one HTTP request per operation with no retry and no timeout
// beyond the transport default.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a client for the backend rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "collection")
	return c
}

// BaseURL returns the backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CreateCard saves a card. Absent optional fields are filled with "Unknown"
// and confidence with "Low" before sending.
func (c *Client) CreateCard(ctx context.Context, card models.CardCreate) (*models.Card, error) {
	if strings.TrimSpace(card.CardName) == "" {
		return nil, errors.New("card name is required")
	}

	var saved models.Card
	if err := c.do(ctx, "create card", http.MethodPost, "/cards/", card.WithDefaults(), &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ListCards returns the full collection in server order.
func (c *Client) ListCards(ctx context.Context) ([]models.Card, error) {
	var cards []models.Card
	if err := c.do(ctx, "list cards", http.MethodGet, "/cards/", nil, &cards); err != nil {
		return nil, err
	}
	if cards == nil {
		cards = []models.Card{}
	}
	return cards, nil
}

// DeleteCard removes a card. An unknown id yields an UpstreamError.
func (c *Client) DeleteCard(ctx context.Context, id uint) error {
	return c.do(ctx, "delete card", http.MethodDelete, fmt.Sprintf("/cards/%d", id), nil, nil)
}

// GetPriceHistory fetches the price series and trend summary of a card.
// A missing trend summary is reported through PriceHistory.HasTrend.
func (c *Client) GetPriceHistory(ctx context.Context, id uint) (*models.PriceHistory, error) {
	var history models.PriceHistory
	if err := c.do(ctx, "get price history", http.MethodGet, fmt.Sprintf("/cards/%d/price-history", id), nil, &history); err != nil {
		return nil, err
	}
	return &history, nil
}

// GetAIInsights fetches the generated recommendation of a card. Insights that
// are not yet generated are reported through AIInsights.Available.
func (c *Client) GetAIInsights(ctx context.Context, id uint) (*models.AIInsights, error) {
	var insights models.AIInsights
	if err := c.do(ctx, "get ai insights", http.MethodGet, fmt.Sprintf("/cards/%d/ai-insights", id), nil, &insights); err != nil {
		return nil, err
	}
	return &insights, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "operation", op, "error", err)
		return &client.NetworkError{Operation: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &client.NetworkError{Operation: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend returned error", "operation", op, "status", resp.StatusCode)
		return &client.UpstreamError{Operation: op, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &client.ParseError{Operation: op, Err: err}
	}
	return nil
}
