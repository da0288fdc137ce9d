package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/database"
	"github.com/codyseavey/pokemarket/internal/events"
	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/services"
)

type stubPrices map[string]float64

func (s stubPrices) FetchCardPrice(_ context.Context, cardName, _ string) (*services.PriceQuote, error) {
	p, ok := s[cardName]
	if !ok {
		return nil, services.ErrPriceNotFound
	}
	return &services.PriceQuote{MarketPrice: &p, LowPrice: &p, HighPrice: &p, FetchedAt: time.Now().UTC()}, nil
}

type recordedEvent struct {
	subject string
	data    any
}

type recordingPublisher struct {
	events []recordedEvent
}

func (r *recordingPublisher) Publish(_ context.Context, subject string, data any) error {
	r.events = append(r.events, recordedEvent{subject, data})
	return nil
}

func (r *recordingPublisher) Close() {}

type testServer struct {
	router    *gin.Engine
	db        *gorm.DB
	publisher *recordingPublisher
	imagesDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("database.Open() error: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	prices := stubPrices{"Charizard": 350, "Pikachu": 2}
	publisher := &recordingPublisher{}
	images := services.NewImageStorageService(t.TempDir(), nil)
	snapshots := services.NewSnapshotService(db, prices, publisher, 23, nil)
	market := services.NewMarketService(snapshots, nil, nil, 90, nil)

	router := SetupRouter(Deps{
		DB:             db,
		Prices:         prices,
		Images:         images,
		Snapshots:      snapshots,
		Market:         market,
		Publisher:      publisher,
		AllowedOrigins: []string{"*"},
	})
	return &testServer{router: router, db: db, publisher: publisher, imagesDir: images.GetStorageDir()}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return out
}

func (s *testServer) createCard(t *testing.T, name string) models.Card {
	t.Helper()
	w := s.do(t, http.MethodPost, "/cards/", map[string]string{"card_name": name, "set_name": "Base Set"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create %s: status %d: %s", name, w.Code, w.Body.String())
	}
	return decode[models.Card](t, w)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/", nil)
	root := decode[map[string]string](t, w)
	if w.Code != http.StatusOK || root["status"] != "healthy" || root["message"] != "PokéMarket AI API is running!" {
		t.Errorf("unexpected root response %d %v", w.Code, root)
	}

	w = s.do(t, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK || decode[map[string]string](t, w)["status"] != "healthy" {
		t.Errorf("unexpected health response %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "pokemarket_http_requests_total") {
		t.Errorf("expected prometheus exposition, got %d", w.Code)
	}
}

func TestCreateCard(t *testing.T) {
	s := newTestServer(t)

	card := s.createCard(t, "Charizard")
	if card.ID == 0 {
		t.Fatal("expected an assigned id")
	}
	if card.MarketPrice == nil || *card.MarketPrice != 350 || card.LastPriceUpdate == nil {
		t.Errorf("expected prices from the lookup, got %+v", card)
	}
	if card.CardNumber != models.UnknownValue || card.Rarity != models.UnknownValue || card.Confidence != models.ConfidenceLow {
		t.Errorf("expected placeholders for missing attributes, got %+v", card)
	}
	if len(s.publisher.events) != 1 || s.publisher.events[0].subject != events.SubjectCardCreated {
		t.Errorf("expected a cards.created event, got %+v", s.publisher.events)
	}

	unpriced := s.createCard(t, "Missingno")
	if unpriced.MarketPrice != nil {
		t.Errorf("expected no price for an unknown card, got %v", *unpriced.MarketPrice)
	}
}

func TestCreateCard_WithScannedImage(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/cards/", map[string]string{
		"card_name":          "Pikachu",
		"scanned_image_data": base64.StdEncoding.EncodeToString([]byte("jpeg bytes")),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	card := decode[models.Card](t, w)
	if !strings.HasPrefix(card.ImageURL, services.ScannedImagesRoute+"/") {
		t.Fatalf("unexpected image url %q", card.ImageURL)
	}

	w = s.do(t, http.MethodGet, card.ImageURL, nil)
	if w.Code != http.StatusOK || w.Body.String() != "jpeg bytes" {
		t.Errorf("expected the stored image to be served, got %d", w.Code)
	}
}

func TestCreateCard_BadRequest(t *testing.T) {
	s := newTestServer(t)

	bodies := []any{
		map[string]string{"set_name": "Base Set"},
		map[string]any{"card_name": "Pikachu", "current_price": -1},
		map[string]string{"card_name": "Pikachu", "scanned_image_data": "%%%"},
	}
	for _, body := range bodies {
		w := s.do(t, http.MethodPost, "/cards/", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %v: expected 400, got %d", body, w.Code)
		}
	}
}

func TestListCards(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/cards/", nil)
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Errorf("expected an empty list, got %d %s", w.Code, w.Body.String())
	}

	for _, name := range []string{"Charizard", "Pikachu", "Mew"} {
		s.createCard(t, name)
	}

	cards := decode[[]models.Card](t, s.do(t, http.MethodGet, "/cards/", nil))
	if len(cards) != 3 || cards[0].CardName != "Charizard" {
		t.Errorf("unexpected list %+v", cards)
	}

	page := decode[[]models.Card](t, s.do(t, http.MethodGet, "/cards/?skip=1&limit=1", nil))
	if len(page) != 1 || page[0].CardName != "Pikachu" {
		t.Errorf("unexpected page %+v", page)
	}

	if w := s.do(t, http.MethodGet, "/cards/?limit=abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a bad limit, got %d", w.Code)
	}
}

func TestGetAndDeleteCard(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard(t, "Charizard")

	if w := s.do(t, http.MethodPost, fmt.Sprintf("/price-history/snapshot/%d", card.ID), nil); w.Code != http.StatusOK {
		t.Fatalf("snapshot: status %d", w.Code)
	}

	w := s.do(t, http.MethodGet, fmt.Sprintf("/cards/%d", card.ID), nil)
	if w.Code != http.StatusOK || decode[models.Card](t, w).CardName != "Charizard" {
		t.Errorf("unexpected get response %d %s", w.Code, w.Body.String())
	}

	w = s.do(t, http.MethodDelete, fmt.Sprintf("/cards/%d", card.ID), nil)
	if w.Code != http.StatusOK || decode[map[string]string](t, w)["message"] != "Card deleted successfully" {
		t.Errorf("unexpected delete response %d %s", w.Code, w.Body.String())
	}

	var remaining int64
	s.db.Model(&models.PriceSnapshot{}).Where("card_id = ?", card.ID).Count(&remaining)
	if remaining != 0 {
		t.Errorf("expected snapshots to be deleted with the card, %d left", remaining)
	}
	last := s.publisher.events[len(s.publisher.events)-1]
	if last.subject != events.SubjectCardDeleted {
		t.Errorf("expected a cards.deleted event, got %s", last.subject)
	}

	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		w := s.do(t, method, fmt.Sprintf("/cards/%d", card.ID), nil)
		if w.Code != http.StatusNotFound || decode[map[string]string](t, w)["error"] != "Card not found" {
			t.Errorf("%s after delete: expected 404, got %d", method, w.Code)
		}
	}

	if w := s.do(t, http.MethodGet, "/cards/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for a non-numeric id, got %d", w.Code)
	}
}

func TestPriceHistoryAndInsights(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard(t, "Charizard")

	w := s.do(t, http.MethodGet, fmt.Sprintf("/cards/%d/price-history", card.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("price history: status %d", w.Code)
	}
	empty := decode[map[string]any](t, w)
	if empty["message"] != services.MessageHistoryUnavailable || empty["price_history"] != nil {
		t.Errorf("expected unavailable history, got %v", empty)
	}

	now := time.Now().UTC()
	for i, p := range []float64{100, 112} {
		snap := models.PriceSnapshot{CardID: card.ID, MarketPrice: &p, Condition: models.ConditionNearMint, SnapshotDate: now.AddDate(0, 0, i-2)}
		if err := s.db.Create(&snap).Error; err != nil {
			t.Fatalf("create snapshot: %v", err)
		}
	}

	history := decode[models.PriceHistory](t, s.do(t, http.MethodGet, fmt.Sprintf("/cards/%d/price-history", card.ID), nil))
	if !history.HasTrend() || history.TrendAnalysis.Trend != services.TrendStrongUpward {
		t.Errorf("unexpected trend %+v", history.TrendAnalysis)
	}
	if len(history.PriceHistory[models.ConditionNearMint]) != 2 {
		t.Errorf("unexpected series %+v", history.PriceHistory)
	}

	insights := decode[models.AIInsights](t, s.do(t, http.MethodGet, fmt.Sprintf("/cards/%d/ai-insights", card.ID), nil))
	if insights.Available() || insights.Message != services.MessageInsightsUnavailable || insights.TrendAnalysis == nil {
		t.Errorf("expected null insights with a trend, got %+v", insights)
	}

	if w := s.do(t, http.MethodGet, "/cards/999/ai-insights", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown card, got %d", w.Code)
	}
}

func TestSnapshots(t *testing.T) {
	s := newTestServer(t)
	card := s.createCard(t, "Charizard")
	s.createCard(t, "Missingno")

	w := s.do(t, http.MethodPost, fmt.Sprintf("/price-history/snapshot/%d", card.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("snapshot: status %d %s", w.Code, w.Body.String())
	}
	resp := decode[struct {
		Message  string `json:"message"`
		Snapshot struct {
			CardID      uint     `json:"card_id"`
			MarketPrice *float64 `json:"market_price"`
		} `json:"snapshot"`
	}](t, w)
	if resp.Message != "Snapshot captured successfully" || resp.Snapshot.CardID != card.ID || *resp.Snapshot.MarketPrice != 350 {
		t.Errorf("unexpected snapshot response %+v", resp)
	}

	if w := s.do(t, http.MethodPost, "/price-history/snapshot/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown card, got %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/price-history/snapshot-all", nil)
	batch := decode[struct {
		Message string                     `json:"message"`
		Results models.SnapshotBatchResult `json:"results"`
	}](t, w)
	if batch.Message != "Snapshot batch completed" || batch.Results.TotalCards != 2 || batch.Results.Successful != 1 || batch.Results.Skipped != 1 {
		t.Errorf("unexpected batch response %+v", batch)
	}

	snaps := decode[[]models.PriceSnapshot](t, s.do(t, http.MethodGet, fmt.Sprintf("/price-history/%d?days=30", card.ID), nil))
	if len(snaps) != 1 {
		t.Errorf("expected today's single snapshot, got %d", len(snaps))
	}

	if w := s.do(t, http.MethodGet, fmt.Sprintf("/price-history/%d?days=0", card.ID), nil); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for days=0, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}
