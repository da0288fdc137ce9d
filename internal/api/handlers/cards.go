package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/codyseavey/pokemarket/internal/events"
	"github.com/codyseavey/pokemarket/internal/metrics"
	"github.com/codyseavey/pokemarket/internal/models"
	"github.com/codyseavey/pokemarket/internal/services"
)

const (
	defaultListLimit = 100
	maxListLimit     = 1000
)

type CardHandler struct {
	db        *gorm.DB
	prices    services.PriceFetcher
	images    *services.ImageStorageService
	market    *services.MarketService
	publisher events.Publisher
	logger    *slog.Logger
}

func NewCardHandler(db *gorm.DB, prices services.PriceFetcher, images *services.ImageStorageService, market *services.MarketService, publisher events.Publisher, logger *slog.Logger) *CardHandler {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		db:        db,
		prices:    prices,
		images:    images,
		market:    market,
		publisher: publisher,
		logger:    logger.With("component", "cards"),
	}
}

func (h *CardHandler) CreateCard(c *gin.Context) {
	var req models.CardCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req = req.WithDefaults()
	card := req.ToCard()
	if err := card.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.ScannedImageData != "" && h.images != nil {
		imageURL, err := h.images.SaveBase64(req.ScannedImageData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scanned_image_data: " + err.Error()})
			return
		}
		card.ImageURL = imageURL
	}

	// A card without a known price is still saved
	quote, err := h.prices.FetchCardPrice(c.Request.Context(), card.CardName, card.SetName)
	switch {
	case err == nil:
		card.MarketPrice = quote.MarketPrice
		card.LowPrice = quote.LowPrice
		card.HighPrice = quote.HighPrice
		card.LastPriceUpdate = &quote.FetchedAt
	case errors.Is(err, services.ErrPriceNotFound):
		h.logger.Info("no price found", "card_name", card.CardName, "set_name", card.SetName)
	default:
		h.logger.Warn("price lookup failed", "card_name", card.CardName, "error", err)
	}

	if err := h.db.Create(&card).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), events.SubjectCardCreated, card); err != nil {
		h.logger.Warn("failed to publish card event", "card_id", card.ID, "error", err)
	}
	metrics.UpdateCollectionMetrics(h.db)

	c.JSON(http.StatusCreated, card)
}

func (h *CardHandler) ListCards(c *gin.Context) {
	skip, err := queryInt(c, "skip", 0)
	if err != nil || skip < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "skip must be a non-negative integer"})
		return
	}
	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}
	limit = min(limit, maxListLimit)

	cards := []models.Card{}
	if err := h.db.Order("id").Offset(skip).Limit(limit).Find(&cards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, cards)
}

func (h *CardHandler) GetCard(c *gin.Context) {
	card, ok := h.loadCard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) DeleteCard(c *gin.Context) {
	card, ok := h.loadCard(c)
	if !ok {
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("card_id = ?", card.ID).Delete(&models.PriceSnapshot{}).Error; err != nil {
			return err
		}
		return tx.Delete(card).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.publisher.Publish(c.Request.Context(), events.SubjectCardDeleted, gin.H{"card_id": card.ID}); err != nil {
		h.logger.Warn("failed to publish card event", "card_id", card.ID, "error", err)
	}
	metrics.UpdateCollectionMetrics(h.db)

	c.JSON(http.StatusOK, gin.H{"message": "Card deleted successfully"})
}

func (h *CardHandler) GetPriceHistory(c *gin.Context) {
	card, ok := h.loadCard(c)
	if !ok {
		return
	}

	history, err := h.market.History(c.Request.Context(), card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}

func (h *CardHandler) GetAIInsights(c *gin.Context) {
	card, ok := h.loadCard(c)
	if !ok {
		return
	}

	insights, err := h.market.Insights(c.Request.Context(), card)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, insights)
}

// loadCard resolves the :id parameter, answering 400 or 404 itself
func (h *CardHandler) loadCard(c *gin.Context) (*models.Card, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return nil, false
	}

	var card models.Card
	if err := h.db.First(&card, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Card not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return nil, false
	}
	return &card, true
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid card id"})
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string, def int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
