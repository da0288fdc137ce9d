package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codyseavey/pokemarket/internal/services"
)

const defaultHistoryDays = 90

type PriceHandler struct {
	snapshots *services.SnapshotService
}

func NewPriceHandler(snapshots *services.SnapshotService) *PriceHandler {
	return &PriceHandler{
		snapshots: snapshots,
	}
}

// CaptureSnapshot records today's price of one card
func (h *PriceHandler) CaptureSnapshot(c *gin.Context) {
	id, ok := paramID(c, "card_id")
	if !ok {
		return
	}

	snapshot, err := h.snapshots.Capture(c.Request.Context(), id)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrCardNotFound), errors.Is(err, services.ErrPriceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Failed to capture snapshot"})
		return
	case errors.Is(err, services.ErrPriceLookup):
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to capture snapshot"})
		return
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Snapshot captured successfully",
		"snapshot": gin.H{
			"card_id":       snapshot.CardID,
			"market_price":  snapshot.MarketPrice,
			"snapshot_date": snapshot.SnapshotDate.Format(time.RFC3339),
		},
	})
}

// CaptureAllSnapshots records today's price of every card
func (h *PriceHandler) CaptureAllSnapshots(c *gin.Context) {
	results := h.snapshots.CaptureAll(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"message": "Snapshot batch completed",
		"results": results,
	})
}

// GetSnapshotHistory returns a card's stored snapshots, oldest first
func (h *PriceHandler) GetSnapshotHistory(c *gin.Context) {
	id, ok := paramID(c, "card_id")
	if !ok {
		return
	}
	days, err := queryInt(c, "days", defaultHistoryDays)
	if err != nil || days <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
		return
	}

	history, err := h.snapshots.History(c.Request.Context(), id, days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, history)
}
