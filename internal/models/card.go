package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// UnknownValue is the placeholder for any card attribute that could not be read
	UnknownValue = "Unknown"
	// DefaultConfidence is used when no identification confidence was supplied
	DefaultConfidence = ConfidenceLow
)

// Identification confidence labels reported by the vision model
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// Card is a single collectible persisted by the collection backend.
// An unsaved card has ID == 0.
type Card struct {
	ID              uint       `json:"id,omitempty" gorm:"primaryKey;autoIncrement"`
	CardName        string     `json:"card_name" gorm:"not null;index"`
	SetName         string     `json:"set_name,omitempty"`
	CardNumber      string     `json:"card_number,omitempty"`
	Rarity          string     `json:"rarity,omitempty"`
	Condition       string     `json:"condition,omitempty"`
	Confidence      string     `json:"confidence,omitempty"`
	ImageURL        string     `json:"image_url,omitempty"`
	CurrentPrice    *float64   `json:"current_price,omitempty"`
	MarketPrice     *float64   `json:"market_price,omitempty"`
	LowPrice        *float64   `json:"low_price,omitempty"`
	HighPrice       *float64   `json:"high_price,omitempty"`
	LastPriceUpdate *time.Time `json:"last_price_update,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// UnmarshalJSON accepts the timestamp forms of every backend version
func (c *Card) UnmarshalJSON(data []byte) error {
	type plain Card
	aux := struct {
		*plain
		LastPriceUpdate *Timestamp `json:"last_price_update"`
		CreatedAt       Timestamp  `json:"created_at"`
		UpdatedAt       Timestamp  `json:"updated_at"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.LastPriceUpdate = aux.LastPriceUpdate.ptr()
	c.CreatedAt = aux.CreatedAt.Time
	c.UpdatedAt = aux.UpdatedAt.Time
	return nil
}

// IsSaved reports whether the backend has assigned an identifier
func (c *Card) IsSaved() bool {
	return c.ID != 0
}

// Validate checks the invariants every card must hold
func (c *Card) Validate() error {
	if c.CardName == "" {
		return errors.New("card_name is required")
	}
	prices := map[string]*float64{
		"current_price": c.CurrentPrice,
		"market_price":  c.MarketPrice,
		"low_price":     c.LowPrice,
		"high_price":    c.HighPrice,
	}
	for name, p := range prices {
		if p != nil && *p < 0 {
			return fmt.Errorf("%s must be non-negative, got %.2f", name, *p)
		}
	}
	return nil
}

// CardCreate is the partial card accepted by POST /cards/
type CardCreate struct {
	CardName     string   `json:"card_name" binding:"required"`
	SetName      string   `json:"set_name,omitempty"`
	CardNumber   string   `json:"card_number,omitempty"`
	Rarity       string   `json:"rarity,omitempty"`
	Condition    string   `json:"condition,omitempty"`
	Confidence   string   `json:"confidence,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	CurrentPrice *float64 `json:"current_price,omitempty"`

	// ScannedImageData is an optional base64 JPEG of the captured photo
	ScannedImageData string `json:"scanned_image_data,omitempty"`
}

// WithDefaults fills every absent optional attribute with its placeholder
func (c CardCreate) WithDefaults() CardCreate {
	c.SetName = orDefault(c.SetName, UnknownValue)
	c.CardNumber = orDefault(c.CardNumber, UnknownValue)
	c.Rarity = orDefault(c.Rarity, UnknownValue)
	c.Condition = orDefault(c.Condition, UnknownValue)
	c.Confidence = orDefault(c.Confidence, DefaultConfidence)
	return c
}

// ToCard builds an unsaved card from the request
func (c CardCreate) ToCard() Card {
	return Card{
		CardName:     c.CardName,
		SetName:      c.SetName,
		CardNumber:   c.CardNumber,
		Rarity:       c.Rarity,
		Condition:    c.Condition,
		Confidence:   c.Confidence,
		ImageURL:     c.ImageURL,
		CurrentPrice: c.CurrentPrice,
	}
}

// CardIdentification is the structured result of one vision-model call.
// Keys match the ones demanded by the extraction prompt.
type CardIdentification struct {
	CardName   string `json:"cardName"`
	SetName    string `json:"setName"`
	CardNumber string `json:"cardNumber"`
	Rarity     string `json:"rarity"`
	Condition  string `json:"condition"`
	Confidence string `json:"confidence"`
}

// Normalize replaces missing attributes so all six fields are always present
func (id *CardIdentification) Normalize() {
	id.CardName = orDefault(id.CardName, UnknownValue)
	id.SetName = orDefault(id.SetName, UnknownValue)
	id.CardNumber = orDefault(id.CardNumber, UnknownValue)
	id.Rarity = orDefault(id.Rarity, UnknownValue)
	id.Condition = orDefault(id.Condition, UnknownValue)
	id.Confidence = orDefault(id.Confidence, DefaultConfidence)
}

// ToCardCreate converts the identification into the payload used to save it
func (id CardIdentification) ToCardCreate() CardCreate {
	return CardCreate{
		CardName:   id.CardName,
		SetName:    id.SetName,
		CardNumber: id.CardNumber,
		Rarity:     id.Rarity,
		Condition:  id.Condition,
		Confidence: id.Confidence,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
