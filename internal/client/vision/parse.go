package vision

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codyseavey/pokemarket/internal/models"
)

var errNoJSONObject = errors.New("no JSON object found in response")

// maxObjectStarts bounds how many candidate braces are tried, keeping the
// scan linear in the reply length.
const maxObjectStarts = 64

// ExtractJSONObject returns the first brace-delimited substring of text that
// decodes as a complete JSON object. Prose before or after the object is
// ignored. Only the first maxObjectStarts opening braces are tried.
func ExtractJSONObject(text string) (string, error) {
	for i, tries := 0, 0; i < len(text) && tries < maxObjectStarts; i, tries = i+1, tries+1 {
		idx := strings.IndexByte(text[i:], '{')
		if idx < 0 {
			break
		}
		i += idx

		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err == nil {
			return string(raw), nil
		}
	}
	return "", errNoJSONObject
}

// ParseIdentification extracts the identification object from a model reply.
// Every one of the six fields is present in the result; missing or null
// values become "Unknown" and a missing confidence becomes "Low".
func ParseIdentification(text string) (*models.CardIdentification, error) {
	obj, err := ExtractJSONObject(text)
	if err != nil {
		return nil, err
	}

	var fields map[string]any
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("decode identification: %w", err)
	}

	id := &models.CardIdentification{
		CardName:   stringField(fields, "cardName"),
		SetName:    stringField(fields, "setName"),
		CardNumber: stringField(fields, "cardNumber"),
		Rarity:     stringField(fields, "rarity"),
		Condition:  stringField(fields, "condition"),
		Confidence: stringField(fields, "confidence"),
	}
	id.Normalize()
	return id, nil
}

// stringField reads key as text; numbers and booleans are formatted since
// models occasionally emit card numbers unquoted.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}
