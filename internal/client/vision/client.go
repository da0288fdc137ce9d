// Package vision identifies trading cards from a photo through a
// vision-capable language model.
package vision

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/codyseavey/pokemarket/internal/client"
	"github.com/codyseavey/pokemarket/internal/config"
	"github.com/codyseavey/pokemarket/internal/models"
)

const (
	DefaultModel     = "claude-sonnet-4-20250514"
	DefaultMaxTokens = 1024

	mediaTypeJPEG = "image/jpeg"
	operation     = "identify card"
)

// ErrNoImage is returned when Identify is called without image data.
var ErrNoImage = errors.New("no image data provided")

// Config are the endpoint settings of the identification client.
type Config struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int64

	// HTTPClient overrides the transport; nil uses the SDK default.
	HTTPClient *http.Client
}

// ConfigFrom maps the process configuration onto client settings.
func ConfigFrom(cfg config.VisionConfig) Config {
	return Config{
		APIKey:    cfg.APIKey,
		BaseURL:   cfg.BaseURL,
		Model:     cfg.Model,
		MaxTokens: cfg.MaxTokens,
	}
}

// Client sends one image per call to the Anthropic Messages endpoint.
type Client struct {
	cfg    Config
	api    anthropic.Client
	logger *slog.Logger
}

// NewClient builds a client. A missing API key is not an error here; every
// Identify call reports it instead.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	}

	return &Client{
		cfg:    cfg,
		api:    anthropic.NewClient(opts...),
		logger: logger.With("component", "vision"),
	}
}

// Identify submits a base64 JPEG with the extraction prompt and parses the
// identification out of the model's reply.
func (c *Client) Identify(ctx context.Context, imageBase64 string) (*models.CardIdentification, error) {
	if c.cfg.APIKey == "" {
		return nil, &client.ConfigurationError{Setting: "ANTHROPIC_API_KEY", Reason: "is not set"}
	}
	imageBase64 = strings.TrimSpace(imageBase64)
	if imageBase64 == "" {
		return nil, ErrNoImage
	}

	c.logger.Debug("identifying card", "model", c.cfg.Model, "image_bytes", len(imageBase64))

	var status int
	recordStatus := option.WithMiddleware(func(r *http.Request, next option.MiddlewareNext) (*http.Response, error) {
		resp, err := next(r)
		if resp != nil {
			status = resp.StatusCode
		}
		return resp, err
	})

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.cfg.Model),
		MaxTokens: c.cfg.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(
				anthropic.NewImageBlockBase64(mediaTypeJPEG, imageBase64),
				anthropic.NewTextBlock(extractionPrompt),
			),
		},
	}, recordStatus)
	if err != nil {
		return nil, classify(err, status)
	}

	if len(msg.Content) == 0 || msg.Content[0].Text == "" {
		return nil, &client.ParseError{Operation: operation, Err: errors.New("response has no text content")}
	}

	id, err := ParseIdentification(msg.Content[0].Text)
	if err != nil {
		c.logger.Warn("could not parse identification", "error", err)
		return nil, &client.ParseError{Operation: operation, Err: err}
	}

	c.logger.Info("card identified", "card_name", id.CardName, "set_name", id.SetName, "confidence", id.Confidence)
	return id, nil
}

// classify maps an SDK failure onto the client error taxonomy. status is
// the reply's HTTP status, zero when no reply arrived.
func classify(err error, status int) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		body := apiErr.RawJSON()
		if body == "" {
			body = apiErr.Error()
		}
		return &client.UpstreamError{Operation: operation, StatusCode: apiErr.StatusCode, Body: body}
	}
	if status >= http.StatusMultipleChoices {
		return &client.UpstreamError{Operation: operation, StatusCode: status, Body: err.Error()}
	}
	if status != 0 && isDecodeError(err) {
		return &client.ParseError{Operation: operation, Err: err}
	}
	return &client.NetworkError{Operation: operation, Err: err}
}

// isDecodeError reports whether a reply arrived but its envelope could not
// be read. The SDK wraps decoder errors, and it fails without a json error
// when the content type is not JSON.
func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "error parsing response json") ||
		strings.Contains(msg, "expected destination type")
}
