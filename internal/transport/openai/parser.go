package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/catalink/catalink/internal/domain"
	"github.com/catalink/catalink/internal/domain/search/request"
	"github.com/catalink/catalink/internal/metrics"
)

const systemPrompt = `You split a procurement request into catalog search items.
Reply with a JSON object of the form
{"items":[{"terms":["word",...],"supplier":"","max_price":0,"quantity":1}]}.
Rules: terms are lowercase single words describing one product; supplier is
the vendor name if one is named, else empty; max_price is a number only when
the text states a price limit, else omit it; quantity defaults to 1.
Emit one items element per distinct product mentioned.`

// Parser turns free-form purchase requests into structured search items
// using an OpenAI-compatible chat API.
type Parser struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// Config holds the parser provider settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Logger  *zap.Logger
}

// NewParser creates an OpenAI-compatible query parser.
func NewParser(cfg *Config) *Parser {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Parser{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: logger,
	}
}

type parsedItem struct {
	Terms    []string `json:"terms"`
	Supplier string   `json:"supplier"`
	MaxPrice *float64 `json:"max_price"`
	Quantity int      `json:"quantity"`
}

type parsedQuery struct {
	Items []parsedItem `json:"items"`
}

// Parse extracts the search items named in text. Provider failures are
// wrapped with domain.ErrParserUnavailable so callers can fall back to a
// literal search.
func (p *Parser) Parse(ctx context.Context, text string) ([]request.Item, error) {
	start := time.Now()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		metrics.ParserRequestsTotal.WithLabelValues("error").Inc()
		return nil, parseAPIError(err)
	}
	if len(resp.Choices) == 0 {
		metrics.ParserRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("empty parser response: %w", domain.ErrParserUnavailable)
	}

	var parsed parsedQuery
	content := resp.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		metrics.ParserRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("parser returned malformed JSON: %w", domain.ErrParserUnavailable)
	}

	items := make([]request.Item, 0, len(parsed.Items))
	for _, pi := range parsed.Items {
		ceiling := decimal.NullDecimal{}
		if pi.MaxPrice != nil && *pi.MaxPrice > 0 {
			ceiling = decimal.NewNullDecimal(decimal.NewFromFloat(*pi.MaxPrice))
		}
		quantity := pi.Quantity
		if quantity < 1 {
			quantity = 1
		}
		item, err := request.New(pi.Terms, strings.TrimSpace(pi.Supplier), ceiling, quantity)
		if err != nil {
			p.logger.Debug("dropping unusable parsed item", zap.Strings("terms", pi.Terms), zap.Error(err))
			continue
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		metrics.ParserRequestsTotal.WithLabelValues("empty").Inc()
		return nil, domain.ErrNoItems
	}

	metrics.ParserRequestsTotal.WithLabelValues("success").Inc()
	p.logger.Debug("parsed purchase request",
		zap.Int("items", len(items)),
		zap.Duration("duration", time.Since(start)))
	return items, nil
}

// parseAPIError extracts a readable message from the API response. All
// errors wrap domain.ErrParserUnavailable so callers can detect them.
func parseAPIError(err error) error {
	wrap := domain.ErrParserUnavailable

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("parser API error %d: %s: %w",
				reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("parser API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("parser API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("parser request failed: %w", wrap)
}

// extractDetail pulls the "detail" field from a JSON error body.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
