// Package receipt extracts structured expense fields from receipt images
// using a vision-capable LLM, converting foreign amounts to USD.
package receipt

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/service"
)

const receiptPrompt = `Analyze this receipt image and extract the following information in JSON format:
{
  "amount": <total amount as number>,
  "currency": "<3-letter currency code like USD, EUR, VND, etc>",
  "merchant": "<merchant/store name>",
  "date": "<date in YYYY-MM-DD format>",
  "description": "<brief description of items/service>",
  "category": "<one of: Office Supplies, Travel, Meals, Equipment, Other>"
}

For the currency field, identify the currency from symbols, text, or context.
For the category field, classify the purchase into one of the listed categories.
If any information is not clearly visible or cannot be determined, use null for that field.
Only return the JSON, no additional text.`

// Config holds configuration for the Gemini receipt parser.
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	converter CurrencyConverter // test hook; defaults to the exchange-rate API
}

// GeminiParser implements service.ReceiptParser against the Gemini API.
type GeminiParser struct {
	httpClient *http.Client
	converter  CurrencyConverter
	logger     *slog.Logger
	apiKey     string
	model      string
	baseURL    string
}

// NewGeminiParser creates a new Gemini-backed receipt parser.
func NewGeminiParser(cfg Config) (*GeminiParser, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key is required", common.ErrMissingConfig)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-1.5-flash"
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	converter := cfg.converter
	if converter == nil {
		converter = NewExchangeRateConverter("")
	}

	return &GeminiParser{
		apiKey:    cfg.APIKey,
		model:     model,
		baseURL:   baseURL,
		converter: converter,
		logger:    slog.Default().With("component", "receipt"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// MaxImageSize is the largest receipt image accepted, in bytes.
const MaxImageSize = 5 * 1024 * 1024

// ValidateImage checks that the upload is a reasonably sized image.
func ValidateImage(image []byte, mimeType string) error {
	if !strings.HasPrefix(mimeType, "image/") {
		return fmt.Errorf("%w: file must be an image", common.ErrReceiptUnreadable)
	}
	if len(image) > MaxImageSize {
		return fmt.Errorf("%w: file too large (max 5MB)", common.ErrReceiptUnreadable)
	}
	return nil
}

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type parsedFields struct {
	Amount      *float64 `json:"amount"`
	Currency    *string  `json:"currency"`
	Merchant    *string  `json:"merchant"`
	Date        *string  `json:"date"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
}

// ParseReceipt sends the image to Gemini and decodes the extracted fields.
// Foreign-currency amounts are converted to USD; when conversion fails the
// original amount is kept as the USD figure.
func (p *GeminiParser) ParseReceipt(ctx context.Context, image []byte, mimeType string) (*service.ParsedReceipt, error) {
	if err := ValidateImage(image, mimeType); err != nil {
		return nil, err
	}

	text, err := p.generate(ctx, image, mimeType)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}

	var fields parsedFields
	if err := json.Unmarshal([]byte(stripMarkdownFences(text)), &fields); err != nil {
		p.logger.Warn("failed to parse gemini response", "error", err, "response", text)
		return &service.ParsedReceipt{}, nil
	}

	parsed := &service.ParsedReceipt{}
	if fields.Merchant != nil {
		parsed.Merchant = *fields.Merchant
	}
	if fields.Date != nil {
		parsed.Date = *fields.Date
	}
	if fields.Description != nil {
		parsed.Description = *fields.Description
	}
	if fields.Category != nil {
		parsed.Category = *fields.Category
	}

	parsed.Currency = "USD"
	if fields.Currency != nil && *fields.Currency != "" {
		parsed.Currency = *fields.Currency
	}

	if fields.Amount != nil {
		parsed.Amount = *fields.Amount
		parsed.AmountUSD = *fields.Amount

		usd, convErr := p.converter.ToUSD(ctx, *fields.Amount, parsed.Currency)
		if convErr != nil {
			p.logger.Warn("currency conversion failed, keeping original amount",
				"currency", parsed.Currency,
				"error", convErr)
		} else {
			parsed.AmountUSD = usd
		}
	}

	return parsed, nil
}

// generate calls the Gemini generateContent endpoint with the prompt and
// inline image data.
func (p *GeminiParser) generate(ctx context.Context, image []byte, mimeType string) (string, error) {
	request := geminiRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: receiptPrompt},
					{InlineData: &geminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(image),
					}},
				},
			},
		},
	}

	jsonBody, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(jsonBody)))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, string(body))
	}

	var response geminiResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	if len(response.Candidates) == 0 || len(response.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	return response.Candidates[0].Content.Parts[0].Text, nil
}

// stripMarkdownFences removes a wrapping ```json ... ``` block if the model
// ignored the JSON-only instruction.
func stripMarkdownFences(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	return strings.TrimSpace(text)
}
