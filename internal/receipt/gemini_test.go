package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubConverter converts at a fixed rate, or fails.
type stubConverter struct {
	rate float64
	err  error
}

func (s *stubConverter) ToUSD(_ context.Context, amount float64, currency string) (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	if currency == "USD" {
		return amount, nil
	}
	return amount * s.rate, nil
}

func newGeminiServer(t *testing.T, responseText string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.NotEmpty(t, r.URL.Query().Get("key"))

		response := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{{"text": responseText}}}},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestParser(t *testing.T, server *httptest.Server, converter CurrencyConverter) *GeminiParser {
	t.Helper()
	parser, err := NewGeminiParser(Config{
		APIKey:    "test-key",
		BaseURL:   server.URL,
		converter: converter,
	})
	require.NoError(t, err)
	return parser
}

func TestValidateImage(t *testing.T) {
	assert.NoError(t, ValidateImage([]byte("img"), "image/jpeg"))
	assert.NoError(t, ValidateImage([]byte("img"), "image/png"))
	assert.Error(t, ValidateImage([]byte("doc"), "application/pdf"))
	assert.Error(t, ValidateImage(make([]byte, MaxImageSize+1), "image/jpeg"))
}

func TestParseReceipt(t *testing.T) {
	body := `{"amount": 45.20, "currency": "EUR", "merchant": "Cafe Luna", "date": "2024-06-12", "description": "Business dinner", "category": "Meals"}`
	server := newGeminiServer(t, body)
	parser := newTestParser(t, server, &stubConverter{rate: 1.1})

	parsed, err := parser.ParseReceipt(context.Background(), []byte("fake image"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, "Cafe Luna", parsed.Merchant)
	assert.Equal(t, "2024-06-12", parsed.Date)
	assert.Equal(t, "Business dinner", parsed.Description)
	assert.Equal(t, "Meals", parsed.Category)
	assert.Equal(t, "EUR", parsed.Currency)
	assert.Equal(t, 45.20, parsed.Amount)
	assert.InDelta(t, 49.72, parsed.AmountUSD, 0.001)
}

func TestParseReceiptFencedResponse(t *testing.T) {
	body := "```json\n{\"amount\": 12.00, \"currency\": \"USD\", \"merchant\": \"Deli\"}\n```"
	server := newGeminiServer(t, body)
	parser := newTestParser(t, server, &stubConverter{rate: 1})

	parsed, err := parser.ParseReceipt(context.Background(), []byte("fake image"), "image/png")
	require.NoError(t, err)

	assert.Equal(t, "Deli", parsed.Merchant)
	assert.Equal(t, 12.00, parsed.AmountUSD)
}

func TestParseReceiptNullFields(t *testing.T) {
	body := `{"amount": null, "currency": null, "merchant": null, "date": null, "description": null, "category": null}`
	server := newGeminiServer(t, body)
	parser := newTestParser(t, server, &stubConverter{rate: 1})

	parsed, err := parser.ParseReceipt(context.Background(), []byte("fake image"), "image/jpeg")
	require.NoError(t, err)

	assert.Empty(t, parsed.Merchant)
	assert.Equal(t, "USD", parsed.Currency)
	assert.Zero(t, parsed.Amount)
	assert.Zero(t, parsed.AmountUSD)
}

func TestParseReceiptConversionFailureKeepsOriginal(t *testing.T) {
	body := `{"amount": 100.0, "currency": "JPY", "merchant": "Ramen-ya"}`
	server := newGeminiServer(t, body)
	parser := newTestParser(t, server, &stubConverter{err: fmt.Errorf("rate service down")})

	parsed, err := parser.ParseReceipt(context.Background(), []byte("fake image"), "image/jpeg")
	require.NoError(t, err)

	assert.Equal(t, 100.0, parsed.Amount)
	assert.Equal(t, 100.0, parsed.AmountUSD)
	assert.Equal(t, "JPY", parsed.Currency)
}

func TestParseReceiptUnparseableResponse(t *testing.T) {
	server := newGeminiServer(t, "I could not read this receipt, sorry!")
	parser := newTestParser(t, server, &stubConverter{rate: 1})

	parsed, err := parser.ParseReceipt(context.Background(), []byte("fake image"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "", parsed.Merchant)
	assert.Zero(t, parsed.Amount)
}

func TestParseReceiptRejectsNonImage(t *testing.T) {
	server := newGeminiServer(t, "{}")
	parser := newTestParser(t, server, &stubConverter{rate: 1})

	_, err := parser.ParseReceipt(context.Background(), []byte("%PDF"), "application/pdf")
	assert.Error(t, err)
}

func TestStripMarkdownFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain json", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"surrounding whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMarkdownFences(tt.in))
		})
	}
}
