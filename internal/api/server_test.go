package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anduinlabs/expenseflow/internal/brex"
	"github.com/anduinlabs/expenseflow/internal/calendar"
	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/match"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
	"github.com/anduinlabs/expenseflow/internal/storage"
)

type mockReceiptParser struct {
	ParseReceiptFn func(ctx context.Context, image []byte, mimeType string) (*service.ParsedReceipt, error)
}

func (m *mockReceiptParser) ParseReceipt(ctx context.Context, image []byte, mimeType string) (*service.ParsedReceipt, error) {
	return m.ParseReceiptFn(ctx, image, mimeType)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func newTestServer(matcher *match.Matcher, feed service.TransactionFeed, parser service.ReceiptParser, store service.Storage) *Server {
	return NewServer(DefaultConfig(), matcher, feed, parser, store, discardLogger())
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestUnconfiguredServicesRespond503(t *testing.T) {
	srv := newTestServer(nil, nil, nil, nil)
	handler := srv.Handler()

	tests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/calendar/enrich"},
		{http.MethodPost, "/api/calendar/match-single"},
		{http.MethodPost, "/api/receipts/parse"},
		{http.MethodGet, "/api/brex/expenses"},
		{http.MethodGet, "/api/expenses"},
		{http.MethodGet, "/api/categories"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := doJSON(t, handler, tt.method, tt.path, nil)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		})
	}
}

func TestHandleEnrich(t *testing.T) {
	lunch := model.CalendarEvent{
		ID:      "lunch-1",
		Summary: "Team lunch at Olive Garden",
		Start: model.EventTime{
			Time: time.Date(2024, 6, 12, 12, 0, 0, 0, time.Local),
		},
		End: model.EventTime{
			Time: time.Date(2024, 6, 12, 13, 0, 0, 0, time.Local),
		},
		IsUserCalendar: true,
	}

	src := calendar.NewMockEventSource()
	src.FetchEventsForDateFn = func(_ context.Context, _ string, _ time.Time) ([]model.CalendarEvent, error) {
		return []model.CalendarEvent{lunch}, nil
	}

	srv := newTestServer(match.New(src, discardLogger()), nil, nil, nil)

	req := map[string]any{
		"transactions": []map[string]any{
			{
				"id":           "txn-1",
				"purchased_at": "2024-06-12",
				"memo":         "Team lunch",
				"user_email":   "jane@example.com",
				"usd_amount":   42.50,
			},
		},
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/calendar/enrich", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp enrichResponse
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Results, 1)

	result := resp.Results[0]
	require.NotNil(t, result.CalendarEvent)
	assert.Equal(t, "lunch-1", result.CalendarEvent.ID)
	assert.Equal(t, "high", result.Confidence)
	assert.NotEmpty(t, result.MatchReasoning)
	assert.Equal(t, "txn-1", result.Transaction.ID)
}

func TestHandleEnrichRejectsEmptyBatch(t *testing.T) {
	src := calendar.NewMockEventSource()
	srv := newTestServer(match.New(src, discardLogger()), nil, nil, nil)

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/calendar/enrich",
		map[string]any{"transactions": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEnrichRejectsBadDate(t *testing.T) {
	src := calendar.NewMockEventSource()
	srv := newTestServer(match.New(src, discardLogger()), nil, nil, nil)

	req := map[string]any{
		"transactions": []map[string]any{
			{"id": "txn-1", "purchased_at": "yesterday", "user_email": "jane@example.com"},
		},
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/calendar/enrich", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "transaction 0")
}

func TestHandleMatchSingle(t *testing.T) {
	src := calendar.NewMockEventSource()
	srv := newTestServer(match.New(src, discardLogger()), nil, nil, nil)

	req := map[string]any{
		"transaction": map[string]any{
			"id":           "txn-1",
			"purchased_at": "2024-06-12",
			"memo":         "Team lunch",
			"user_email":   "jane@example.com",
		},
		"events": []map[string]any{
			{
				"id":               "lunch-1",
				"summary":          "Team lunch",
				"start":            "2024-06-12T12:00:00Z",
				"end":              "2024-06-12T13:00:00Z",
				"is_user_calendar": true,
			},
		},
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/calendar/match-single", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchSingleResponse
	decodeJSON(t, rec, &resp)
	require.NotNil(t, resp.Event)
	assert.Equal(t, "lunch-1", resp.Event.ID)
	assert.Equal(t, "high", resp.Confidence)
	assert.Greater(t, resp.Score, 20.0)
}

func TestHandleMatchSingleNoEvents(t *testing.T) {
	src := calendar.NewMockEventSource()
	srv := newTestServer(match.New(src, discardLogger()), nil, nil, nil)

	req := map[string]any{
		"transaction": map[string]any{
			"id":           "txn-1",
			"purchased_at": "2024-06-12",
			"memo":         "Office supplies",
			"user_email":   "jane@example.com",
		},
		"events": []any{},
	}
	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/calendar/match-single", req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp matchSingleResponse
	decodeJSON(t, rec, &resp)
	assert.Nil(t, resp.Event)
	assert.Empty(t, resp.Confidence)
	assert.Contains(t, resp.Reasoning, "No calendar events found")
}

func TestHandleParseReceipt(t *testing.T) {
	parser := &mockReceiptParser{
		ParseReceiptFn: func(_ context.Context, image []byte, mimeType string) (*service.ParsedReceipt, error) {
			assert.Equal(t, []byte("fake-image"), image)
			assert.Equal(t, "image/jpeg", mimeType)
			return &service.ParsedReceipt{Merchant: "Olive Garden", Amount: 42.50, Currency: "USD"}, nil
		},
	}
	srv := newTestServer(nil, nil, parser, nil)

	rec := uploadReceipt(t, srv.Handler(), "fake-image")
	require.Equal(t, http.StatusOK, rec.Code)

	var parsed service.ParsedReceipt
	decodeJSON(t, rec, &parsed)
	assert.Equal(t, "Olive Garden", parsed.Merchant)
	assert.Equal(t, 42.50, parsed.Amount)
}

func TestHandleParseReceiptUnreadable(t *testing.T) {
	parser := &mockReceiptParser{
		ParseReceiptFn: func(_ context.Context, _ []byte, _ string) (*service.ParsedReceipt, error) {
			return nil, fmt.Errorf("blurry: %w", common.ErrReceiptUnreadable)
		},
	}
	srv := newTestServer(nil, nil, parser, nil)

	rec := uploadReceipt(t, srv.Handler(), "fake-image")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestHandleParseReceiptMissingFile(t *testing.T) {
	parser := &mockReceiptParser{
		ParseReceiptFn: func(_ context.Context, _ []byte, _ string) (*service.ParsedReceipt, error) {
			t.Fatal("parser should not be called")
			return nil, nil
		},
	}
	srv := newTestServer(nil, nil, parser, nil)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/receipts/parse", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func uploadReceipt(t *testing.T, handler http.Handler, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="receipt"; filename="receipt.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/receipts/parse", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHandleBrexExpenses(t *testing.T) {
	feed := brex.NewMockClient()
	feed.FetchReimbursementsFn = func(_ context.Context, start, _ time.Time) ([]model.Transaction, error) {
		return []model.Transaction{
			{ID: "txn-1", PurchasedAt: start, Memo: "Team lunch", USDAmount: 42.50},
		}, nil
	}
	srv := newTestServer(nil, feed, nil, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet,
		"/api/brex/expenses?start=2024-06-01&end=2024-06-30", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, feed.FetchReimbursementsCalls, 1)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.Local), feed.FetchReimbursementsCalls[0].Start)
	assert.Equal(t, time.Date(2024, 6, 30, 0, 0, 0, 0, time.Local), feed.FetchReimbursementsCalls[0].End)

	var resp struct {
		Transactions []transactionPayload `json:"transactions"`
	}
	decodeJSON(t, rec, &resp)
	require.Len(t, resp.Transactions, 1)
	assert.Equal(t, "txn-1", resp.Transactions[0].ID)
}

func TestHandleBrexExpensesBadDate(t *testing.T) {
	feed := brex.NewMockClient()
	srv := newTestServer(nil, feed, nil, nil)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/brex/expenses?start=junk", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, feed.FetchReimbursementsCalls)
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(nil, nil, nil, newTestStorage(t))
	handler := srv.Handler()

	// Create without an ID; the server assigns one.
	rec := doJSON(t, handler, http.MethodPost, "/api/expenses", expensePayload{
		Date:        "2024-06-12",
		Description: "Team lunch",
		UserID:      "user-1",
		Amount:      42.50,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created expensePayload
	decodeJSON(t, rec, &created)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "2024-06-12", created.Date)

	rec = doJSON(t, handler, http.MethodGet, "/api/expenses/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/expenses/"+created.ID, expensePayload{
		Date:        "2024-06-12",
		Description: "Team lunch (updated)",
		UserID:      "user-1",
		Amount:      45.00,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated expensePayload
	decodeJSON(t, rec, &updated)
	assert.Equal(t, "Team lunch (updated)", updated.Description)

	rec = doJSON(t, handler, http.MethodGet, "/api/expenses?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Expenses []expensePayload `json:"expenses"`
	}
	decodeJSON(t, rec, &listed)
	require.Len(t, listed.Expenses, 1)

	rec = doJSON(t, handler, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, handler, http.MethodGet, "/api/expenses/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseNotFoundResponses(t *testing.T) {
	srv := newTestServer(nil, nil, nil, newTestStorage(t))
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodGet, "/api/expenses/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodDelete, "/api/expenses/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPut, "/api/expenses/missing", expensePayload{
		Date:   "2024-06-12",
		UserID: "user-1",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListExpensesRequiresUser(t *testing.T) {
	srv := newTestServer(nil, nil, nil, newTestStorage(t))

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/expenses", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCategories(t *testing.T) {
	srv := newTestServer(nil, nil, nil, newTestStorage(t))
	handler := srv.Handler()

	rec := doJSON(t, handler, http.MethodPost, "/api/categories", categoryPayload{
		Name:   "Meals",
		Color:  "#00ff00",
		UserID: "user-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created categoryPayload
	decodeJSON(t, rec, &created)
	assert.NotEmpty(t, created.ID)

	rec = doJSON(t, handler, http.MethodGet, "/api/categories?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Categories []categoryPayload `json:"categories"`
	}
	decodeJSON(t, rec, &listed)
	require.Len(t, listed.Categories, 1)
	assert.Equal(t, "Meals", listed.Categories[0].Name)
}

func TestCreateCategoryRequiresName(t *testing.T) {
	srv := newTestServer(nil, nil, nil, newTestStorage(t))

	rec := doJSON(t, srv.Handler(), http.MethodPost, "/api/categories",
		categoryPayload{UserID: "user-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExpenseSummaryEndpoint(t *testing.T) {
	store := newTestStorage(t)
	require.NoError(t, store.CreateExpense(context.Background(), &model.Expense{
		ID:          "e1",
		Date:        time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		Description: "Team lunch",
		UserID:      "user-1",
		Amount:      42.50,
	}))

	srv := newTestServer(nil, nil, nil, store)

	rec := doJSON(t, srv.Handler(), http.MethodGet, "/api/expenses/summary?user_id=user-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summary model.ExpenseSummary
	decodeJSON(t, rec, &summary)
	assert.Equal(t, 42.50, summary.TotalAmount)
	assert.Equal(t, 1, summary.TotalExpenses)
}
