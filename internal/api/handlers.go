package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/anduinlabs/expenseflow/internal/common"
	"github.com/anduinlabs/expenseflow/internal/model"
	"github.com/anduinlabs/expenseflow/internal/service"
)

// maxReceiptUpload bounds receipt uploads; images above the parser's own
// limit are rejected there with a clearer message.
const maxReceiptUpload = 10 << 20

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type enrichRequest struct {
	Transactions []transactionPayload `json:"transactions"`
}

type enrichResponse struct {
	Results []enrichedPayload `json:"results"`
}

func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	if s.matcher == nil {
		s.respondError(w, http.StatusServiceUnavailable, "calendar matching is not configured")
		return
	}

	var req enrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if len(req.Transactions) == 0 {
		s.respondError(w, http.StatusBadRequest, "transactions list is empty")
		return
	}

	txns := make([]model.Transaction, 0, len(req.Transactions))
	for i, payload := range req.Transactions {
		txn, err := payload.toModel()
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("transaction %d: %v", i, err))
			return
		}
		txns = append(txns, txn)
	}

	enriched := s.matcher.EnrichAll(r.Context(), txns)

	results := make([]enrichedPayload, 0, len(enriched))
	for _, e := range enriched {
		results = append(results, enrichedFromModel(e))
	}
	s.respondJSON(w, http.StatusOK, enrichResponse{Results: results})
}

type matchSingleRequest struct {
	Transaction transactionPayload `json:"transaction"`
	Events      []eventPayload     `json:"events"`
}

type matchSingleResponse struct {
	Event      *eventPayload `json:"event,omitempty"`
	Confidence string        `json:"confidence,omitempty"`
	Reasoning  string        `json:"reasoning"`
	Score      float64       `json:"score"`
}

// handleMatchSingle scores one transaction against a caller-supplied set
// of same-day events. No calendar fetch happens; this is the pure scoring
// path for clients that already hold the events.
func (s *Server) handleMatchSingle(w http.ResponseWriter, r *http.Request) {
	if s.matcher == nil {
		s.respondError(w, http.StatusServiceUnavailable, "calendar matching is not configured")
		return
	}

	var req matchSingleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	txn, err := req.Transaction.toModel()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	events := make([]model.CalendarEvent, 0, len(req.Events))
	for i, payload := range req.Events {
		event, convErr := payload.toModel()
		if convErr != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("event %d: %v", i, convErr))
			return
		}
		events = append(events, event)
	}

	result := s.matcher.MatchSingleDay(&txn, events)
	s.respondJSON(w, http.StatusOK, matchSingleResponse{
		Event:      eventFromModel(result.Event),
		Confidence: string(result.Confidence),
		Reasoning:  result.Reason(),
		Score:      result.Score,
	})
}

func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	if s.parser == nil {
		s.respondError(w, http.StatusServiceUnavailable, "receipt parsing is not configured")
		return
	}

	if err := r.ParseMultipartForm(maxReceiptUpload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}

	file, header, err := r.FormFile("receipt")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing receipt file")
		return
	}
	defer func() { _ = file.Close() }()

	image, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	parsed, err := s.parser.ParseReceipt(r.Context(), image, header.Header.Get("Content-Type"))
	if err != nil {
		if errors.Is(err, common.ErrReceiptUnreadable) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("receipt parsing failed", "error", err)
		s.respondError(w, http.StatusBadGateway, "receipt parsing failed")
		return
	}

	s.respondJSON(w, http.StatusOK, parsed)
}

func (s *Server) handleBrexExpenses(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		s.respondError(w, http.StatusServiceUnavailable, "transaction feed is not configured")
		return
	}

	end := time.Now()
	start := end.AddDate(0, 0, -30)

	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid start date %q", v))
			return
		}
		start = t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid end date %q", v))
			return
		}
		end = t
	}

	txns, err := s.feed.FetchReimbursements(r.Context(), start, end)
	if err != nil {
		s.logger.Error("failed to fetch reimbursements", "error", err)
		s.respondError(w, http.StatusBadGateway, "failed to fetch reimbursements")
		return
	}

	payloads := make([]transactionPayload, 0, len(txns))
	for _, txn := range txns {
		payloads = append(payloads, transactionFromModel(txn))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"transactions": payloads})
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	filter := service.ExpenseFilter{UserID: r.URL.Query().Get("user_id")}
	if filter.UserID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	if v := r.URL.Query().Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil || offset < 0 {
			s.respondError(w, http.StatusBadRequest, "invalid offset")
			return
		}
		filter.Offset = offset
	}
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid start date")
			return
		}
		filter.StartDate = &t
	}
	if v := r.URL.Query().Get("end"); v != "" {
		t, err := time.ParseInLocation("2006-01-02", v, time.Local)
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid end date")
			return
		}
		filter.EndDate = &t
	}

	expenses, err := s.storage.GetExpenses(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list expenses", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list expenses")
		return
	}

	payloads := make([]expensePayload, 0, len(expenses))
	for _, e := range expenses {
		payloads = append(payloads, expenseFromModel(e))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"expenses": payloads})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	expense, err := payload.toModel()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}

	if err := s.storage.CreateExpense(r.Context(), &expense); err != nil {
		s.logger.Error("failed to create expense", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to create expense")
		return
	}

	s.respondJSON(w, http.StatusCreated, expenseFromModel(expense))
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	id := mux.Vars(r)["id"]
	expense, err := s.storage.GetExpenseByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to get expense", "id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to get expense")
		return
	}

	s.respondJSON(w, http.StatusOK, expenseFromModel(*expense))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	var payload expensePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	payload.ID = mux.Vars(r)["id"]

	expense, err := payload.toModel()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.UpdateExpense(r.Context(), &expense); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to update expense", "id", expense.ID, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to update expense")
		return
	}

	s.respondJSON(w, http.StatusOK, expenseFromModel(expense))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	id := mux.Vars(r)["id"]
	if err := s.storage.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			s.respondError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.Error("failed to delete expense", "id", id, "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to delete expense")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExpenseSummary(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	summary, err := s.storage.GetExpenseSummary(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to build expense summary", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to build expense summary")
		return
	}

	s.respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		s.respondError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	categories, err := s.storage.GetCategories(r.Context(), userID)
	if err != nil {
		s.logger.Error("failed to list categories", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	payloads := make([]categoryPayload, 0, len(categories))
	for _, c := range categories {
		payloads = append(payloads, categoryFromModel(c))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"categories": payloads})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if s.storage == nil {
		s.respondError(w, http.StatusServiceUnavailable, "expense storage is not configured")
		return
	}

	var payload categoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if payload.Name == "" {
		s.respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if payload.ID == "" {
		payload.ID = uuid.New().String()
	}

	category := model.Category{
		ID:     payload.ID,
		Name:   payload.Name,
		Color:  payload.Color,
		Icon:   payload.Icon,
		UserID: payload.UserID,
	}
	if err := s.storage.CreateCategory(r.Context(), &category); err != nil {
		s.logger.Error("failed to create category", "error", err)
		s.respondError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	s.respondJSON(w, http.StatusCreated, categoryFromModel(category))
}
