// Package csv parses reimbursement exports in CSV form into transactions.
package csv

import (
	"context"
	encsv "encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// Columns every export must carry. Matching is case-insensitive and
// ignores surrounding whitespace.
var requiredColumns = []string{"date", "employee", "team", "amount", "description", "category"}

// Parser implements reimbursement CSV parsing.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new CSV parser.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

// ParseFile parses a reimbursement CSV export and returns transactions.
// Rows that fail to parse are skipped with a warning; the parse only
// errors when no row at all could be read.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]model.Transaction, error) {
	r := encsv.NewReader(reader)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var transactions []model.Transaction
	var skipped int
	line := 1

	for {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		record, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		line++
		if readErr != nil {
			p.logger.Warn("Skipping malformed CSV row", "line", line, "error", readErr)
			skipped++
			continue
		}

		txn, rowErr := p.parseRow(record, columns, line)
		if rowErr != nil {
			p.logger.Warn("Skipping CSV row", "line", line, "error", rowErr)
			skipped++
			continue
		}
		transactions = append(transactions, *txn)
	}

	if len(transactions) == 0 {
		return nil, fmt.Errorf("no valid transactions found in CSV (%d rows skipped)", skipped)
	}

	p.logger.Info("Parsed reimbursement CSV",
		"transactions", len(transactions),
		"skipped", skipped)

	return transactions, nil
}

func (p *Parser) parseRow(record []string, columns map[string]int, line int) (*model.Transaction, error) {
	get := func(name string) string {
		idx := columns[name]
		if idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	dateStr := get("date")
	date, err := parseDate(dateStr)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", dateStr, err)
	}

	amountStr := strings.ReplaceAll(get("amount"), ",", "")
	amountStr = strings.TrimPrefix(amountStr, "$")
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", get("amount"), err)
	}

	txn := &model.Transaction{
		PurchasedAt:    date,
		Memo:           get("description"),
		DepartmentName: get("team"),
		BudgetName:     get("category"),
		UserEmail:      get("employee"),
		USDAmount:      amount,
	}
	txn.ID = fmt.Sprintf("csv-%d-%s", line, txn.GenerateHash()[:12])

	return txn, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, required := range requiredColumns {
		if _, ok := columns[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required columns: %s", strings.Join(missing, ", "))
	}

	return columns, nil
}

var dateLayouts = []string{"2006-01-02", "01/02/2006", "1/2/2006", "2006/01/02"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}
