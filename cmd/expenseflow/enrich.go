package main

import (
	"context"
	encsv "encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/anduinlabs/expenseflow/internal/cli"
	"github.com/anduinlabs/expenseflow/internal/csv"
	"github.com/anduinlabs/expenseflow/internal/model"
)

func enrichCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Match reimbursement expenses to calendar events",
		Long: `Fetch reimbursement expenses and match each one to the calendar event
it most likely belongs to.

Expenses come from the Brex API by default, or from a CSV export with
--csv. Results are printed as a table, or written to a file with --out.`,
		RunE: runEnrich,
	}

	cmd.Flags().StringP("start-date", "s", "", "Start date for expense fetch (format: 2006-01-02)")
	cmd.Flags().StringP("end-date", "e", "", "End date for expense fetch (format: 2006-01-02)")
	cmd.Flags().IntP("days", "d", 30, "Number of days to fetch (used if start/end dates not specified)")
	cmd.Flags().String("csv", "", "Read expenses from a CSV export instead of the Brex API")
	cmd.Flags().StringP("out", "o", "", "Write enriched results to a file (.csv or .json)")

	_ = viper.BindPFlag("enrich.start_date", cmd.Flags().Lookup("start-date"))
	_ = viper.BindPFlag("enrich.end_date", cmd.Flags().Lookup("end-date"))
	_ = viper.BindPFlag("enrich.days", cmd.Flags().Lookup("days"))

	return cmd
}

func runEnrich(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	csvPath, _ := cmd.Flags().GetString("csv")
	outPath, _ := cmd.Flags().GetString("out")

	txns, err := loadTransactions(ctx, cmd, csvPath)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		slog.Info(cli.FormatWarning("No reimbursement expenses found"))
		return nil
	}

	matcher, err := newMatcher(ctx)
	if err != nil {
		return err
	}

	slog.Info(cli.FormatTitle("Matching expenses to calendar events"))

	bar := progressbar.Default(int64(len(txns)), "matching")
	enriched := make([]model.EnrichedTransaction, 0, len(txns))
	for _, txn := range txns {
		enriched = append(enriched, matcher.EnrichOne(ctx, txn))
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	matched := 0
	for _, e := range enriched {
		if e.CalendarEvent != nil {
			matched++
		}
	}
	slog.Info(cli.FormatSuccess(fmt.Sprintf("Matched %d of %d expenses", matched, len(enriched))))

	if outPath != "" {
		return writeEnriched(outPath, enriched)
	}

	if len(enriched) == 1 {
		fmt.Println(cli.RenderMatchSummary(enriched[0]))
	} else {
		fmt.Println(cli.RenderEnrichedTable(enriched))
	}
	return nil
}

func loadTransactions(ctx context.Context, cmd *cobra.Command, csvPath string) ([]model.Transaction, error) {
	if csvPath != "" {
		file, err := os.Open(csvPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer func() { _ = file.Close() }()

		parser := csv.NewParser(slog.Default())
		return parser.ParseFile(ctx, file)
	}

	startFlag, _ := cmd.Flags().GetString("start-date")
	endFlag, _ := cmd.Flags().GetString("end-date")
	days, _ := cmd.Flags().GetInt("days")

	start, end, err := parseDateRange(startFlag, endFlag, days)
	if err != nil {
		return nil, err
	}

	client, err := newBrexClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create Brex client: %w", err)
	}

	slog.Info("Fetching reimbursements",
		"start", start.Format("2006-01-02"),
		"end", end.Format("2006-01-02"))

	return client.FetchReimbursements(ctx, start, end)
}

func writeEnriched(path string, enriched []model.EnrichedTransaction) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if isJSONPath(path) {
		encoder := json.NewEncoder(file)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(enrichedRecords(enriched)); err != nil {
			return fmt.Errorf("failed to write JSON output: %w", err)
		}
	} else {
		w := encsv.NewWriter(file)
		header := []string{"date", "amount", "memo", "location", "employee", "matched_event", "confidence", "reasoning"}
		if err := w.Write(header); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for _, e := range enriched {
			eventSummary := ""
			if e.CalendarEvent != nil {
				eventSummary = e.CalendarEvent.Summary
			}
			row := []string{
				e.PurchasedAt.Format("2006-01-02"),
				fmt.Sprintf("%.2f", e.USDAmount),
				e.Memo,
				e.LocationName,
				e.UserEmail,
				eventSummary,
				string(e.Confidence),
				e.MatchReasoning,
			}
			if err := w.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row: %w", err)
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return fmt.Errorf("failed to flush CSV output: %w", err)
		}
	}

	slog.Info(cli.FormatSuccess(fmt.Sprintf("Wrote %d enriched expenses to %s", len(enriched), path)))
	return nil
}

type enrichedRecord struct {
	Date       string  `json:"date"`
	Memo       string  `json:"memo"`
	Location   string  `json:"location,omitempty"`
	Employee   string  `json:"employee"`
	Amount     float64 `json:"amount"`
	Event      string  `json:"matched_event,omitempty"`
	Confidence string  `json:"confidence,omitempty"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

func enrichedRecords(enriched []model.EnrichedTransaction) []enrichedRecord {
	records := make([]enrichedRecord, 0, len(enriched))
	for _, e := range enriched {
		record := enrichedRecord{
			Date:       e.PurchasedAt.Format("2006-01-02"),
			Memo:       e.Memo,
			Location:   e.LocationName,
			Employee:   e.UserEmail,
			Amount:     e.USDAmount,
			Confidence: string(e.Confidence),
			Reasoning:  e.MatchReasoning,
		}
		if e.CalendarEvent != nil {
			record.Event = e.CalendarEvent.Summary
		}
		records = append(records, record)
	}
	return records
}

func isJSONPath(path string) bool {
	return len(path) > 5 && path[len(path)-5:] == ".json"
}
