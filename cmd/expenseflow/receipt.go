package main

import (
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anduinlabs/expenseflow/internal/cli"
	"github.com/anduinlabs/expenseflow/internal/receipt"
)

func parseReceiptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse-receipt <image>",
		Short: "Extract expense fields from a receipt image",
		Long: `Send a receipt image through the vision model and print the extracted
merchant, date, amount, and category. Non-USD amounts are converted at
the current exchange rate.`,
		Args: cobra.ExactArgs(1),
		RunE: runParseReceipt,
	}

	return cmd
}

func runParseReceipt(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	path := args[0]

	image, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if err := receipt.ValidateImage(image, mimeType); err != nil {
		return err
	}

	parser, err := newReceiptParser()
	if err != nil {
		return fmt.Errorf("failed to create receipt parser: %w", err)
	}

	slog.Info(cli.FormatInfo("Parsing receipt..."), "file", path)

	parsed, err := parser.ParseReceipt(ctx, image, mimeType)
	if err != nil {
		return fmt.Errorf("failed to parse receipt: %w", err)
	}

	lines := []string{
		fmt.Sprintf("Merchant:    %s", orDash(parsed.Merchant)),
		fmt.Sprintf("Date:        %s", orDash(parsed.Date)),
		fmt.Sprintf("Description: %s", orDash(parsed.Description)),
		fmt.Sprintf("Category:    %s", orDash(parsed.Category)),
		fmt.Sprintf("Amount:      %.2f %s", parsed.Amount, parsed.Currency),
	}
	if parsed.Currency != "USD" {
		lines = append(lines, fmt.Sprintf("Amount USD:  $%.2f", parsed.AmountUSD))
	}
	fmt.Println(cli.RenderBox(cli.ReceiptIcon+" Receipt", strings.Join(lines, "\n")))

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
