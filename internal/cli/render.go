package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/anduinlabs/expenseflow/internal/model"
)

// confidenceStyle maps a match confidence to a display style.
func confidenceStyle(c model.Confidence) lipgloss.Style {
	switch c {
	case model.ConfidenceHigh:
		return SuccessStyle
	case model.ConfidenceMedium:
		return WarningStyle
	case model.ConfidenceLow:
		return SubtleStyle
	default:
		return ErrorStyle
	}
}

// FormatConfidence renders a confidence tier with its color.
func FormatConfidence(c model.Confidence) string {
	label := string(c)
	if label == "" {
		label = "none"
	}
	return confidenceStyle(c).Render(label)
}

// RenderEnrichedTable renders a batch of enriched transactions as an
// aligned table: date, amount, memo, matched event, confidence.
func RenderEnrichedTable(enriched []model.EnrichedTransaction) string {
	if len(enriched) == 0 {
		return SubtleStyle.Render("No transactions to display.")
	}

	headers := []string{"Date", "Amount", "Memo", "Matched Event", "Confidence"}
	rows := make([][]string, 0, len(enriched))
	for _, e := range enriched {
		eventSummary := "-"
		if e.CalendarEvent != nil {
			eventSummary = truncate(e.CalendarEvent.Summary, 40)
		}
		rows = append(rows, []string{
			e.PurchasedAt.Format("2006-01-02"),
			fmt.Sprintf("$%.2f", e.USDAmount),
			truncate(e.Memo, 36),
			eventSummary,
			string(e.Confidence),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	for i, h := range headers {
		b.WriteString(TableHeaderStyle.Width(widths[i] + 2).Render(h))
	}
	b.WriteString("\n")

	for r, row := range rows {
		for i, cell := range row {
			style := TableCellStyle.Width(widths[i] + 2)
			if i == len(row)-1 {
				style = style.Inherit(confidenceStyle(enriched[r].Confidence))
				if cell == "" {
					cell = "none"
				}
			}
			b.WriteString(style.Render(cell))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// RenderMatchSummary renders one enriched transaction with its reasoning.
func RenderMatchSummary(e model.EnrichedTransaction) string {
	var lines []string

	lines = append(lines, fmt.Sprintf("%s  %s  $%.2f",
		e.PurchasedAt.Format("2006-01-02"), e.Memo, e.USDAmount))

	if e.CalendarEvent != nil {
		lines = append(lines, FormatSuccess(fmt.Sprintf("Matched: %s", e.CalendarEvent.Summary)))
		lines = append(lines, "Confidence: "+FormatConfidence(e.Confidence))
	} else {
		lines = append(lines, ErrorStyle.Render(ErrorIcon+" No match"))
	}

	if e.MatchReasoning != "" {
		lines = append(lines, SubtleStyle.Render(e.MatchReasoning))
	}

	return strings.Join(lines, "\n")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
