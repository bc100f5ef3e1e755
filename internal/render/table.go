package render

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/banshee-data/odour.report/internal/odour"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
)

// Status message levels for the message surface.
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// Status formats a one-line status message for the terminal.
func Status(level, msg string) string {
	switch level {
	case LevelSuccess:
		return successStyle.Render("✔ " + msg)
	case LevelError:
		return errorStyle.Render("✘ " + msg)
	default:
		return infoStyle.Render("ℹ " + msg)
	}
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ResultsTable renders the per-row results with their group id. A positive
// limit truncates the listing to the first limit rows.
func ResultsTable(res *odour.Result, limit int) string {
	t := newTable("Row", odour.ColLatitude, odour.ColLongitude, odour.ColOdourIntensity, odour.ColHedonicTone, "Küme")

	recs := res.Dataset.Records
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}
	for i, r := range recs {
		t.Row(
			strconv.Itoa(r.Row),
			formatFloat(r.Latitude),
			formatFloat(r.Longitude),
			formatFloat(r.OdourIntensity),
			formatFloat(r.HedonicTone),
			strconv.Itoa(res.Assignment[i]),
		)
	}
	return t.String()
}

// SummaryTable renders the per-group means.
func SummaryTable(s odour.Summary) string {
	t := newTable("Küme", "Count", odour.ColOdourIntensity, odour.ColHedonicTone)
	for _, g := range s {
		t.Row(
			strconv.Itoa(g.Group),
			strconv.Itoa(g.Count),
			fmt.Sprintf("%.2f", g.OdourIntensity),
			fmt.Sprintf("%.2f", g.HedonicTone),
		)
	}
	return t.String()
}
