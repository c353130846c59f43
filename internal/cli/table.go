package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/noah-isme/punch-attendance/internal/dto"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("69")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	flagStyle   = cellStyle.Foreground(lipgloss.Color("203"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// statusColumn is the index of the combined status text in dto.SummaryHeaders.
const statusColumn = 7

// RenderSummaryTable formats summary rows as a bordered terminal table.
func RenderSummaryTable(rows []dto.SummaryRow) string {
	cells := make([][]string, 0, len(rows))
	for _, row := range rows {
		cells = append(cells, row.Cells())
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(dto.SummaryHeaders...).
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case col == statusColumn && row >= 0 && row < len(cells) && cells[row][col] != "":
				return flagStyle
			default:
				return cellStyle
			}
		})
	return t.String()
}
