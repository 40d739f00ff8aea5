package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
)

// Styles.
var (
	symbolStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	gainStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	lossStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	colHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("245")).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
	numCellStyle   = cellStyle.Align(lipgloss.Right)
)

// usd formats d as US dollars rounded to cents, e.g. "$1,234.50".
func usd(d decimal.Decimal) string {
	cents := d.Shift(2).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// signed renders a dollar change green when positive and red when negative.
func signed(d decimal.Decimal) string {
	switch d.Sign() {
	case 1:
		return gainStyle.Render("+" + usd(d))
	case -1:
		return lossStyle.Render(usd(d))
	default:
		return usd(d)
	}
}

// trendStyle colours a predicted trend: bullish green, bearish red.
func trendStyle(trend string) lipgloss.Style {
	switch trend {
	case "bullish":
		return gainStyle
	case "bearish":
		return lossStyle
	default:
		return dimStyle
	}
}

// newTable returns a bordered table whose columns listed in numeric are
// right-aligned.
func newTable(headers []string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return colHeaderStyle
			case right[col]:
				return numCellStyle
			default:
				return cellStyle
			}
		})
}

func qty(n int64) string { return strconv.FormatInt(n, 10) }

func fail(err error) {
	fmt.Fprintln(os.Stderr, lossStyle.Render(err.Error()))
}
