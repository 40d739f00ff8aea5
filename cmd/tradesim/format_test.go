package main

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/shopspring/decimal"
)

func TestUSD(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "$0.00"},
		{"150", "$150.00"},
		{"8500", "$8,500.00"},
		{"196.7385", "$196.74"},
		{"-12.5", "-$12.50"},
	}
	for _, tt := range tests {
		if got := usd(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("usd(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTrendStyle(t *testing.T) {
	tests := []struct {
		trend string
		want  lipgloss.TerminalColor
	}{
		{"bullish", gainStyle.GetForeground()},
		{"bearish", lossStyle.GetForeground()},
		{"neutral", dimStyle.GetForeground()},
	}
	for _, tt := range tests {
		if got := trendStyle(tt.trend).GetForeground(); got != tt.want {
			t.Errorf("trendStyle(%s) foreground = %v, want %v", tt.trend, got, tt.want)
		}
	}
}

func TestSigned(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"7.5", "+$7.50"},
		{"-12.5", "-$12.50"},
		{"0", "$0.00"},
	}
	for _, tt := range tests {
		if got := ansi.Strip(signed(decimal.RequireFromString(tt.in))); got != tt.want {
			t.Errorf("signed(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewTable(t *testing.T) {
	tbl := newTable([]string{"Symbol", "Price", "Trend"}, 1)
	tbl.Row("AAPL", usd(decimal.NewFromInt(150)), trendStyle("bullish").Render("bullish"))
	tbl.Row("TSLA", usd(decimal.RequireFromString("99.5")), trendStyle("bearish").Render("bearish"))

	out := ansi.Strip(tbl.Render())
	for _, want := range []string{"Symbol", "AAPL", "$150.00", "bullish", "TSLA", "$99.50", "bearish"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Split(strings.TrimRight(out, "\n"), "\n"); len(lines) != 6 {
		t.Errorf("table has %d lines, want 6 (borders, header, separator, 2 rows):\n%s", len(lines), out)
	}
}
