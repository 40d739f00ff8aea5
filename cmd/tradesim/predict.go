package main

import (
	"context"
	"flag"
	"fmt"
	"slices"

	"github.com/google/subcommands"

	"tradesim/pkg/tradesim"
)

type predictCmd struct {
	holdings bool
}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "estimate next prices" }
func (*predictCmd) Usage() string {
	return `tradesim predict [-holdings] [<symbol>...]

  Estimates the next price for the given symbols, the server's watchlist when
  none are given, or every holding with -holdings.
`
}

func (c *predictCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.holdings, "holdings", false, "predict every held symbol")
}

func (c *predictCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var (
		p   *tradesim.Predictions
		err error
	)
	if c.holdings {
		p, err = client().PredictHoldings(ctx)
	} else {
		p, err = client().Predict(ctx, f.Args()...)
	}
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	symbols := make([]string, 0, len(p.Estimates))
	for sym := range p.Estimates {
		symbols = append(symbols, sym)
	}
	slices.Sort(symbols)

	t := newTable([]string{"Symbol", "Price", "Predicted", "Change", "Trend", "Basis"}, 1, 2, 3)
	for _, sym := range symbols {
		e := p.Estimates[sym]
		t.Row(symbolStyle.Render(sym), usd(e.ReferencePrice), usd(e.PredictedPrice),
			signed(e.PredictedPrice.Sub(e.ReferencePrice)), trendStyle(e.Trend).Render(e.Trend), e.Basis)
	}
	fmt.Println(t.Render())
	if !p.ModelPresent {
		fmt.Println(dimStyle.Render("no model loaded: estimates use the +5% heuristic"))
	}
	return subcommands.ExitSuccess
}
