package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type positionsCmd struct{}

func (*positionsCmd) Name() string     { return "positions" }
func (*positionsCmd) Synopsis() string { return "list held positions" }
func (*positionsCmd) Usage() string {
	return `tradesim positions

  Lists holdings in order of first acquisition.
`
}

func (*positionsCmd) SetFlags(*flag.FlagSet) {}

func (*positionsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	positions, err := client().GetPositions(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if len(positions) == 0 {
		fmt.Println("no positions")
		return subcommands.ExitSuccess
	}

	t := newTable([]string{"Symbol", "Qty", "Avg cost"}, 1, 2)
	for _, p := range positions {
		t.Row(symbolStyle.Render(p.Symbol), qty(p.Quantity), usd(p.AverageCost))
	}
	fmt.Println(t.Render())
	return subcommands.ExitSuccess
}
