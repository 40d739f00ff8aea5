package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
)

type quoteCmd struct{}

func (*quoteCmd) Name() string     { return "quote" }
func (*quoteCmd) Synopsis() string { return "show the current price of symbols" }
func (*quoteCmd) Usage() string {
	return `tradesim quote <symbol>...
`
}

func (*quoteCmd) SetFlags(*flag.FlagSet) {}

func (c *quoteCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}

	cl := client()
	t := newTable([]string{"Symbol", "Price", "Source"}, 1)
	for _, sym := range f.Args() {
		q, err := cl.GetQuote(ctx, sym)
		if err != nil {
			fail(err)
			return subcommands.ExitFailure
		}
		source := q.Source
		if q.Synthetic {
			source = dimStyle.Render(source)
		}
		t.Row(symbolStyle.Render(q.Symbol), usd(q.Price), source)
	}
	fmt.Println(t.Render())
	return subcommands.ExitSuccess
}
