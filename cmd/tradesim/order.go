package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"
)

// orderCmd implements both "buy" and "sell".
type orderCmd struct {
	side string
}

func (c *orderCmd) Name() string     { return c.side }
func (c *orderCmd) Synopsis() string { return c.side + " shares at the current quote" }
func (c *orderCmd) Usage() string {
	return fmt.Sprintf(`tradesim %s <symbol> <quantity>

  Submits a %s order. The order executes at the current quote or is
  rejected with a reason.
`, c.side, c.side)
}

func (*orderCmd) SetFlags(*flag.FlagSet) {}

func (c *orderCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		fmt.Fprint(os.Stderr, c.Usage())
		return subcommands.ExitUsageError
	}
	qty, err := strconv.ParseInt(f.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid quantity %q\n", f.Arg(1))
		return subcommands.ExitUsageError
	}

	res, err := client().SubmitOrder(ctx, f.Arg(0), c.side, qty)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}
	if !res.Applied() {
		fmt.Fprintf(os.Stderr, "rejected (%s): %s\n", res.Reason, res.Message)
		return subcommands.ExitFailure
	}

	note := ""
	if res.Quote.Synthetic {
		note = " (synthetic price)"
	}
	fmt.Printf("%s %d %s @ %s%s\n", res.Order.Side, res.Order.Quantity, res.Order.Symbol, usd(res.Quote.Price), note)
	fmt.Printf("Cash: %s\n", usd(res.Balance))
	return subcommands.ExitSuccess
}
