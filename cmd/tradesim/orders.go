package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
)

type ordersCmd struct {
	limit int
}

func (*ordersCmd) Name() string     { return "orders" }
func (*ordersCmd) Synopsis() string { return "list recent orders" }
func (*ordersCmd) Usage() string {
	return `tradesim orders [-n <limit>]

  Lists journaled orders, newest first.
`
}

func (c *ordersCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&c.limit, "n", 20, "maximum number of orders to list")
}

func (c *ordersCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	results, err := client().ListOrders(ctx, c.limit)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	t := newTable([]string{"Time", "Side", "Symbol", "Qty", "Price", "State", "Reason"}, 3, 4)
	for _, r := range results {
		price := "-"
		if r.Quote != nil {
			price = usd(r.Quote.Price)
		}
		state := gainStyle.Render(r.State)
		if !r.Applied() {
			state = lossStyle.Render(r.State)
		}
		t.Row(r.Order.SubmittedAt.Local().Format("2006-01-02 15:04:05"),
			r.Order.Side, symbolStyle.Render(r.Order.Symbol), qty(r.Order.Quantity), price, state, r.Reason)
	}
	fmt.Println(t.Render())
	return subcommands.ExitSuccess
}
