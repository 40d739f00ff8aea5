package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type accountCmd struct{}

func (*accountCmd) Name() string     { return "account" }
func (*accountCmd) Synopsis() string { return "show cash, holdings and total value" }
func (*accountCmd) Usage() string {
	return `tradesim account

  Prints the cash balance and every holding valued at the current quote.
`
}

func (*accountCmd) SetFlags(*flag.FlagSet) {}

func (*accountCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	acct, err := client().GetAccount(ctx)
	if err != nil {
		fail(err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Cash:        %s\n", usd(acct.Cash))
	fmt.Printf("Total value: %s\n", usd(acct.TotalValue))
	if len(acct.Holdings) == 0 {
		return subcommands.ExitSuccess
	}

	t := newTable([]string{"Symbol", "Qty", "Avg cost", "Cost basis"}, 1, 2, 3)
	book := acct.Cash
	for _, p := range acct.Holdings {
		basis := p.AverageCost.Mul(decimal.NewFromInt(p.Quantity))
		book = book.Add(basis)
		t.Row(symbolStyle.Render(p.Symbol), qty(p.Quantity), usd(p.AverageCost), usd(basis))
	}
	fmt.Printf("Unrealized:  %s\n\n", signed(acct.TotalValue.Sub(book)))
	fmt.Println(t.Render())
	return subcommands.ExitSuccess
}
