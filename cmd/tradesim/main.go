// Command tradesim is a command-line client for tradesim-server.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"

	"tradesim/pkg/tradesim"
)

var addr = flag.String("addr", envOr("TRADESIM_ADDR", "http://127.0.0.1:8080"), "tradesim-server base URL")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "trading")
	}
	commander.ImportantFlag("addr")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&accountCmd{},
	&positionsCmd{},
	&orderCmd{side: "buy"},
	&orderCmd{side: "sell"},
	&quoteCmd{},
	&predictCmd{},
	&ordersCmd{},
}

func client() *tradesim.Client {
	return tradesim.NewClient(*addr)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
