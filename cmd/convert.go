package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/fifo"
	"github.com/etnz/fifo/normalizer"
	"github.com/google/subcommands"
)

// convertCmd holds the flags for the 'convert' subcommand.
type convertCmd struct {
	currency   string
	dayFirst   bool
	outputFile string
}

func (*convertCmd) Name() string     { return "convert" }
func (*convertCmd) Synopsis() string { return "converts a CSV export into a JSONL ledger" }
func (*convertCmd) Usage() string {
	return `fifo convert [-currency <code>] [-day-first] [-o <file>] <export.csv>

  Reads a brokerage CSV export, detects its delimiter, decimal separator and
  column names, and writes the buys and sells it contains as a JSONL ledger,
  one transaction per line sorted by date. Other rows are skipped.

Usage Examples:
$ fifo convert -o ledger.jsonl export.csv

`
}

func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", cfg.Currency, "Currency label of every amount.")
	f.BoolVar(&c.dayFirst, "day-first", cfg.DayFirst, "Read ambiguous dates like 01/02/2024 as day first.")
	f.StringVar(&c.outputFile, "o", "", "Output file. Defaults to the standard output.")
}

func (c *convertCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one CSV export is expected")
		return subcommands.ExitUsageError
	}
	currency := strings.ToUpper(strings.TrimSpace(c.currency))
	if currency != "" {
		if err := fifo.ValidateCurrency(currency); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	in, err := os.Open(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer in.Close()

	res, err := normalizer.Normalize(in, normalizer.Options{Currency: currency, DayFirst: c.dayFirst})
	if err != nil {
		reportNormalizeError(err)
		return subcommands.ExitFailure
	}

	var w io.Writer = stdout
	if c.outputFile != "" {
		out, err := os.Create(c.outputFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.outputFile, err)
			return subcommands.ExitFailure
		}
		defer out.Close()
		w = out
	}
	if err := fifo.EncodeLedger(w, res.Transactions); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger: %v\n", err)
		return subcommands.ExitFailure
	}

	logger().Info("converted export",
		"file", f.Arg(0),
		"security", res.Security,
		"transactions", len(res.Transactions),
		"skipped", res.Skipped,
	)
	return subcommands.ExitSuccess
}

// reportNormalizeError prints every unreadable row on its own line.
func reportNormalizeError(err error) {
	var lineErr *normalizer.LineError
	if !errors.As(err, &lineErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintln(os.Stderr, "Error: some rows cannot be read:")
	for _, line := range strings.Split(err.Error(), "\n") {
		fmt.Fprintf(os.Stderr, "  %s\n", line)
	}
}
