// Package cmd implements the CLI application to analyze a security position
// with FIFO lot accounting.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/fifo"
	"github.com/etnz/fifo/normalizer"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	cfg = LoadConfig()

	c.Register(&analyzeCmd{}, "analysis")
	c.Register(&lotsCmd{}, "analysis")
	c.Register(&matchesCmd{}, "analysis")

	c.Register(&convertCmd{}, "ledger")

	c.Register(&topicCmd{}, "documentation")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error). Defaults to $"+EnvLogLevel+" or warn.")

// stdout receives the command outputs.
var stdout io.Writer = os.Stdout

// inputFlags are the flags shared by every command reading a transaction file.
type inputFlags struct {
	currency string
	price    string
	security string
	dayFirst bool
}

func (in *inputFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&in.currency, "currency", cfg.Currency, "Currency label of every amount.")
	f.StringVar(&in.price, "price", cfg.CurrentPrice, "Current unit price used to value the open position.")
	f.StringVar(&in.security, "security", "", "Security name shown in reports. Defaults to the name found in the file.")
	f.BoolVar(&in.dayFirst, "day-first", cfg.DayFirst, "Read ambiguous dates like 01/02/2024 as day first.")
}

// options checks the flags and turns them into engine options.
func (in *inputFlags) options() (fifo.Options, error) {
	opts := fifo.Options{
		Currency: strings.ToUpper(strings.TrimSpace(in.currency)),
		Security: in.security,
	}
	if opts.Currency != "" {
		if err := fifo.ValidateCurrency(opts.Currency); err != nil {
			return opts, err
		}
	}
	if in.price != "" {
		d, err := decimal.NewFromString(strings.TrimSpace(in.price))
		if err != nil {
			return opts, fmt.Errorf("invalid current price %q: %w", in.price, err)
		}
		if !d.IsPositive() {
			return opts, fmt.Errorf("current price must be positive, got %s", d)
		}
		p := fifo.M(d, opts.Currency)
		opts.CurrentPrice = &p
	}
	return opts, nil
}

// load reads the transactions of a CSV export or, when the name ends with
// .jsonl, of a ledger. It returns the security name found in the file.
func (in *inputFlags) load(name, currency string) ([]fifo.Transaction, string, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	if strings.HasSuffix(strings.ToLower(name), ".jsonl") {
		txs, err := fifo.DecodeLedger(f)
		if err != nil {
			return nil, "", fmt.Errorf("error decoding ledger %q: %w", name, err)
		}
		return txs, "", nil
	}

	res, err := normalizer.Normalize(f, normalizer.Options{Currency: currency, DayFirst: in.dayFirst})
	if err != nil {
		return nil, "", fmt.Errorf("error reading export %q: %w", name, err)
	}
	logger().Info("normalized export",
		"file", name,
		"delimiter", string(res.Dialect.Delimiter),
		"decimalComma", res.Dialect.DecimalComma,
		"language", res.Dialect.Language,
		"transactions", len(res.Transactions),
		"skipped", res.Skipped,
	)
	return res.Transactions, res.Security, nil
}

// analyze runs the engine on the file named by the single argument of f.
func (in *inputFlags) analyze(f *flag.FlagSet) (*fifo.AnalysisResult, subcommands.ExitStatus) {
	if f.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "exactly one transaction file is expected")
		return nil, subcommands.ExitUsageError
	}
	opts, err := in.options()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitUsageError
	}
	txs, security, err := in.load(f.Arg(0), opts.Currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	if opts.Security == "" {
		opts.Security = security
	}
	opts.Logger = logger()

	r, err := fifo.Analyze(txs, opts)
	if err != nil {
		reportAnalysisError(err)
		return nil, subcommands.ExitFailure
	}
	return r, subcommands.ExitSuccess
}

// reportAnalysisError explains an engine error on stderr.
func reportAnalysisError(err error) {
	var short *fifo.InsufficientPositionError
	var malformed *fifo.MalformedInputError
	switch {
	case errors.As(err, &short):
		fmt.Fprintf(os.Stderr, "Error: %v\nThe export is probably incomplete: a purchase of at least %s is missing before %s.\n", err, short.Shortfall, short.Tx.Date)
	case errors.As(err, &malformed):
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	default:
		fmt.Fprintf(os.Stderr, "Error analyzing transactions: %v\n", err)
	}
}
