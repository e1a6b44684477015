package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/fifo"
	"github.com/etnz/fifo/renderer"
	"github.com/google/subcommands"
)

// analyzeCmd holds the flags for the 'analyze' subcommand.
type analyzeCmd struct {
	inputFlags
	matches bool
	json    bool
	query   string
}

func (*analyzeCmd) Name() string     { return "analyze" }
func (*analyzeCmd) Synopsis() string { return "FIFO analysis of a transaction file" }
func (*analyzeCmd) Usage() string {
	return `fifo analyze [-price <price>] [-currency <code>] [-security <name>] [-matches] [-json | -q <jsonpath>] <file>

  Replays the buys and sells of a CSV export, or of a .jsonl ledger, with FIFO
  lot accounting and displays the investment overview, the realized gains and
  the total result. Unrealized gains need the current price of the security.

Usage Examples:
$ fifo analyze -price 132.5 export.csv
$ fifo analyze -q '$.netRealizedGains' ledger.jsonl

`
}

func (c *analyzeCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
	f.BoolVar(&c.matches, "matches", false, "Also display the lots matched by every sell.")
	f.BoolVar(&c.json, "json", false, "Print the analysis as JSON.")
	f.StringVar(&c.query, "q", "", "Print the result of a JSONPath query on the JSON analysis.")
}

func (c *analyzeCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, status := c.analyze(f)
	if status != subcommands.ExitSuccess {
		return status
	}

	if c.query != "" {
		return printQuery(r, c.query)
	}
	if c.json {
		return printJSON(r)
	}

	md := renderer.SummaryMarkdown(r)
	if c.matches {
		md += "\n" + renderer.MatchesMarkdown(r)
	}
	printMarkdown(stdout, md)
	return subcommands.ExitSuccess
}

// printJSON writes v as indented JSON.
func printJSON(v any) subcommands.ExitStatus {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(stdout, string(data))
	return subcommands.ExitSuccess
}

// printQuery evaluates a JSONPath query on the JSON form of v.
func printQuery(v any, path string) subcommands.ExitStatus {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		return subcommands.ExitFailure
	}
	var jobj any
	if err := json.Unmarshal(data, &jobj); err != nil {
		fmt.Fprintf(os.Stderr, "Error decoding JSON: %v\n", err)
		return subcommands.ExitFailure
	}
	jval, err := jsonpath.Get(path, jobj)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error evaluating %q: %v\n", path, err)
		return subcommands.ExitUsageError
	}
	if s, ok := jval.(string); ok {
		// raw strings are easier to use in scripts.
		fmt.Fprintln(stdout, s)
		return subcommands.ExitSuccess
	}
	return printJSON(jval)
}

// lotsCmd holds the flags for the 'lots' subcommand.
type lotsCmd struct {
	inputFlags
	json bool
}

func (*lotsCmd) Name() string     { return "lots" }
func (*lotsCmd) Synopsis() string { return "open lots after a FIFO analysis" }
func (*lotsCmd) Usage() string {
	return `fifo lots [-currency <code>] [-json] <file>

  Lists the lots still open once every sell of the file has consumed the
  oldest lots first, with their unit cost including the purchase fees.
`
}

func (c *lotsCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the open lots as JSON.")
}

func (c *lotsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, status := c.analyze(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	if c.json {
		lots := r.OpenLots
		if lots == nil {
			lots = []fifo.Lot{}
		}
		return printJSON(lots)
	}
	printMarkdown(stdout, renderer.LotsMarkdown(r))
	return subcommands.ExitSuccess
}

// matchesCmd holds the flags for the 'matches' subcommand.
type matchesCmd struct {
	inputFlags
	json bool
}

func (*matchesCmd) Name() string     { return "matches" }
func (*matchesCmd) Synopsis() string { return "lots consumed by every sell" }
func (*matchesCmd) Usage() string {
	return `fifo matches [-currency <code>] [-json] <file>

  Shows, for every sell, the lots it consumed with their cost, their share of
  the sell fees, the proceeds and the realized gain.
`
}

func (c *matchesCmd) SetFlags(f *flag.FlagSet) {
	c.inputFlags.SetFlags(f)
	f.BoolVar(&c.json, "json", false, "Print the matches as JSON.")
}

func (c *matchesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	r, status := c.analyze(f)
	if status != subcommands.ExitSuccess {
		return status
	}
	if c.json {
		matches := r.Matches
		if matches == nil {
			matches = []fifo.MatchEvent{}
		}
		return printJSON(matches)
	}
	printMarkdown(stdout, renderer.MatchesMarkdown(r))
	return subcommands.ExitSuccess
}
