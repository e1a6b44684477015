package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/fifo/docs"
	"github.com/google/subcommands"
)

// topicCmd prints the embedded documentation.
type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "read the fifo manual: FIFO rules, CSV exports, ledgers, configuration" }
func (*topicCmd) Usage() string {
	return `fifo topic [-list] [<topic>...]

  Prints the manual pages embedded in fifo. Without a topic it prints the
  introduction, '*' prints every page.

  fifo    how sells consume lots, fees, taxes and the reported totals
  csv     which broker exports are understood and how they are normalized
  ledger  the JSONL ledger written by 'fifo convert'
  config  environment variables, .env file and extensions

Usage Examples:
$ fifo topic fifo
$ fifo topic -list

`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "Print the topic names, one per line.")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	all, err := docs.GetAllTopics()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error listing topics: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.list {
		fmt.Fprintln(stdout, strings.Join(all, "\n"))
		return subcommands.ExitSuccess
	}

	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{"readme"}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading doc: %v\nAvailable topics: %s\n", err, strings.Join(all, ", "))
		return subcommands.ExitFailure
	}
	printMarkdown(stdout, doc)

	return subcommands.ExitSuccess
}
