// Command fifo analyzes the buys and sells of a security with FIFO lot
// accounting.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/fifo/cmd"
	"github.com/etnz/fifo/docs"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	completion().Complete("fifo")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	cmd.InitLogger()

	if sub := flag.Arg(0); sub != "" && !registered(commander, sub) {
		if found, code := cmd.RunExtension(sub, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}
	os.Exit(int(commander.Execute(context.Background())))
}

// registered reports whether name is a subcommand of c.
func registered(c *subcommands.Commander, name string) (found bool) {
	c.VisitCommands(func(_ *subcommands.CommandGroup, sub subcommands.Command) {
		if sub.Name() == name {
			found = true
		}
	})
	return found
}

// completion describes the command line for shell completion.
func completion() *complete.Command {
	input := func(extra map[string]complete.Predictor) map[string]complete.Predictor {
		flags := map[string]complete.Predictor{
			"currency":  predict.Set{"EUR", "USD", "GBP", "CHF", "JPY"},
			"price":     predict.Something,
			"security":  predict.Something,
			"day-first": predict.Nothing,
			"json":      predict.Nothing,
		}
		for k, v := range extra {
			flags[k] = v
		}
		return flags
	}
	files := predict.Or(predict.Files("*.csv"), predict.Files("*.jsonl"))

	topics, _ := docs.GetAllTopics()

	return &complete.Command{
		Flags: map[string]complete.Predictor{
			"log-level": predict.Set{"debug", "info", "warn", "error"},
		},
		Sub: map[string]*complete.Command{
			"analyze": {
				Flags: input(map[string]complete.Predictor{
					"matches": predict.Nothing,
					"q":       predict.Set{"$.netRealizedGains", "$.totalGains", "$.openQuantity", "$.averageCost"},
				}),
				Args: files,
			},
			"lots":    {Flags: input(nil), Args: files},
			"matches": {Flags: input(nil), Args: files},
			"convert": {
				Flags: map[string]complete.Predictor{
					"currency":  predict.Set{"EUR", "USD", "GBP", "CHF", "JPY"},
					"day-first": predict.Nothing,
					"o":         predict.Files("*.jsonl"),
				},
				Args: predict.Files("*.csv"),
			},
			"topic": {Flags: map[string]complete.Predictor{"list": predict.Nothing}, Args: predict.Set(topics)},
		},
	}
}
