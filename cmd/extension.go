package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// RunExtension attempts to find and execute an external fifo-<subcommand> binary.
// It returns (true, exitCode) if an extension was found and executed,
// and (false, 0) if no extension was found.
//
// The effective configuration is passed to the extension in its environment.
func RunExtension(subcommand string, args []string) (bool, int) {
	name := "fifo-" + subcommand

	lp, err := exec.LookPath(name)
	if err != nil {
		logger().Debug("no extension", "name", name, "err", err)
		return false, 0
	}

	cmd := exec.Command(lp, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr

	level := *logLevel
	if level == "" {
		level = cfg.LogLevel
	}
	cmd.Env = append(os.Environ(),
		EnvCurrency+"="+cfg.Currency,
		EnvCurrentPrice+"="+cfg.CurrentPrice,
		EnvLogLevel+"="+level,
		EnvDayFirst+"="+strconv.FormatBool(cfg.DayFirst),
	)

	if err := cmd.Run(); err != nil {
		var exitError *exec.ExitError
		if errors.As(err, &exitError) {
			return true, exitError.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing external command %q: %v\n", name, err)
		return true, 1
	}
	return true, 0
}
