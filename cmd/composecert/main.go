package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/vertti/composecert/pkg/suite"
)

// Version is set at build time via ldflags
var Version = "dev"

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1 // a check failed or the suite halted
	exitUsage  = 2 // bad configuration or the environment could not be provisioned
)

// ErrChecksFailed is returned when at least one check failed.
var ErrChecksFailed = errors.New("checks failed")

func main() {
	os.Exit(exitCode(rootCmd.Execute()))
}

var rootCmd = &cobra.Command{
	Use:   "composecert",
	Short: "Certify a compose environment's container lifecycle",
	Long: "Composecert brings up a compose environment, runs an ordered series of lifecycle checks " +
		"against the container runtime, reports each outcome and tears the environment down.",
	Version:      Version,
	SilenceUsage: true,
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, ErrChecksFailed), errors.Is(err, suite.ErrHalted):
		return exitFailed
	default:
		return exitUsage
	}
}
