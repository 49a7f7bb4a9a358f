package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vertti/composecert/pkg/checks"
	"github.com/vertti/composecert/pkg/suite"
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "List the checks in execution order",
	Args:  cobra.NoArgs,
	RunE:  runChecks,
}

func init() {
	rootCmd.AddCommand(checksCmd)
}

func runChecks(cmd *cobra.Command, _ []string) error {
	seq, err := suite.New(checks.Default(checks.Options{ProcessCheck: true}))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, spec := range seq.Specs() {
		desc := checks.Describe(spec.Name)
		if spec.Name == checks.ProcessRunning {
			desc += " [process.enabled]"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\n", spec.Ordinal, spec.Name, desc)
	}
	return w.Flush()
}
