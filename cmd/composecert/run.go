package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vertti/composecert/pkg/checks"
	"github.com/vertti/composecert/pkg/config"
	"github.com/vertti/composecert/pkg/environment"
	"github.com/vertti/composecert/pkg/logger"
	"github.com/vertti/composecert/pkg/output"
	"github.com/vertti/composecert/pkg/procrun"
	"github.com/vertti/composecert/pkg/report"
	"github.com/vertti/composecert/pkg/runtime"
	"github.com/vertti/composecert/pkg/suite"
)

var (
	runConfig       string
	runPolicy       string
	runSettle       time.Duration
	runFile         string
	runProject      string
	runReport       string
	runReportFormat string
	runKeep         bool
	runVerbose      bool
	runLogFormat    string
)

// Replaced in tests.
var (
	newRunner  = func() procrun.Runner { return &procrun.RealRunner{} }
	newRuntime = func(host string, procs procrun.Runner, log zerolog.Logger) (runtime.Runtime, func() error, error) {
		d, err := runtime.NewDocker(host, procs, log)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Bring up the environment, run every check and tear it down",
	Args:  cobra.NoArgs,
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&runConfig, "config", "", "config file (default: ./composecert.yaml if present)")
	f.StringVar(&runPolicy, "policy", "", "failure policy: strict or lenient")
	f.DurationVar(&runSettle, "settle", 0, "wait after bring-up before checking")
	f.StringVar(&runFile, "file", "", "compose file (default: search up from current directory)")
	f.StringVar(&runProject, "project", "", "compose project name")
	f.StringVar(&runReport, "report", "", "write a machine-readable report to this path")
	f.StringVar(&runReportFormat, "report-format", "", "report format: json or yaml")
	f.BoolVar(&runKeep, "keep", false, "leave the environment up after the run")
	f.BoolVarP(&runVerbose, "verbose", "v", false, "debug logging")
	f.StringVar(&runLogFormat, "log-format", "", "log format: text or json")
	rootCmd.AddCommand(runCmd)
}

// applyFlags overrides configuration with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("policy") {
		cfg.Policy = runPolicy
	}
	if f.Changed("settle") {
		cfg.Compose.Settle = runSettle
	}
	if f.Changed("file") {
		cfg.Compose.File = runFile
	}
	if f.Changed("project") {
		cfg.Compose.Project = runProject
	}
	if f.Changed("report") {
		cfg.Report.Path = runReport
	}
	if f.Changed("report-format") {
		cfg.Report.Format = runReportFormat
	}
	if f.Changed("keep") {
		cfg.Compose.Keep = runKeep
	}
	if f.Changed("verbose") {
		cfg.Logging.Verbose = runVerbose
	}
	if f.Changed("log-format") {
		cfg.Logging.Format = runLogFormat
	}
}

func runRun(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(runConfig)
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := suite.ParsePolicy(cfg.Policy)
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return err
	}
	var processCommand []string
	if cfg.Process.Enabled {
		if processCommand, err = cfg.ProcessCommand(); err != nil {
			return err
		}
	}

	log, logCloser, err := logger.New(logger.Options{
		Format:  cfg.Logging.Format,
		Verbose: cfg.Logging.Verbose,
		File:    cfg.Logging.File,
		Out:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	procs := newRunner()
	env := environment.New(procs, environment.Options{
		Command:   cfg.Compose.Command,
		File:      cfg.Compose.File,
		Project:   cfg.Compose.Project,
		Dir:       wd,
		Settle:    cfg.Compose.Settle,
		Image:     cfg.Target.Image,
		Container: cfg.Target.Container,
		Network:   cfg.Target.Network,
	}, log)
	if cfg.Compose.Keep {
		log.Info().Msg("leaving environment up after the run")
	} else {
		defer env.TearDown(ctx)
	}

	if _, err := env.BringUp(ctx); err != nil {
		return fmt.Errorf("bring up environment: %w", err)
	}

	rt, closeRuntime, err := newRuntime(cfg.Runtime.Host, procs, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeRuntime(); err != nil {
			log.Debug().Err(err).Msg("closing runtime client")
		}
	}()

	var (
		reporter report.Reporter
		sink     *report.FileSink
	)
	if cfg.Report.Path != "" {
		sink = report.NewFileSink(cfg.Report.Path, format)
		reporter = sink
	} else {
		reporter = report.NewCollector()
	}

	printer := output.NewPrinter(cmd.OutOrStdout())
	seq, err := suite.New(
		checks.Default(checks.Options{ProcessCheck: cfg.Process.Enabled}),
		suite.WithPolicy(policy),
		suite.WithReporter(reporter),
		suite.WithPrinter(printer),
		suite.WithLogger(log),
	)
	if err != nil {
		return err
	}

	result, runErr := seq.Run(ctx, &suite.Context{
		Runtime: rt,
		Target: suite.Target{
			Image:            cfg.Target.Image,
			Container:        cfg.Target.Container,
			Network:          cfg.Target.Network,
			LogMarker:        cfg.Target.LogMarker,
			ProcessMarker:    cfg.Process.Marker,
			ProcessCommand:   processCommand,
			MinDaemonVersion: cfg.MinDaemonVersion(),
		},
	})
	printer.PrintSummary(len(seq.Specs()))
	explainUnavailable(cmd, result)

	if sink != nil {
		if err := sink.Close(); err != nil {
			log.Error().Err(err).Str("path", sink.Path).Msg("writing report failed")
		} else {
			log.Info().Str("path", sink.Path).Str("run_id", sink.RunID()).Msg("report written")
		}
	}

	if runErr != nil {
		return runErr
	}
	if !result.Passed() {
		return ErrChecksFailed
	}
	return nil
}

// explainUnavailable prints remediation steps when the daemon could not be
// reached, since every later failure follows from it.
func explainUnavailable(cmd *cobra.Command, result *suite.SuiteResult) {
	if result == nil {
		return
	}
	res, ok := result.Get(checks.DaemonRunning)
	if !ok || res.Err == nil {
		return
	}
	var rerr *runtime.Error
	if errors.As(res.Err, &rerr) && rerr.Kind == runtime.KindUnavailable {
		fmt.Fprint(cmd.ErrOrStderr(), "\n"+rerr.FormatUserError())
	}
}
