// Package environment brings a compose-declared environment up and down
// around a validation run.
package environment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/vertti/composecert/pkg/procrun"
)

// DefaultSettle is how long BringUp waits for containers to start and flush
// their logs before checks begin.
const DefaultSettle = 5 * time.Second

// Options configures a Controller.
type Options struct {
	Command string        // compose command line; empty detects one
	File    string        // compose manifest; empty searches upward from Dir
	Project string        // compose project name; empty uses the tool's default
	Dir     string        // directory the search starts from
	Settle  time.Duration // wait after "up"; zero skips the wait

	Image     string
	Container string
	Network   string
}

// Handle identifies the live environment. Image, container and network
// names come from configuration, not discovery.
type Handle struct {
	Project   string
	Manifest  string
	Image     string
	Container string
	Network   string
	StartedAt time.Time
}

// Controller provisions and tears down the environment.
type Controller struct {
	runner procrun.Runner
	opts   Options
	log    zerolog.Logger
	handle *Handle

	// Sleep blocks for the settle interval. Tests replace it.
	Sleep func(ctx context.Context, d time.Duration) error
}

// New creates a controller.
func New(runner procrun.Runner, opts Options, log zerolog.Logger) *Controller {
	return &Controller{
		runner: runner,
		opts:   opts,
		log:    log.With().Str("component", "environment").Logger(),
		Sleep:  sleep,
	}
}

// Handle returns the live environment, or nil before BringUp and after
// TearDown.
func (c *Controller) Handle() *Handle {
	return c.handle
}

// BringUp runs "down" to clear stale state, then "up -d --build", then waits
// the settle interval. It fails only when the compose tool cannot be started;
// non-zero exits are logged and left for the checks to surface.
func (c *Controller) BringUp(ctx context.Context) (*Handle, error) {
	compose, manifest, err := c.composeArgs()
	if err != nil {
		return nil, err
	}

	if err := c.invoke(ctx, compose, "down"); err != nil {
		return nil, err
	}
	if err := c.invoke(ctx, compose, "up", "-d", "--build"); err != nil {
		return nil, err
	}

	if c.opts.Settle > 0 {
		c.log.Info().Dur("settle", c.opts.Settle).Msg("waiting for environment to settle")
		if err := c.Sleep(ctx, c.opts.Settle); err != nil {
			return nil, fmt.Errorf("settle interrupted: %w", err)
		}
	}

	c.handle = &Handle{
		Project:   c.opts.Project,
		Manifest:  manifest,
		Image:     c.opts.Image,
		Container: c.opts.Container,
		Network:   c.opts.Network,
		StartedAt: time.Now(),
	}
	return c.handle, nil
}

// TearDown runs "down". It never fails and never panics; problems are logged.
// It ignores cancellation of ctx so an interrupted run still cleans up.
func (c *Controller) TearDown(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error().Interface("panic", r).Msg("teardown panicked")
		}
		c.handle = nil
	}()

	compose, _, err := c.composeArgs()
	if err != nil {
		c.log.Error().Err(err).Msg("teardown skipped")
		return
	}
	if err := c.invoke(context.WithoutCancel(ctx), compose, "down"); err != nil {
		c.log.Error().Err(err).Msg("teardown failed")
	}
}

// composeArgs returns the compose command with manifest and project flags.
func (c *Controller) composeArgs() ([]string, string, error) {
	compose, err := ComposeCommand(c.runner, c.opts.Command)
	if err != nil {
		return nil, "", err
	}

	manifest, err := FindManifest(c.opts.Dir, c.opts.File)
	switch {
	case err == nil:
		compose = append(compose, "-f", manifest)
	case c.opts.File != "":
		return nil, "", err
	case errors.Is(err, ErrManifestNotFound):
		c.log.Debug().Str("dir", c.opts.Dir).Msg("no compose manifest found, using the tool's default lookup")
	default:
		return nil, "", err
	}

	if c.opts.Project != "" {
		compose = append(compose, "-p", c.opts.Project)
	}
	return compose, manifest, nil
}

func (c *Controller) invoke(ctx context.Context, compose []string, args ...string) error {
	full := append(append([]string(nil), compose[1:]...), args...)
	c.log.Debug().Str("command", compose[0]).Strs("args", full).Msg("invoking compose")

	out, err := c.runner.Run(ctx, compose[0], full...)
	if err != nil {
		return fmt.Errorf("compose %s: %w", args[0], err)
	}
	if !out.Success() {
		c.log.Warn().
			Str("step", args[0]).
			Int("exit_code", out.ExitCode).
			Str("stderr", strings.TrimSpace(out.Stderr)).
			Msg("compose exited non-zero")
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
