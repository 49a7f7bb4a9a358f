package environment

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vertti/composecert/pkg/procrun"
)

// composeWorld is a MockRunner backend that tracks how many containers with
// the configured name exist, the way compose would leave them.
type composeWorld struct {
	containers int
}

func (w *composeWorld) run(_ context.Context, name string, args ...string) (procrun.Output, error) {
	for _, a := range args {
		switch a {
		case "down":
			w.containers = 0
			return procrun.Output{}, nil
		case "up":
			w.containers++
			return procrun.Output{}, nil
		}
	}
	return procrun.Output{}, nil
}

func newTestController(runner procrun.Runner, opts Options) (*Controller, *[]time.Duration) {
	if opts.Dir == "" {
		opts.Dir = "/nonexistent-composecert-dir"
	}
	c := New(runner, opts, zerolog.Nop())
	var slept []time.Duration
	c.Sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}
	return c, &slept
}

func TestBringUp_DownThenUpThenSettle(t *testing.T) {
	runner := &procrun.MockRunner{}
	c, slept := newTestController(runner, Options{
		Command:   "docker compose",
		Project:   "certrun",
		Settle:    5 * time.Second,
		Image:     "hello-world",
		Container: "hello_test_container",
		Network:   "test_net",
	})

	h, err := c.BringUp(context.Background())

	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"docker", "compose", "-p", "certrun", "down"},
		{"docker", "compose", "-p", "certrun", "up", "-d", "--build"},
	}, runner.Calls)
	assert.Equal(t, []time.Duration{5 * time.Second}, *slept)
	assert.Equal(t, "hello_test_container", h.Container)
	assert.Equal(t, "test_net", h.Network)
	assert.Equal(t, "hello-world", h.Image)
	assert.Same(t, h, c.Handle())
}

func TestBringUp_PassesManifest(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "compose.yaml")
	writeFile(t, manifest)
	runner := &procrun.MockRunner{}
	c, _ := newTestController(runner, Options{Command: "docker-compose", Dir: dir})

	h, err := c.BringUp(context.Background())

	require.NoError(t, err)
	assert.Equal(t, manifest, h.Manifest)
	assert.Equal(t, []string{"docker-compose", "-f", manifest, "down"}, runner.Calls[0])
}

func TestBringUp_MissingExplicitManifest(t *testing.T) {
	runner := &procrun.MockRunner{}
	c, _ := newTestController(runner, Options{Command: "docker-compose", File: "/nonexistent/compose.yaml"})

	_, err := c.BringUp(context.Background())

	assert.ErrorIs(t, err, ErrManifestNotFound)
	assert.Empty(t, runner.Calls)
}

func TestBringUp_ZeroSettleSkipsWait(t *testing.T) {
	c, slept := newTestController(&procrun.MockRunner{}, Options{Command: "docker-compose"})

	_, err := c.BringUp(context.Background())

	require.NoError(t, err)
	assert.Empty(t, *slept)
}

func TestBringUp_NonZeroExitIsNotFatal(t *testing.T) {
	runner := &procrun.MockRunner{
		RunFunc: func(context.Context, string, ...string) (procrun.Output, error) {
			return procrun.Output{ExitCode: 1, Stderr: "no such service: hello"}, nil
		},
	}
	c, _ := newTestController(runner, Options{Command: "docker-compose"})

	h, err := c.BringUp(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, h)
	assert.Len(t, runner.Calls, 2)
}

func TestBringUp_ToolMissingIsFatal(t *testing.T) {
	runner := &procrun.MockRunner{
		RunFunc: func(_ context.Context, name string, args ...string) (procrun.Output, error) {
			return procrun.Output{}, &procrun.InvocationError{Name: name, Args: args, Err: errors.New("executable file not found in $PATH")}
		},
	}
	c, _ := newTestController(runner, Options{Command: "docker-compose"})

	h, err := c.BringUp(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, procrun.ErrInvocation)
	assert.Contains(t, err.Error(), "compose down")
	assert.Nil(t, h)
	assert.Nil(t, c.Handle())
}

func TestBringUp_SettleInterrupted(t *testing.T) {
	c, _ := newTestController(&procrun.MockRunner{}, Options{Command: "docker-compose", Settle: time.Hour})
	c.Sleep = sleep

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.BringUp(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestBringUp_TwiceLeavesOneContainer(t *testing.T) {
	world := &composeWorld{}
	runner := &procrun.MockRunner{RunFunc: world.run}
	c, _ := newTestController(runner, Options{Command: "docker-compose"})

	_, err := c.BringUp(context.Background())
	require.NoError(t, err)
	_, err = c.BringUp(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, world.containers)
}

func TestTearDown_RunsDownAndClearsHandle(t *testing.T) {
	world := &composeWorld{}
	runner := &procrun.MockRunner{RunFunc: world.run}
	c, _ := newTestController(runner, Options{Command: "docker-compose"})
	_, err := c.BringUp(context.Background())
	require.NoError(t, err)

	c.TearDown(context.Background())

	assert.Equal(t, []string{"docker-compose", "down"}, runner.Calls[len(runner.Calls)-1])
	assert.Equal(t, 0, world.containers)
	assert.Nil(t, c.Handle())
}

func TestTearDown_SwallowsErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *procrun.MockRunner
		opts   Options
	}{
		{
			name: "invocation error",
			runner: &procrun.MockRunner{RunFunc: func(_ context.Context, name string, args ...string) (procrun.Output, error) {
				return procrun.Output{}, &procrun.InvocationError{Name: name, Err: errors.New("missing")}
			}},
			opts: Options{Command: "docker-compose"},
		},
		{
			name: "panicking runner",
			runner: &procrun.MockRunner{RunFunc: func(context.Context, string, ...string) (procrun.Output, error) {
				panic("runner exploded")
			}},
			opts: Options{Command: "docker-compose"},
		},
		{
			name:   "bad command",
			runner: &procrun.MockRunner{},
			opts:   Options{Command: `"unterminated`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestController(tt.runner, tt.opts)
			assert.NotPanics(t, func() { c.TearDown(context.Background()) })
		})
	}
}

func TestTearDown_IgnoresCancelledContext(t *testing.T) {
	var sawCancelled bool
	runner := &procrun.MockRunner{RunFunc: func(ctx context.Context, _ string, _ ...string) (procrun.Output, error) {
		sawCancelled = ctx.Err() != nil
		return procrun.Output{}, nil
	}}
	c, _ := newTestController(runner, Options{Command: "docker-compose"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.TearDown(ctx)

	require.Len(t, runner.Calls, 1)
	assert.False(t, sawCancelled)
}
