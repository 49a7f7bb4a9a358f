package procrun

import (
	"context"
	"errors"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputLines(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		want   []string
	}{
		{"empty", "", []string{}},
		{"single line", "abc\n", []string{"abc"}},
		{"no trailing newline", "a\nb", []string{"a", "b"}},
		{"crlf", "a\r\nb\r\n", []string{"a", "b"}},
		{"keeps inner blanks", "a\n\nb\n", []string{"a", "", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Output{Stdout: tt.stdout}.Lines())
		})
	}
}

func TestInvocationError(t *testing.T) {
	cause := errors.New("executable file not found in $PATH")
	err := error(&InvocationError{Name: "docker-compose", Args: []string{"down"}, Err: cause})

	assert.ErrorIs(t, err, ErrInvocation)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "invoke docker-compose down: executable file not found in $PATH", err.Error())
}

func TestMockRunnerRecordsCalls(t *testing.T) {
	m := &MockRunner{}

	out, err := m.Run(context.Background(), "docker", "ps")
	require.NoError(t, err)
	assert.True(t, out.Success())

	_, _ = m.Run(context.Background(), "docker-compose", "up", "-d")
	assert.Equal(t, [][]string{{"docker", "ps"}, {"docker-compose", "up", "-d"}}, m.Calls)

	path, err := m.LookPath("docker")
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/docker", path)
}

func TestRealRunner_MissingCommand(t *testing.T) {
	r := &RealRunner{}

	_, err := r.Run(context.Background(), "composecert-definitely-not-a-command")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvocation)
}

func TestRealRunner_NonZeroExitIsNotAnError(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
	r := &RealRunner{}

	out, err := r.Run(context.Background(), "sh", "-c", "echo out; echo err >&2; exit 3")

	require.NoError(t, err)
	assert.Equal(t, 3, out.ExitCode)
	assert.False(t, out.Success())
	assert.Equal(t, []string{"out"}, out.Lines())
	assert.Equal(t, "err\n", out.Stderr)
}
