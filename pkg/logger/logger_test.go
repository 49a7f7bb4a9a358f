package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		want    zerolog.Level
	}{
		{"default", false, zerolog.InfoLevel},
		{"verbose", true, zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, closer, err := New(Options{Verbose: tt.verbose, Out: &bytes.Buffer{}})
			require.NoError(t, err)
			defer closer.Close()
			assert.Equal(t, tt.want, log.GetLevel())
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Format: "json", Out: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Str("check", "TestImageExists").Msg("check finished")
	log.Debug().Msg("hidden")

	out := buf.String()
	assert.Contains(t, out, `"check":"TestImageExists"`)
	assert.Contains(t, out, `"message":"check finished"`)
	assert.NotContains(t, out, "hidden")
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Format: "text", Out: &buf, NoColor: true})
	require.NoError(t, err)
	defer closer.Close()

	log.Warn().Msg("compose exited non-zero")

	assert.Contains(t, buf.String(), "WRN")
	assert.Contains(t, buf.String(), "compose exited non-zero")
}

func TestNew_UnknownFormat(t *testing.T) {
	_, _, err := New(Options{Format: "logfmt"})
	assert.Error(t, err)
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "composecert.log")
	var buf bytes.Buffer
	log, closer, err := New(Options{Format: "json", Out: &buf, File: path})
	require.NoError(t, err)

	log.Info().Msg("teardown finished")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "teardown finished"))
	assert.Contains(t, buf.String(), "teardown finished")
}
