package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Format is a report file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name; "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown report format %q (want json or yaml)", s)
	}
}

// Document is the written report.
type Document struct {
	RunID    string    `json:"run_id" yaml:"run_id"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
	Passed   bool      `json:"passed" yaml:"passed"`
	Total    int       `json:"total" yaml:"total"`
	Failed   int       `json:"failed" yaml:"failed"`
	Results  []Record  `json:"results" yaml:"results"`
}

// FileSink is a Collector that writes its records to a file on Close.
type FileSink struct {
	*Collector
	Path   string
	Format Format
}

// NewFileSink creates a sink writing to path in the given format.
func NewFileSink(path string, format Format) *FileSink {
	return &FileSink{Collector: NewCollector(), Path: path, Format: format}
}

// Document snapshots the collected records.
func (s *FileSink) Document() Document {
	passed, failed := s.Counts()
	return Document{
		RunID:    s.RunID(),
		Started:  s.started,
		Finished: s.now(),
		Passed:   passed > 0 && failed == 0,
		Total:    passed + failed,
		Failed:   failed,
		Results:  s.Records(),
	}
}

// Close writes the report file.
func (s *FileSink) Close() error {
	data, err := Encode(s.Document(), s.Format)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create report directory: %w", err)
		}
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

// Encode renders a document in format.
func Encode(doc Document, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(doc)
	case FormatJSON, "":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	default:
		return nil, fmt.Errorf("unknown report format %q", format)
	}
}
