// Package sink consumes the streamed match records and writes result
// lines to standard output and, optionally, an append file.
//
// Results are the program's primary output and go to stdout only;
// warnings travel separately through the logger, so the two streams
// never interleave destructively. File writes are best-effort: a full
// disk loses output lines, not the scan.
package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/fatih/color"

	"github.com/thoreinstein/reg/internal/logging"
	"github.com/thoreinstein/reg/internal/scan"
)

// Options configures a Sink.
type Options struct {
	// Out receives result lines. Defaults to os.Stdout if nil.
	Out io.Writer
	// Path, when non-empty, names a file the results are appended to in
	// addition to Out.
	Path string
	// JSON switches output to one JSON object per match.
	JSON bool
	// Logger receives write failures. Defaults to slog.Default if nil.
	Logger *slog.Logger
}

// Sink writes match records in arrival order. It is used from a single
// goroutine; the scanner serializes emission.
type Sink struct {
	out     io.Writer
	file    *os.File
	enc     *json.Encoder
	logger  *slog.Logger
	pathCol *color.Color
	count   int
}

// New creates a Sink. The append file, if requested, is opened once and
// held for the duration of the scan.
func New(opts Options) (*Sink, error) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sink{out: out, logger: logger}
	if opts.JSON {
		s.enc = json.NewEncoder(out)
	} else if logging.SupportsColor(out) {
		s.pathCol = color.New(color.FgGreen)
	}

	if opts.Path != "" {
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("opening output file: %w", err)
		}
		s.file = f
	}
	return s, nil
}

// Write renders one match record.
func (s *Sink) Write(m scan.Match) {
	s.count++

	if s.enc != nil {
		if err := s.enc.Encode(m); err != nil {
			s.logger.Warn("writing result", "error", err)
		}
	} else {
		line := FormatMatch(m)
		if s.pathCol != nil && m.Kind == scan.KindKeyName {
			line = s.pathCol.Sprint(line)
		}
		if _, err := fmt.Fprintln(s.out, line); err != nil {
			s.logger.Warn("writing result", "error", err)
		}
	}

	if s.file != nil {
		if _, err := fmt.Fprintln(s.file, FormatMatch(m)); err != nil {
			// Best effort: report and keep scanning.
			s.logger.Warn("appending to output file", "path", s.file.Name(), "error", err)
		}
	}
}

// Count returns the number of records written so far.
func (s *Sink) Count() int {
	return s.count
}

// Close releases the append file, if any.
func (s *Sink) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

// FormatMatch renders the plain-text result line:
//
//	HKEY_CURRENT_USER\Software\BitLocker
//	HKEY_CURRENT_USER\Software\Vendor : Setting = bitlocker status
//
// The unnamed default value displays as "(Default)".
func FormatMatch(m scan.Match) string {
	if m.Kind == scan.KindKeyName {
		return m.KeyPath
	}
	name := m.ValueName
	if name == "" {
		name = "(Default)"
	}
	return fmt.Sprintf("%s : %s = %s", m.KeyPath, name, m.Data)
}
