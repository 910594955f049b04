package okd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Diagnostics is a structured sink for recoverable decode warnings: dropped
// unknown status bytes, absorbed SysEx truncation, P-tracks read before any
// track-info chunk. It is owned by a single pipeline invocation and passed
// by reference — there is no ambient/global logger, per-object loggers are
// plain fields instead.
type Diagnostics struct {
	log *log.Logger
}

// NewDiagnostics builds a Diagnostics sink writing to w. A nil w discards
// all output.
func NewDiagnostics(w io.Writer) *Diagnostics {
	if w == nil {
		w = io.Discard
	}
	return &Diagnostics{log: log.NewWithOptions(w, log.Options{ReportTimestamp: false})}
}

// NewDiagnosticsAtLevel builds a sink with an explicit minimum level,
// for callers surfacing a verbosity knob.
func NewDiagnosticsAtLevel(w io.Writer, level log.Level) *Diagnostics {
	if w == nil {
		w = io.Discard
	}
	return &Diagnostics{log: log.NewWithOptions(w, log.Options{ReportTimestamp: false, Level: level})}
}

// DefaultDiagnostics writes warnings to stderr at Warn level.
func DefaultDiagnostics() *Diagnostics {
	return NewDiagnosticsAtLevel(os.Stderr, log.WarnLevel)
}

func (d *Diagnostics) sink() *log.Logger {
	if d == nil || d.log == nil {
		return log.NewWithOptions(io.Discard, log.Options{})
	}
	return d.log
}

func (d *Diagnostics) Warnf(msg string, kv ...any) {
	d.sink().Warn(msg, kv...)
}

func (d *Diagnostics) Infof(msg string, kv ...any) {
	d.sink().Info(msg, kv...)
}

func (d *Diagnostics) Debugf(msg string, kv ...any) {
	d.sink().Debug(msg, kv...)
}
