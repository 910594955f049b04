// Package cli carries the command implementations behind the cmd/
// front-ends: dump, extract, pack, and compose. Each command owns its
// pflag set and calls into the codec package; nothing here is needed
// by the codec itself.
package cli

import (
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/yks1kit/okd/internal/okd"
)

// Options is the optional YAML-file configuration shared by the
// commands. Flags override whatever the file sets.
type Options struct {
	// Verbosity is the diagnostics level: debug, info, warn, or error.
	Verbosity string `yaml:"verbosity"`
	// KaraokeID is stamped into composed container headers.
	KaraokeID uint32 `yaml:"karaoke_id"`
	// KeyIndex pins the scramble key for reproducible output. When
	// absent, a random index is chosen per container.
	KeyIndex *int `yaml:"key_index"`
	// TimestampFormat is a strftime-style pattern for naming dump
	// output directories.
	TimestampFormat string `yaml:"timestamp_format"`
}

// LoadOptions reads an options file. A missing path yields zero-value
// options without error so commands can treat the file as optional.
func LoadOptions(path string) (Options, error) {
	var opts Options
	if path == "" {
		return opts, nil
	}

	var data, err = os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("reading options file: %w", err)
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("parsing options file: %w", err)
	}
	if opts.KeyIndex != nil && (*opts.KeyIndex < 0 || *opts.KeyIndex > 255) {
		return opts, fmt.Errorf("key_index %d out of range 0..255", *opts.KeyIndex)
	}
	return opts, nil
}

func (o Options) diagnostics() *okd.Diagnostics {
	var level = log.WarnLevel
	switch o.Verbosity {
	case "debug":
		level = log.DebugLevel
	case "info":
		level = log.InfoLevel
	case "error":
		level = log.ErrorLevel
	}
	return okd.NewDiagnosticsAtLevel(os.Stderr, level)
}
