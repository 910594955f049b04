package cli

import (
	"bytes"
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/pflag"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/yks1kit/okd/internal/okd"
)

// PackMain implements the okdpack command: pack one or more per-track
// MIDI files into a container, deriving the track-info chunk from the
// tracks themselves.
func PackMain() {
	var _outputPath = pflag.StringP("output", "o", "packed.okd", "Output container path.")
	var _optionsPath = pflag.StringP("options", "c", "", "Optional YAML options file.")
	var _version = pflag.BoolP("version", "V", false, "Print version and exit.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Pack track MIDI files into an OKD container.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: okdpack [options] track0.mid [track1.mid ...]\n")
		fmt.Fprintf(os.Stderr, "\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}
	if *_version {
		okd.PrintVersion(false)
		os.Exit(0)
	}

	if pflag.NArg() < 1 {
		pflag.Usage()
		os.Exit(1)
	}

	var opts, optsErr = LoadOptions(*_optionsPath)
	if optsErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", optsErr)
		os.Exit(1)
	}

	if err := packFiles(pflag.Args(), *_outputPath, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func packFiles(inputPaths []string, outputPath string, opts Options) error {
	var diag = opts.diagnostics()
	var input = okd.ComposeInput{
		MTracks: map[byte][]okd.MTrackEvent{},
		PTracks: map[byte][]okd.PTrackEvent{},
	}

	for _, path := range inputPaths {
		var raw, readErr = os.ReadFile(path)
		if readErr != nil {
			return readErr
		}
		var s, smfErr = smf.ReadFrom(bytes.NewReader(raw))
		if smfErr != nil {
			return fmt.Errorf("reading %s: %w", path, smfErr)
		}

		var fileInput, importErr = okd.ImportSMF(*s, diag)
		if importErr != nil {
			return importErr
		}
		for sub, events := range fileInput.PTracks {
			if _, exists := input.PTracks[sub]; exists {
				return fmt.Errorf("%s: port %d already packed from an earlier input", path, sub)
			}
			input.PTracks[sub] = events
		}
	}

	var keyIndex int
	if opts.KeyIndex != nil {
		keyIndex = *opts.KeyIndex
	} else {
		keyIndex = okd.RandomKeyIndex(rand.Intn)
	}

	var header = okd.DefaultOutputHeader()
	header.KaraokeID = opts.KaraokeID

	var image = okd.Encode(header, okd.EncodeContainer(input), keyIndex)
	if err := os.WriteFile(outputPath, image, 0o644); err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}
