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

// ComposeMain implements the midi2okd command: read a canonical
// karaoke MIDI file and compose the main container and, when a
// scoring output path is given, the companion scoring-reference
// container (an error if the file has no melody line).
func ComposeMain() {
	var _mainOutput = pflag.StringP("output", "o", "main.okd", "Output path for the main container.")
	var _scoringOutput = pflag.StringP("scoring-output", "s", "", "Output path for the scoring-reference container. Skipped when empty.")
	var _optionsPath = pflag.StringP("options", "c", "", "Optional YAML options file.")
	var _version = pflag.BoolP("version", "V", false, "Print version and exit.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Compose OKD containers from a karaoke MIDI file.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: midi2okd [options] karaoke.mid\n")
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

	if pflag.NArg() != 1 {
		pflag.Usage()
		os.Exit(1)
	}

	var opts, optsErr = LoadOptions(*_optionsPath)
	if optsErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", optsErr)
		os.Exit(1)
	}

	if err := composeFile(pflag.Arg(0), *_mainOutput, *_scoringOutput, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func composeFile(inputPath, mainOutput, scoringOutput string, opts Options) error {
	var raw, readErr = os.ReadFile(inputPath)
	if readErr != nil {
		return readErr
	}

	var s, smfErr = smf.ReadFrom(bytes.NewReader(raw))
	if smfErr != nil {
		return fmt.Errorf("reading MIDI file: %w", smfErr)
	}

	var diag = opts.diagnostics()

	var input, importErr = okd.ImportSMF(*s, diag)
	if importErr != nil {
		return importErr
	}

	if err := writeContainer(mainOutput, input, opts); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", mainOutput)

	if scoringOutput != "" {
		var scoring, scoringErr = okd.ComposeScoringReference(*s, diag)
		if scoringErr != nil {
			return fmt.Errorf("building scoring reference: %w", scoringErr)
		}
		if err := writeContainer(scoringOutput, scoring, opts); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", scoringOutput)
	}

	return nil
}

func writeContainer(path string, input okd.ComposeInput, opts Options) error {
	var keyIndex int
	if opts.KeyIndex != nil {
		keyIndex = *opts.KeyIndex
	} else {
		keyIndex = okd.RandomKeyIndex(rand.Intn)
	}

	var header = okd.DefaultOutputHeader()
	header.KaraokeID = opts.KaraokeID

	var image = okd.Encode(header, okd.EncodeContainer(input), keyIndex)
	return os.WriteFile(path, image, 0o644)
}
