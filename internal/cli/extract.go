package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/yks1kit/okd/internal/okd"
)

// ExtractMain implements the okd2midi command: decode a container and
// export its performance tracks as a standard MIDI file, with any
// embedded ADPCM blobs alongside.
func ExtractMain() {
	var _outputPath = pflag.StringP("output", "o", "", "Output MIDI file path. Defaults to the input name with a .mid suffix.")
	var _adpcmDir = pflag.StringP("adpcm-dir", "a", "", "Also write embedded ADPCM blobs into this directory.")
	var _optionsPath = pflag.StringP("options", "c", "", "Optional YAML options file.")
	var _version = pflag.BoolP("version", "V", false, "Print version and exit.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Export an OKD karaoke container as a standard MIDI file.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: okd2midi [options] input.okd\n")
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

	var inputPath = pflag.Arg(0)
	var outputPath = *_outputPath
	if outputPath == "" {
		var ext = filepath.Ext(inputPath)
		outputPath = inputPath[:len(inputPath)-len(ext)] + ".mid"
	}

	var opts, optsErr = LoadOptions(*_optionsPath)
	if optsErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", optsErr)
		os.Exit(1)
	}

	if err := extractFile(inputPath, outputPath, *_adpcmDir, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func extractFile(inputPath, outputPath, adpcmDir string, opts Options) error {
	var raw, readErr = os.ReadFile(inputPath)
	if readErr != nil {
		return readErr
	}

	var diag = opts.diagnostics()
	var container, decodeErr = okd.DecodePipeline(raw, diag)
	if decodeErr != nil {
		return decodeErr
	}

	var s, exportErr = container.ExportGeneralMIDI(diag)
	if exportErr != nil {
		return exportErr
	}

	var buf bytes.Buffer
	if _, err := s.WriteTo(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return err
	}

	if adpcmDir != "" {
		if err := os.MkdirAll(adpcmDir, 0o755); err != nil {
			return err
		}
		for i, blobs := range container.Adpcm {
			for j, blob := range blobs {
				var name = fmt.Sprintf("adpcm_%d_%d.bin", i, j)
				if err := os.WriteFile(filepath.Join(adpcmDir, name), blob.Data, 0o644); err != nil {
					return err
				}
			}
		}
	}

	fmt.Printf("Wrote %s\n", outputPath)
	return nil
}
