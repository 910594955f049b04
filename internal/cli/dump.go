package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
	"github.com/spf13/pflag"

	"github.com/yks1kit/okd/internal/okd"
)

// DumpMain implements the okddump command: decode a container and
// write a structured report plus the raw per-chunk payloads into an
// output directory.
func DumpMain() {
	var _outputDir = pflag.StringP("output-dir", "o", ".", "Directory to write the report and chunk payloads into.")
	var _timestampFormat = pflag.StringP("timestamp-format", "T", "", "Create a 'strftime' format subdirectory per run, e.g. %Y-%m-%d_%H%M%S.")
	var _optionsPath = pflag.StringP("options", "c", "", "Optional YAML options file.")
	var _version = pflag.BoolP("version", "V", false, "Print version and exit.")
	var help = pflag.Bool("help", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Dump an OKD karaoke container.\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: okddump [options] input.okd\n")
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

	var timestampFormat = *_timestampFormat
	if timestampFormat == "" {
		timestampFormat = opts.TimestampFormat
	}

	var outputDir = *_outputDir
	if timestampFormat != "" {
		var stamped, stampErr = strftime.Format(timestampFormat, time.Now())
		if stampErr != nil {
			fmt.Fprintf(os.Stderr, "Error in timestamp format: %s\n", stampErr)
			os.Exit(1)
		}
		outputDir = filepath.Join(outputDir, stamped)
	}

	if err := dumpFile(pflag.Arg(0), outputDir, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func dumpFile(inputPath, outputDir string, opts Options) error {
	var raw, readErr = os.ReadFile(inputPath)
	if readErr != nil {
		return readErr
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return err
	}

	var diag = opts.diagnostics()
	var container, decodeErr = okd.DecodePipeline(raw, diag)
	if decodeErr != nil {
		return decodeErr
	}

	var report, createErr = os.Create(filepath.Join(outputDir, "report.txt"))
	if createErr != nil {
		return createErr
	}
	defer report.Close() //nolint:gosec
	container.Dump(report)

	for i, blobs := range container.Adpcm {
		for j, blob := range blobs {
			var name = fmt.Sprintf("adpcm_%d_%d.bin", i, j)
			if err := os.WriteFile(filepath.Join(outputDir, name), blob.Data, 0o644); err != nil {
				return err
			}
		}
	}

	for _, chunk := range container.Unknown {
		var name = fmt.Sprintf("chunk_%02x%02x%02x%02x.bin", chunk.Tag[0], chunk.Tag[1], chunk.Tag[2], chunk.Tag[3])
		if err := os.WriteFile(filepath.Join(outputDir, name), chunk.Payload, 0o644); err != nil {
			return err
		}
	}

	fmt.Printf("Dumped %s to %s\n", inputPath, outputDir)
	return nil
}
