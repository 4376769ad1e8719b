package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/goliatone/go-cellgen/pkg/generator"
	"github.com/goliatone/go-cellgen/pkg/prompt"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Config is the parsed command line.
type Config struct {
	// TechDir holds technology.hcl and grids.hcl; empty selects the
	// embedded technology.
	TechDir     string
	Request     generator.Request
	Interactive bool
	LogLevel    string
	LogFormat   string
}

// Parse processes command-line arguments. It returns the Config, a boolean
// reporting that the program should exit cleanly (help was printed), or an
// ExitError with code 2 for invalid usage.
func Parse(args []string, output io.Writer) (*Config, bool, error) {
	flagSet := flag.NewFlagSet("cellgen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
cellgen - parameterized inverter layout generator.

Usage:
  cellgen [options]

Writes <out>/skill/<lib>_<cell>.il per cell and appends every cell to
<out>/<lib>_templates.yaml.

Options:
`)
		flagSet.PrintDefaults()
	}

	techFlag := flagSet.String("tech", "", "Technology directory with technology.hcl and grids.hcl. Empty uses the embedded technology.")
	outFlag := flagSet.String("out", generator.DefaultExportPath, "Export directory.")
	libFlag := flagSet.String("lib", generator.DefaultLibrary, "Library name.")
	cellsFlag := flagSet.String("cells", string(generator.Inverter), "Comma separated cell types: inv, inv_hs.")
	nfFlag := flagSet.String("nf", prompt.FormatFingers(generator.DefaultFingers), "Comma separated finger counts.")
	nfinFlag := flagSet.Int("nfin", generator.DefaultFins, "Fins per device.")
	pmosFlag := flagSet.String("pmos", generator.DefaultPMOSTemplate, "PMOS template name.")
	nmosFlag := flagSet.String("nmos", generator.DefaultNMOSTemplate, "NMOS template name.")
	previewFlag := flagSet.Bool("preview", false, "Also write SVG previews.")
	interactiveFlag := flagSet.Bool("interactive", false, "Prompt for the settings before generating.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if flagSet.NArg() > 0 {
		return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("unexpected arguments: %s", strings.Join(flagSet.Args(), " "))}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	cellTypes, err := parseCellTypes(*cellsFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	fingers, err := prompt.ParseFingers(*nfFlag)
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	if *nfinFlag < 1 {
		return nil, false, &ExitError{Code: 2, Message: "invalid nfin: must be at least 1"}
	}

	req := generator.Request{
		CellTypes:    cellTypes,
		Fingers:      fingers,
		Fins:         *nfinFlag,
		Library:      *libFlag,
		ExportPath:   *outFlag,
		PMOSTemplate: *pmosFlag,
		NMOSTemplate: *nmosFlag,
		Preview:      *previewFlag,
	}.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	return &Config{
		TechDir:     strings.TrimSpace(*techFlag),
		Request:     req,
		Interactive: *interactiveFlag,
		LogLevel:    logLevel,
		LogFormat:   logFormat,
	}, false, nil
}

func parseCellTypes(raw string) ([]generator.CellType, error) {
	var out []generator.CellType
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		ct, err := generator.ParseCellType(part)
		if err != nil {
			return nil, err
		}
		out = append(out, ct)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one cell type is required")
	}
	return out, nil
}
