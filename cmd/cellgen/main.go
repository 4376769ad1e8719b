package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/goliatone/go-cellgen/internal/cli"
	"github.com/goliatone/go-cellgen/internal/ctxlog"
	"github.com/goliatone/go-cellgen/pkg/generator"
	"github.com/goliatone/go-cellgen/pkg/prompt"
	"github.com/goliatone/go-cellgen/pkg/tech"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		var exitErr *cli.ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run parses args, generates the requested cells and lists the written files
// on outW. Logs go to errW.
func run(ctx context.Context, outW, errW io.Writer, args []string) error {
	return execute(ctx, outW, errW, args, prompt.NewSurveyDriver(outW))
}

// execute is run with the driver interactive sessions answer through.
func execute(ctx context.Context, outW, errW io.Writer, args []string, driver prompt.Driver) error {
	cfg, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, errW)
	ctx = ctxlog.WithLogger(ctx, logger)

	var options []generator.Option
	if cfg.TechDir != "" {
		technology, err := tech.LoadDir(cfg.TechDir)
		if err != nil {
			return err
		}
		options = append(options, generator.WithTechnology(technology))
	}

	req := cfg.Request
	if cfg.Interactive {
		req, err = prompt.Configure(ctx, driver, req)
		if errors.Is(err, prompt.ErrDeclined) || errors.Is(err, prompt.ErrAborted) {
			logger.Info("nothing generated", "reason", err.Error())
			return nil
		}
		if errors.Is(err, prompt.ErrInvalidRequest) {
			return &cli.ExitError{Code: 2, Message: err.Error()}
		}
		if err != nil {
			return err
		}
	}

	result, err := generator.New(options...).Generate(ctx, req)
	if err != nil {
		return err
	}

	seen := map[string]bool{}
	for _, cell := range result.Cells {
		for _, path := range cell.Files {
			if seen[path] {
				continue
			}
			seen[path] = true
			fmt.Fprintln(outW, path)
		}
	}
	logger.Info("done", slog.Int("cells", len(result.Cells)))
	return nil
}
