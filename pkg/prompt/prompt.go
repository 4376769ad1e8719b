// Package prompt asks for generation settings in the terminal. The flow runs
// over a Driver so it can be scripted in tests; NewSurveyDriver provides the
// interactive implementation.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-cellgen/pkg/generator"
)

// Configure walks the user through the settings of req, using its current
// values as defaults, and returns the updated request. It returns
// ErrInvalidRequest when the answers fail generator validation and
// ErrDeclined when the summary is not confirmed.
func Configure(ctx context.Context, driver Driver, req generator.Request) (generator.Request, error) {
	if ctx == nil {
		return req, errors.New("prompt: context is required")
	}
	if driver == nil {
		return req, errors.New("prompt: driver is required")
	}
	req = req.WithDefaults()

	types := generator.CellTypes()
	options := make([]string, len(types))
	var defaults []int
	for i, ct := range types {
		options[i] = string(ct)
		for _, selected := range req.CellTypes {
			if selected == ct {
				defaults = append(defaults, i)
			}
		}
	}
	picked, err := driver.MultiSelect(ctx, SelectConfig{
		Message:  "Cell types",
		Options:  options,
		Defaults: defaults,
		Help:     "inv wires the output once; inv_hs wires every other drain finger",
	})
	if err != nil {
		return req, fmt.Errorf("prompt: cell types: %w", err)
	}
	if len(picked) == 0 {
		return req, errors.New("prompt: cell types: select at least one")
	}
	req.CellTypes = req.CellTypes[:0:0]
	for _, idx := range picked {
		if idx < 0 || idx >= len(types) {
			return req, fmt.Errorf("prompt: cell types: option %d out of range", idx)
		}
		req.CellTypes = append(req.CellTypes, types[idx])
	}

	rawFingers, err := driver.Input(ctx, InputConfig{
		Message: "Finger counts",
		Default: FormatFingers(req.Fingers),
		Help:    "comma separated, e.g. 2,4,6",
		Validator: func(raw string) error {
			_, err := ParseFingers(raw)
			return err
		},
	})
	if err != nil {
		return req, fmt.Errorf("prompt: fingers: %w", err)
	}
	if req.Fingers, err = ParseFingers(rawFingers); err != nil {
		return req, err
	}

	rawFins, err := driver.Input(ctx, InputConfig{
		Message:   "Fins per device",
		Default:   strconv.Itoa(req.Fins),
		Validator: validatePositive,
	})
	if err != nil {
		return req, fmt.Errorf("prompt: fins: %w", err)
	}
	if err := validatePositive(rawFins); err != nil {
		return req, err
	}
	req.Fins, _ = strconv.Atoi(strings.TrimSpace(rawFins))

	path, err := driver.Input(ctx, InputConfig{
		Message: "Export path",
		Default: req.ExportPath,
	})
	if err != nil {
		return req, fmt.Errorf("prompt: export path: %w", err)
	}
	if strings.TrimSpace(path) != "" {
		req.ExportPath = strings.TrimSpace(path)
	}

	if req.Preview, err = driver.Confirm(ctx, ConfirmConfig{
		Message: "Write SVG previews?",
		Default: req.Preview,
	}); err != nil {
		return req, fmt.Errorf("prompt: preview: %w", err)
	}

	if err := req.Validate(); err != nil {
		return req, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	count := len(req.CellTypes) * len(req.Fingers)
	if err := driver.Info(ctx, summary(req)); err != nil {
		return req, fmt.Errorf("prompt: summary: %w", err)
	}
	ok, err := driver.Confirm(ctx, ConfirmConfig{
		Message: fmt.Sprintf("Generate %d cell(s) into %s?", count, req.ExportPath),
		Default: true,
	})
	if err != nil {
		return req, fmt.Errorf("prompt: confirm: %w", err)
	}
	if !ok {
		return req, ErrDeclined
	}
	return req, nil
}

// ParseFingers parses a comma separated list of positive finger counts.
func ParseFingers(raw string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		nf, err := strconv.Atoi(part)
		if err != nil || nf < 1 {
			return nil, fmt.Errorf("prompt: finger count %q must be a positive integer", part)
		}
		out = append(out, nf)
	}
	if len(out) == 0 {
		return nil, errors.New("prompt: at least one finger count is required")
	}
	return out, nil
}

// FormatFingers is the inverse of ParseFingers.
func FormatFingers(fingers []int) string {
	parts := make([]string, len(fingers))
	for i, nf := range fingers {
		parts[i] = strconv.Itoa(nf)
	}
	return strings.Join(parts, ",")
}

func validatePositive(raw string) error {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fmt.Errorf("prompt: %q must be a positive integer", raw)
	}
	return nil
}

func summary(req generator.Request) string {
	var b strings.Builder
	b.WriteString("Cells:")
	for _, ct := range req.CellTypes {
		for _, nf := range req.Fingers {
			b.WriteString(" " + generator.CellName(ct, nf))
		}
	}
	fmt.Fprintf(&b, "\nLibrary: %s\nTemplates: %s, %s\nFins: %d", req.Library, req.NMOSTemplate, req.PMOSTemplate, req.Fins)
	return b.String()
}
