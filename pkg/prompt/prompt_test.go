package prompt

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-cellgen/pkg/generator"
	"github.com/goliatone/go-cellgen/pkg/testsupport"
)

type stubDriver struct {
	inputs       []string
	multiIdx     [][]int
	confirm      []bool
	infoMessages []string
	inputConfigs []InputConfig
	selectCfgs   []SelectConfig
	inputPos     int
	multiPos     int
	confirmPos   int
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) MultiSelect(_ context.Context, cfg SelectConfig) ([]int, error) {
	s.selectCfgs = append(s.selectCfgs, cfg)
	if s.multiPos >= len(s.multiIdx) {
		return nil, errors.New("no multiselect scripted")
	}
	val := s.multiIdx[s.multiPos]
	s.multiPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func TestConfigure_AppliesAnswers(t *testing.T) {
	driver := &stubDriver{
		multiIdx: [][]int{{0, 1}},
		inputs:   []string{"2, 4", "3", "out/"},
		confirm:  []bool{true, true},
	}

	req, err := Configure(testsupport.Context(), driver, generator.Request{})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	if diff := cmp.Diff([]generator.CellType{generator.Inverter, generator.InverterHighStrength}, req.CellTypes); diff != "" {
		t.Fatalf("cell types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 4}, req.Fingers); diff != "" {
		t.Fatalf("fingers mismatch (-want +got):\n%s", diff)
	}
	if req.Fins != 3 || req.ExportPath != "out/" || !req.Preview {
		t.Fatalf("unexpected request: %+v", req)
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one summary, got %v", driver.infoMessages)
	}
	want := "Cells: inv_2x inv_4x inv_hs_2x inv_hs_4x\nLibrary: logic_generated\nTemplates: nmos_flex, pmos_flex\nFins: 3"
	if driver.infoMessages[0] != want {
		t.Fatalf("summary = %q", driver.infoMessages[0])
	}
}

func TestConfigure_OffersRequestAsDefaults(t *testing.T) {
	driver := &stubDriver{
		multiIdx: [][]int{{1}},
		inputs:   []string{"8", "4", ""},
		confirm:  []bool{false, true},
	}

	req, err := Configure(testsupport.Context(), driver, generator.Request{
		CellTypes:  []generator.CellType{generator.InverterHighStrength},
		Fingers:    []int{6, 8},
		ExportPath: "build/",
	})
	if err != nil {
		t.Fatalf("configure: %v", err)
	}

	if diff := cmp.Diff([]int{1}, driver.selectCfgs[0].Defaults); diff != "" {
		t.Fatalf("select defaults mismatch (-want +got):\n%s", diff)
	}
	if got := driver.inputConfigs[0].Default; got != "6,8" {
		t.Fatalf("finger default = %q", got)
	}
	if got := driver.inputConfigs[2].Default; got != "build/" {
		t.Fatalf("path default = %q", got)
	}
	if req.ExportPath != "build/" {
		t.Fatalf("blank answer should keep the path, got %q", req.ExportPath)
	}
	if err := driver.inputConfigs[0].Validator("2,x"); err == nil {
		t.Fatalf("expected validator to reject malformed fingers")
	}
}

func TestConfigure_Declined(t *testing.T) {
	driver := &stubDriver{
		multiIdx: [][]int{{0}},
		inputs:   []string{"6", "4", ""},
		confirm:  []bool{false, false},
	}

	if _, err := Configure(testsupport.Context(), driver, generator.Request{}); !errors.Is(err, ErrDeclined) {
		t.Fatalf("expected ErrDeclined, got %v", err)
	}
}

func TestConfigure_RequiresCellType(t *testing.T) {
	driver := &stubDriver{multiIdx: [][]int{{}}}

	if _, err := Configure(testsupport.Context(), driver, generator.Request{}); err == nil {
		t.Fatalf("expected error for an empty selection")
	}
}

func TestParseFingers(t *testing.T) {
	got, err := ParseFingers(" 2,4 ,, 6 ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff([]int{2, 4, 6}, got); diff != "" {
		t.Fatalf("fingers mismatch (-want +got):\n%s", diff)
	}
	if FormatFingers(got) != "2,4,6" {
		t.Fatalf("format = %q", FormatFingers(got))
	}

	for _, raw := range []string{"", "0", "-2", "two", " , "} {
		if _, err := ParseFingers(raw); err == nil {
			t.Fatalf("expected error for %q", raw)
		}
	}
}

func TestConfigure_RejectsInvalidRequestBeforeConfirming(t *testing.T) {
	driver := &stubDriver{
		multiIdx: [][]int{{1}},
		inputs:   []string{"1", "4", "out/"},
		confirm:  []bool{false},
	}

	_, err := Configure(testsupport.Context(), driver, generator.Request{})
	if !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest, got %v", err)
	}
	if len(driver.infoMessages) != 0 {
		t.Fatalf("summary shown for an invalid request: %v", driver.infoMessages)
	}
	if driver.confirmPos != 1 {
		t.Fatalf("expected only the preview question, got %d confirmations", driver.confirmPos)
	}
}
