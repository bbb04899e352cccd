package main

import (
	"flag"
	"testing"

	"github.com/qvzgo/qvcodebook/internal/distortion"
)

func TestParseMetric(t *testing.T) {
	tests := []struct {
		in      string
		want    distortion.Metric
		wantErr bool
	}{
		{"M", distortion.MSE, false},
		{"L", distortion.Lorentz, false},
		{"A", distortion.Manhattan, false},
		{"Z", distortion.MSE, true},
		{"", distortion.MSE, true},
	}
	for _, tt := range tests {
		got, err := parseMetric(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMetric(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("parseMetric(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseArgsRequiresTwoFilenames(t *testing.T) {
	if _, err := parseArgs([]string{"-q"}); err == nil {
		t.Fatal("expected error for missing filenames")
	}
}

func TestParseArgsDefaults(t *testing.T) {
	cfg, err := parseArgs([]string{"in.txt", "out.cb"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if cfg.extract {
		t.Error("default mode should not be extract")
	}
	if cfg.ratio != 0.5 {
		t.Errorf("default ratio = %v, want 0.5", cfg.ratio)
	}
	if cfg.trainingCap != defaultTrainingCap {
		t.Errorf("default training cap = %d, want %d", cfg.trainingCap, defaultTrainingCap)
	}
	if cfg.input != "in.txt" || cfg.output != "out.cb" {
		t.Errorf("positional args = %q, %q", cfg.input, cfg.output)
	}
}

func TestParseArgsExtractFlag(t *testing.T) {
	cfg, err := parseArgs([]string{"-x", "in.cb", "out.txt"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !cfg.extract {
		t.Error("expected extract mode with -x")
	}
}

func TestParseArgsRateFlagWarnsAndFallsBack(t *testing.T) {
	cfg, err := parseArgs([]string{"-r", "2.0", "in.txt", "out.cb"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if !cfg.rateSet {
		t.Error("expected rateSet when -r is passed explicitly")
	}
	// -f still governs the actual ratio used; -r is recorded only to
	// trigger the fallback warning, matching qvz's "falling back to
	// ratio" behavior.
	if cfg.ratio != 0.5 {
		t.Errorf("ratio = %v, want unchanged default 0.5", cfg.ratio)
	}
}

func TestParseArgsHelp(t *testing.T) {
	_, err := parseArgs([]string{"-h"})
	if err != flag.ErrHelp {
		t.Fatalf("parseArgs(-h) error = %v, want flag.ErrHelp", err)
	}
}
