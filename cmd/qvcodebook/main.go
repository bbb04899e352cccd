// Command qvcodebook builds and applies quality-value codebooks.
//
// It is the CLI driver around the internal/codebook core: a thin
// wrapper that loads a plain-text quality-value file, trains a
// conditional quantizer family, and writes it out in the
// internal/codebookio file format. The driver is documented for
// completeness only (spec.md §6) — the real external collaborators
// the core assumes (a production line loader, an arithmetic-coded
// entropy back-end, k-means clustering across multiple codebooks) are
// out of scope; this binary runs the single-cluster, no-entropy-coding
// path and, with -u, dumps the lossy reconstruction the family alone
// is responsible for (the entropy-coder contract's reproduction
// symbol, without an actual bitstream).
//
// Usage:
//
//	qvcodebook [options] <input> <output>
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
	"github.com/qvzgo/qvcodebook/internal/codebookio"
	"github.com/qvzgo/qvcodebook/internal/distortion"
)

// alphabetSize is the fixed quality-value alphabet size the reference
// qvz tool uses (main.c: alloc_alphabet(41)). The core itself supports
// any alphabet; the CLI hardcodes this one the way the original tool
// does, since nothing upstream of it ever passes a different size.
const alphabetSize = 41

// defaultTrainingCap matches qvz's opts.training_size default.
const defaultTrainingCap = 1000000

type config struct {
	extract      bool
	ratio        float64
	rateSet      bool
	rate         float64
	metric       distortion.Metric
	clusters     int
	threshold    float64
	trainingCap  int
	uncompressed string
	stats        bool
	verbose      bool
	input        string
	output       string
}

func main() {
	cfg, err := parseArgs(os.Args[1:])
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "qvcodebook: %v\n", err)
		os.Exit(1)
	}

	if cfg.rateSet {
		fmt.Fprintln(os.Stderr, "--Warning-- fixed rate encoding not yet implemented, falling back to ratio")
	}
	if cfg.clusters != 1 {
		fmt.Fprintln(os.Stderr, "--Warning-- multi-cluster compression is not implemented; running a single cluster")
	}

	if cfg.extract {
		err = runDecode(cfg)
	} else {
		err = runEncode(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "qvcodebook: %v\n", err)
		os.Exit(1)
	}
}

func parseArgs(args []string) (*config, error) {
	fs := flag.NewFlagSet("qvcodebook", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s (options) [input file] [output file]\n", fs.Name())
		fs.PrintDefaults()
	}

	extract := fs.Bool("x", false, "extract quality values from compressed file")
	compress := fs.Bool("q", false, "store quality values in compressed file (default)")
	ratio := fs.Float64("f", 0.5, "compress using ratio bits per bit of input entropy per symbol")
	rate := fs.Float64("r", 0, "compress using fixed rate bits per symbol (not implemented, falls back to -f)")
	dist := fs.String("d", "M", "distortion metric to optimize for: M (MSE), L (Lorentz), A (Manhattan)")
	clusters := fs.Int("c", 1, "number of clusters (not implemented; any value other than 1 warns and runs a single cluster)")
	threshold := fs.Float64("T", 4, "cluster center movement threshold (unused, single-cluster only)")
	trainingCap := fs.Int("t", defaultTrainingCap, "number of lines to use as training set (0 for all)")
	uncompressed := fs.String("u", "", "write the uncompressed lossy values to FILE")
	stats := fs.Bool("s", false, "print parse-able summary stats")
	verbose := fs.Bool("v", false, "enable verbose output")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	rateExplicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "r" {
			rateExplicit = true
		}
	})

	if fs.NArg() != 2 {
		fs.Usage()
		return nil, fmt.Errorf("missing required filenames")
	}

	metric, err := parseMetric(*dist)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Distortion measure not supported, using MSE.\n")
		metric = distortion.MSE
	}

	return &config{
		extract:      *extract && !*compress,
		ratio:        *ratio,
		rateSet:      rateExplicit,
		rate:         *rate,
		metric:       metric,
		clusters:     *clusters,
		threshold:    *threshold,
		trainingCap:  *trainingCap,
		uncompressed: *uncompressed,
		stats:        *stats,
		verbose:      *verbose,
		input:        fs.Arg(0),
		output:       fs.Arg(1),
	}, nil
}

func parseMetric(s string) (distortion.Metric, error) {
	if len(s) == 0 {
		return distortion.MSE, fmt.Errorf("empty distortion flag")
	}
	switch s[0] {
	case 'M':
		return distortion.MSE, nil
	case 'L':
		return distortion.Lorentz, nil
	case 'A':
		return distortion.Manhattan, nil
	default:
		return distortion.MSE, fmt.Errorf("unknown distortion metric %q", s)
	}
}

func runEncode(cfg *config) error {
	a := alphabet.Range(alphabetSize)

	sample, err := loadQualityFile(cfg.input, a)
	if err != nil {
		return fmt.Errorf("loading %s: %w", cfg.input, err)
	}
	sample = sample.Cap(cfg.trainingCap)

	dist, err := distortion.Build(alphabetSize, cfg.metric)
	if err != nil {
		return err
	}

	family, err := codebook.Generate(sample, dist, cfg.ratio)
	if err != nil {
		return fmt.Errorf("generating codebook: %w", err)
	}

	out, err := os.Create(cfg.output)
	if err != nil {
		return err
	}
	if err := codebookio.Write(out, family); err != nil {
		out.Close()
		os.Remove(cfg.output)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if cfg.uncompressed != "" {
		if err := dumpReconstruction(cfg.uncompressed, family, sample); err != nil {
			return fmt.Errorf("writing uncompressed reconstruction: %w", err)
		}
	}

	if cfg.verbose {
		fmt.Fprintf(os.Stderr, "Lines: %d\n", len(sample.Lines))
		fmt.Fprintf(os.Stderr, "Columns: %d\n", sample.Columns)
	}
	if cfg.stats {
		fmt.Printf("rate, %.4f, lines, %d, columns, %d\n", cfg.ratio, len(sample.Lines), sample.Columns)
	}
	return nil
}

func runDecode(cfg *config) error {
	a := alphabet.Range(alphabetSize)

	data, err := os.ReadFile(cfg.input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", cfg.input, err)
	}
	columns, err := sniffColumns(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", cfg.input, err)
	}

	family, err := codebookio.Read(bytes.NewReader(data), columns, a)
	if err != nil {
		return fmt.Errorf("reading codebook: %w", err)
	}

	out, err := os.Create(cfg.output)
	if err != nil {
		return err
	}
	defer out.Close()

	fmt.Fprintf(out, "codebook columns: %d\n", family.Columns())
	for col := 0; col < family.Columns(); col++ {
		ctx := family.ContextAlphabet(col)
		fmt.Fprintf(out, "column %d: %d contexts\n", col, ctx.Size())
	}

	if cfg.verbose {
		fmt.Fprintf(os.Stderr, "Decoded codebook with %d columns.\n", family.Columns())
	}
	return nil
}
