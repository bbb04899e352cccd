package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
)

// loadQualityFile reads a plain-text quality-value file: one read per
// line, columns whitespace-separated integers, every line the same
// width. This is a minimal stand-in for the real line loader, which
// spec.md §1 places outside the core entirely; the CLI needs some
// concrete format to be runnable at all, so it reads the simplest one
// that satisfies the core's fixed-column-count input contract (§6).
func loadQualityFile(path string, a *alphabet.Alphabet) (*codebook.TrainingSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines [][]alphabet.Symbol
	columns := -1

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Fields(text)
		if columns == -1 {
			columns = len(fields)
		} else if len(fields) != columns {
			return nil, fmt.Errorf("line %d: got %d columns, want %d", lineNo, len(fields), columns)
		}
		row := make([]alphabet.Symbol, len(fields))
		for i, field := range fields {
			v, err := strconv.Atoi(field)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			if v < 0 || v >= a.Size() {
				return nil, fmt.Errorf("line %d: value %d outside alphabet [0,%d)", lineNo, v, a.Size())
			}
			row[i] = alphabet.Symbol(v)
		}
		lines = append(lines, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, codebook.ErrEmptyTraining
	}

	return &codebook.TrainingSample{Alphabet: a, Columns: columns, Lines: lines}, nil
}

// sniffColumns recovers a codebook file's column count from the
// length of its first line: the file format (§4.8) carries no
// explicit header, but every line up through the ratio line is
// exactly `columns` bytes long, so the first line's length doubles as
// the count. Decoding still needs the alphabet size supplied
// separately (alphabetSize, fixed for this CLI); see internal/codebookio.
func sniffColumns(data []byte) (int, error) {
	nl := bytes.IndexByte(data, '\n')
	if nl < 0 {
		return 0, fmt.Errorf("codebook file has no lines")
	}
	if nl == 0 {
		return 0, fmt.Errorf("codebook file's first line is empty")
	}
	return nl, nil
}

// dumpReconstruction applies family's trained quantizer selection to
// every line of sample and writes the resulting lossy reproduction,
// one space-separated line per input line. This is the one piece of
// an "encode" this repository's core is responsible for per the
// entropy-coder contract (spec.md §6): the actual bitstream and its
// arithmetic coder are out of scope, so what would normally be
// "decode the compressed stream" here is just re-deriving the same
// reproduction the encoder would hand the coder.
func dumpReconstruction(path string, family *codebook.Family, sample *codebook.TrainingSample) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	family.Seed(codebook.DefaultSeed)

	for _, line := range sample.Lines {
		prev := alphabet.Symbol(0)
		for col, sym := range line {
			q, err := family.Select(col, prev)
			if err != nil {
				return fmt.Errorf("column %d: %w", col, err)
			}
			idx := q.Input.IndexOf(sym)
			if idx == alphabet.NotFound {
				return fmt.Errorf("column %d: symbol %d outside quantizer's input alphabet", col, sym)
			}
			recon := q.Apply(int(idx))
			if col > 0 {
				w.WriteByte(' ')
			}
			fmt.Fprintf(w, "%d", recon)
			prev = recon
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}
