package codebookio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
	"github.com/qvzgo/qvcodebook/internal/quantizer"
	"github.com/qvzgo/qvcodebook/internal/qverr"
)

// Read parses a codebook file written by Write back into a Family.
// columns and full must match the values the family was trained with —
// the file format carries no alphabet or column-count header of its
// own, only the quantizer maps themselves (qvz's read_codebook is
// likewise handed these by its caller rather than discovering them).
func Read(r io.Reader, columns int, full *alphabet.Alphabet) (*codebook.Family, error) {
	if columns <= 0 {
		return nil, malformed(fmt.Errorf("columns must be positive, got %d", columns))
	}
	size := full.Size()

	sc := bufio.NewScanner(r)
	maxLine := size * size
	if columns > maxLine {
		maxLine = columns
	}
	sc.Buffer(make([]byte, 0, 64*1024), maxLine+2)

	readLine := func(name string, want int) ([]byte, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return nil, qverr.Wrap(qverr.IO, err)
			}
			return nil, malformed(fmt.Errorf("truncated codebook: missing %s", name))
		}
		line := sc.Bytes()
		if len(line) != want {
			return nil, malformed(fmt.Errorf("%s: got %d bytes, want %d", name, len(line), want))
		}
		return append([]byte(nil), line...), nil
	}

	// Two unused placeholder lines.
	if _, err := readLine("placeholder line 1", columns); err != nil {
		return nil, err
	}
	if _, err := readLine("placeholder line 2", columns); err != nil {
		return nil, err
	}

	ratioLine, err := readLine("ratio line", columns)
	if err != nil {
		return nil, err
	}
	ratios := make([]float64, columns)
	for col, b := range ratioLine {
		if b < asciiOffset || b > asciiOffset+100 {
			return nil, malformed(fmt.Errorf("ratio byte for column %d out of range: %d", col, b))
		}
		ratios[col] = float64(b-asciiOffset) / 100.0
	}

	col0Lo, err := readLine("column 0 low quantizer", size)
	if err != nil {
		return nil, err
	}
	col0Hi, err := readLine("column 0 high quantizer", size)
	if err != nil {
		return nil, err
	}

	specs := make([]codebook.ColumnSpec, columns)

	qLo0, err := decodeQuantizer(col0Lo, full, ratios[0])
	if err != nil {
		return nil, err
	}
	qHi0, err := decodeQuantizer(col0Hi, full, 1-ratios[0])
	if err != nil {
		return nil, err
	}
	specs[0] = codebook.ColumnSpec{
		Context: alphabet.New([]alphabet.Symbol{0}),
		Lo:      []*quantizer.Quantizer{qLo0},
		Hi:      []*quantizer.Quantizer{qHi0},
		Ratio:   []float64{ratios[0]},
	}

	for col := 1; col < columns; col++ {
		loRow, err := readLine(fmt.Sprintf("column %d low row", col), size*size)
		if err != nil {
			return nil, err
		}
		hiRow, err := readLine(fmt.Sprintf("column %d high row", col), size*size)
		if err != nil {
			return nil, err
		}

		var ctxSymbols []alphabet.Symbol
		var los, his []*quantizer.Quantizer
		var ratioList []float64
		for j := 0; j < size; j++ {
			loBlock := loRow[j*size : (j+1)*size]
			hiBlock := hiRow[j*size : (j+1)*size]
			if isPadding(loBlock) {
				continue
			}
			qlo, err := decodeQuantizer(loBlock, full, ratios[col])
			if err != nil {
				return nil, err
			}
			qhi, err := decodeQuantizer(hiBlock, full, 1-ratios[col])
			if err != nil {
				return nil, err
			}
			ctxSymbols = append(ctxSymbols, full.At(j))
			los = append(los, qlo)
			his = append(his, qhi)
			ratioList = append(ratioList, ratios[col])
		}
		specs[col] = codebook.ColumnSpec{
			Context: alphabet.New(ctxSymbols),
			Lo:      los,
			Hi:      his,
			Ratio:   ratioList,
		}
	}

	if err := sc.Err(); err != nil {
		return nil, qverr.Wrap(qverr.IO, err)
	}

	return codebook.NewFamily(specs), nil
}

// decodeQuantizer turns a size-byte quantizer line back into a
// Quantizer over full: Q[i] = line[i]-33, and the output alphabet is
// the ascending set of distinct reproduction values, exactly what
// qvz's generate_uniques recovers by scanning the decoded q array.
func decodeQuantizer(line []byte, full *alphabet.Alphabet, ratio float64) (*quantizer.Quantizer, error) {
	q := make([]alphabet.Symbol, len(line))
	for i, b := range line {
		if b < asciiOffset {
			return nil, malformed(fmt.Errorf("quantizer byte at index %d below printable offset: %d", i, b))
		}
		q[i] = alphabet.Symbol(b - asciiOffset)
	}
	out := alphabet.Sorted(q)
	return &quantizer.Quantizer{Input: full, Output: out, Q: q, Ratio: ratio}, nil
}

// isPadding reports whether block is an absent-context placeholder:
// write.go fills those with ASCII space (32), which is below the
// printable offset (33) any real decoded symbol value uses.
func isPadding(block []byte) bool {
	for _, b := range block {
		if b != space {
			return false
		}
	}
	return true
}

func malformed(err error) error {
	return fmt.Errorf("%w: codebookio: %v", ErrMalformedCodebook, err)
}
