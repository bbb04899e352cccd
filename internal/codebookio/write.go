package codebookio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
	"github.com/qvzgo/qvcodebook/internal/qverr"
)

const asciiOffset = 33
const space = byte(' ')

// Write serializes family in the codebook file format.
//
// Layout, verbatim from qvz's write_codebook:
//   - two unused placeholder lines, length columns, space-filled
//   - one ratio line, length columns: byte[col] = uint8(ratio*100)+33,
//     using only each column's context-0 ratio — the file format has
//     no room for a per-context ratio, a known limitation carried over
//     unchanged (see DESIGN.md)
//   - column 0's low and then high quantizer maps (length size each,
//     each byte = Q[k]+33) — unlike every later column, context 0 is
//     the only context column 0 has, so its lo/hi pair needs no
//     context-indexed row, just the two lines
//   - for every column >= 1, two lines of size*size bytes (lo row, then
//     hi row): each row is size consecutive per-context quantizer maps
//     in ascending raw-symbol order, with a context absent from that
//     column's trained set padded with ASCII spaces instead of omitted
func Write(w io.Writer, family *codebook.Family) error {
	columns := family.Columns()
	if columns == 0 {
		return qverr.Wrap(qverr.InvalidConfig, fmt.Errorf("codebookio: family has no columns"))
	}

	col0 := family.Spec(0)
	if len(col0.Lo) == 0 || col0.Lo[0] == nil || len(col0.Hi) == 0 || col0.Hi[0] == nil {
		return qverr.Wrap(qverr.InvalidConfig, fmt.Errorf("codebookio: column 0 has no trained quantizer"))
	}
	full := col0.Lo[0].Input
	size := full.Size()

	bw := bufio.NewWriter(w)

	placeholder := make([]byte, columns)
	for i := range placeholder {
		placeholder[i] = space
	}
	if err := writeLine(bw, placeholder); err != nil {
		return err
	}
	if err := writeLine(bw, placeholder); err != nil {
		return err
	}

	ratioLine := make([]byte, columns)
	for col := 0; col < columns; col++ {
		spec := family.Spec(col)
		// The small epsilon keeps a ratio Read decoded from byte k
		// (k/100, e.g. 0.29 = 28.999…/100) writing back as k.
		ratioLine[col] = byte(spec.Ratio[0]*100+1e-9) + asciiOffset
	}
	if err := writeLine(bw, ratioLine); err != nil {
		return err
	}

	if err := writeLine(bw, encodeQuantizer(col0.Lo[0], size)); err != nil {
		return err
	}
	if err := writeLine(bw, encodeQuantizer(col0.Hi[0], size)); err != nil {
		return err
	}

	for col := 1; col < columns; col++ {
		spec := family.Spec(col)
		loRow := make([]byte, 0, size*size)
		hiRow := make([]byte, 0, size*size)
		for j := 0; j < size; j++ {
			sym := full.At(j)
			idx := spec.Context.IndexOf(sym)
			if idx == alphabet.NotFound || spec.Lo[idx] == nil || spec.Hi[idx] == nil {
				loRow = appendSpaces(loRow, size)
				hiRow = appendSpaces(hiRow, size)
				continue
			}
			loRow = append(loRow, encodeQuantizer(spec.Lo[idx], size)...)
			hiRow = append(hiRow, encodeQuantizer(spec.Hi[idx], size)...)
		}
		if err := writeLine(bw, loRow); err != nil {
			return err
		}
		if err := writeLine(bw, hiRow); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeLine(w *bufio.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return qverr.Wrap(qverr.IO, err)
	}
	if err := w.WriteByte('\n'); err != nil {
		return qverr.Wrap(qverr.IO, err)
	}
	return nil
}

func appendSpaces(dst []byte, n int) []byte {
	for i := 0; i < n; i++ {
		dst = append(dst, space)
	}
	return dst
}

func encodeQuantizer(q interface {
	Apply(int) alphabet.Symbol
}, size int) []byte {
	out := make([]byte, size)
	for i := 0; i < size; i++ {
		out[i] = byte(q.Apply(i)) + asciiOffset
	}
	return out
}
