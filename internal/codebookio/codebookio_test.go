package codebookio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
	"github.com/qvzgo/qvcodebook/internal/distortion"
)

func trainedFamily(t *testing.T, columns, linesPerSymbol int, a *alphabet.Alphabet, comp float64) *codebook.Family {
	t.Helper()
	var rows [][]alphabet.Symbol
	for s := 0; s < a.Size(); s++ {
		for i := 0; i < linesPerSymbol; i++ {
			row := make([]alphabet.Symbol, columns)
			for c := range row {
				row[c] = alphabet.Symbol((s + c) % a.Size())
			}
			rows = append(rows, row)
		}
	}
	sample := &codebook.TrainingSample{Alphabet: a, Columns: columns, Lines: rows}
	dist, err := distortion.Build(a.Size(), distortion.MSE)
	if err != nil {
		t.Fatalf("distortion.Build: %v", err)
	}
	family, err := codebook.Generate(sample, dist, comp)
	if err != nil {
		t.Fatalf("codebook.Generate: %v", err)
	}
	return family
}

func familyBytes(t *testing.T, f *codebook.Family) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := Write(&buf, f); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return buf.Bytes()
}

func TestWriteReadRoundTripBytes(t *testing.T) {
	a := alphabet.Range(8)
	family := trainedFamily(t, 5, 20, a, 0.6)

	encoded := familyBytes(t, family)
	decoded, err := Read(bytes.NewReader(encoded), family.Columns(), a)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	reEncoded := familyBytes(t, decoded)
	if !bytes.Equal(encoded, reEncoded) {
		t.Fatalf("round trip is not byte-for-byte:\nfirst:  %q\nsecond: %q", encoded, reEncoded)
	}
}

func TestReadRecoversQuantizerInvariant(t *testing.T) {
	a := alphabet.Range(10)
	family := trainedFamily(t, 4, 15, a, 0.8)
	encoded := familyBytes(t, family)

	decoded, err := Read(bytes.NewReader(encoded), family.Columns(), a)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	for col := 0; col < decoded.Columns(); col++ {
		spec := decoded.Spec(col)
		for i, lo := range spec.Lo {
			if lo == nil {
				continue
			}
			for x := 0; x < a.Size(); x++ {
				if !lo.Output.Contains(lo.Q[x]) {
					t.Fatalf("column %d context %d: lo.Q[%d]=%d not in output alphabet", col, i, x, lo.Q[x])
				}
			}
		}
	}
}

func TestReadRecoversColumn0HiQuantizer(t *testing.T) {
	a := alphabet.Range(10)
	family := trainedFamily(t, 3, 15, a, 0.3)
	encoded := familyBytes(t, family)

	decoded, err := Read(bytes.NewReader(encoded), family.Columns(), a)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}

	wantHi := family.Spec(0).Hi[0]
	gotHi := decoded.Spec(0).Hi[0]
	if gotHi == nil {
		t.Fatal("decoded column 0 has no hi quantizer")
	}
	for i := 0; i < a.Size(); i++ {
		if gotHi.Q[i] != wantHi.Q[i] {
			t.Fatalf("column 0 hi.Q[%d] = %d, want %d (decoder recovered the lo map instead of hi)", i, gotHi.Q[i], wantHi.Q[i])
		}
	}
}

func TestReadRejectsTruncatedFile(t *testing.T) {
	a := alphabet.Range(4)
	family := trainedFamily(t, 3, 10, a, 0.5)
	encoded := familyBytes(t, family)

	truncated := strings.Join(strings.Split(string(encoded), "\n")[:3], "\n")
	if _, err := Read(strings.NewReader(truncated), family.Columns(), a); err == nil {
		t.Fatal("expected error reading truncated codebook")
	}
}

func TestReadRejectsBadRatioByte(t *testing.T) {
	a := alphabet.Range(4)
	family := trainedFamily(t, 2, 10, a, 0.5)
	encoded := familyBytes(t, family)

	lines := strings.Split(string(encoded), "\n")
	// line index 2 (0-based) is the ratio line.
	bad := []byte(lines[2])
	bad[0] = 20 // below the printable offset, and below space too (not a newline)
	lines[2] = string(bad)
	corrupted := strings.Join(lines, "\n")

	if _, err := Read(strings.NewReader(corrupted), family.Columns(), a); err == nil {
		t.Fatal("expected error reading codebook with out-of-range ratio byte")
	}
}

func TestWriteRejectsEmptyFamily(t *testing.T) {
	empty := codebook.NewFamily(nil)
	if err := Write(&bytes.Buffer{}, empty); err == nil {
		t.Fatal("expected error writing a family with no columns")
	}
}

func fuzzSeedCorpus(columns int, a *alphabet.Alphabet) ([]byte, error) {
	var rows [][]alphabet.Symbol
	for s := 0; s < a.Size(); s++ {
		for i := 0; i < 8; i++ {
			row := make([]alphabet.Symbol, columns)
			for c := range row {
				row[c] = alphabet.Symbol((s + c) % a.Size())
			}
			rows = append(rows, row)
		}
	}
	sample := &codebook.TrainingSample{Alphabet: a, Columns: columns, Lines: rows}
	dist, err := distortion.Build(a.Size(), distortion.MSE)
	if err != nil {
		return nil, err
	}
	family, err := codebook.Generate(sample, dist, 0.5)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Write(&buf, family); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func FuzzRead(f *testing.F) {
	const columns = 3
	a := alphabet.Range(6)

	if seed, err := fuzzSeedCorpus(columns, a); err == nil {
		f.Add(seed)
	}
	f.Add([]byte{})
	f.Add([]byte("\n\n\n"))

	f.Fuzz(func(t *testing.T, data []byte) {
		// Read must never panic on arbitrary input; it may only
		// return a structured error.
		_, _ = Read(bytes.NewReader(data), columns, a)
	})
}
