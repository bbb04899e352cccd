package codebook

import (
	"fmt"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/quantizer"
	"github.com/qvzgo/qvcodebook/internal/well"
)

// DefaultSeed is the WELL-1024a seed a Family is constructed with when
// the caller hasn't asked for a specific one. An encoder and decoder
// sharing a codebook file must also share a seed, set explicitly with
// Seed before the first Select call of a stream.
const DefaultSeed uint32 = 0x51565A31 // "QVZ1"

// columnEntry holds one column's trained quantizer pairs, one per
// context symbol in that column's context alphabet.
type columnEntry struct {
	context *alphabet.Alphabet
	lo      []*quantizer.Quantizer
	hi      []*quantizer.Quantizer
	ratio   []float64
}

// Family is a trained codebook: for every column, a context alphabet
// and a (lo, hi, ratio) quantizer triple per context symbol, plus the
// shared PRNG stream Select draws from. It is the in-memory
// counterpart of qvz's cond_quantizer_list_t.
type Family struct {
	columns []columnEntry
	rng     *well.State
}

// Columns returns the number of columns this family was trained for.
func (f *Family) Columns() int {
	return len(f.columns)
}

// ContextAlphabet returns the set of context symbols column accepts
// (the union of the previous column's quantizer outputs, or a single
// dummy context {0} for column 0).
func (f *Family) ContextAlphabet(column int) *alphabet.Alphabet {
	return f.columns[column].context
}

// Lo returns the lo-state quantizer for column under context ctx, or
// nil if ctx isn't a member of that column's context alphabet.
func (f *Family) Lo(column int, ctx alphabet.Symbol) *quantizer.Quantizer {
	entry := f.columns[column]
	idx := entry.context.IndexOf(ctx)
	if idx == alphabet.NotFound {
		return nil
	}
	return entry.lo[idx]
}

// Hi returns the hi-state quantizer for column under context ctx, or
// nil if ctx isn't a member of that column's context alphabet.
func (f *Family) Hi(column int, ctx alphabet.Symbol) *quantizer.Quantizer {
	entry := f.columns[column]
	idx := entry.context.IndexOf(ctx)
	if idx == alphabet.NotFound {
		return nil
	}
	return entry.hi[idx]
}

// Ratio returns the lo-selection probability for column under context
// ctx.
func (f *Family) Ratio(column int, ctx alphabet.Symbol) float64 {
	entry := f.columns[column]
	idx := entry.context.IndexOf(ctx)
	if idx == alphabet.NotFound {
		return 0
	}
	return entry.ratio[idx]
}

// Seed reseeds the family's PRNG stream. An encoder and the matching
// decoder must call this with the same value before processing a
// stream so that Select draws the same lo/hi sequence on both sides.
func (f *Family) Seed(seed uint32) {
	f.rng.Seed(seed)
}

// Select draws the next quantizer for column under the previous
// column's quantized symbol prevQuantized, mixing lo and hi according
// to the trained ratio: one WELL-1024a sample decides which of the
// pair is used this time, exactly as qvz's choose_quantizer does.
func (f *Family) Select(column int, prevQuantized alphabet.Symbol) (*quantizer.Quantizer, error) {
	entry := f.columns[column]
	idx := entry.context.IndexOf(prevQuantized)
	if idx == alphabet.NotFound {
		return nil, fmt.Errorf("%w: column %d context %d", ErrUnknownContext, column, prevQuantized)
	}
	if entry.lo[idx] == nil || entry.hi[idx] == nil {
		return nil, fmt.Errorf("%w: column %d context %d has no trained quantizer", ErrUnknownContext, column, prevQuantized)
	}
	if f.rng.Float64() < entry.ratio[idx] {
		return entry.lo[idx], nil
	}
	return entry.hi[idx], nil
}

// Spec returns column's raw quantizer data (context alphabet plus
// parallel lo/hi/ratio slices), for codebookio's writer to serialize.
func (f *Family) Spec(column int) ColumnSpec {
	e := f.columns[column]
	return ColumnSpec{Context: e.context, Lo: e.lo, Hi: e.hi, Ratio: e.ratio}
}

// ColumnSpec describes one column's trained quantizer data: a context
// alphabet and a parallel (lo, hi, ratio) triple per context symbol. A
// nil entry in Lo/Hi marks a context with no trained quantizer (the
// file format pads these with spaces rather than omitting them).
type ColumnSpec struct {
	Context *alphabet.Alphabet
	Lo      []*quantizer.Quantizer
	Hi      []*quantizer.Quantizer
	Ratio   []float64
}

// NewFamily builds a Family directly from column specs, seeded with
// DefaultSeed. Generate is the usual constructor; NewFamily exists for
// codebookio, which reconstructs a Family's columns from its on-disk
// representation rather than training one.
func NewFamily(specs []ColumnSpec) *Family {
	columns := make([]columnEntry, len(specs))
	for i, s := range specs {
		columns[i] = columnEntry{context: s.Context, lo: s.Lo, hi: s.Hi, ratio: s.Ratio}
	}
	return &Family{columns: columns, rng: well.NewSeeded(DefaultSeed)}
}
