package codebook

import (
	"fmt"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/pmf"
)

// TrainingSample is a block of observed quality-value lines used to fit
// a codebook family: Lines[i] is one read's worth of symbols, each of
// length Columns, all drawn from Alphabet.
type TrainingSample struct {
	Alphabet *alphabet.Alphabet
	Columns  int
	Lines    [][]alphabet.Symbol
}

// Cap returns a copy of s truncated to at most n lines, or s itself
// when n is 0 (no cap) or already covers every line. Mirrors qvz's
// opts.training_size: 0 means use the whole training sample.
func (s *TrainingSample) Cap(n int) *TrainingSample {
	if n <= 0 || n >= len(s.Lines) {
		return s
	}
	return &TrainingSample{Alphabet: s.Alphabet, Columns: s.Columns, Lines: s.Lines[:n]}
}

// CondPMFStore holds the trained conditional distributions P(Xⱼ | Xⱼ₋₁=v)
// for every column j>=1 and context v, plus the unconditional P(X₀), and
// the per-column marginals M[j] derived from them. Conditional PMFs are
// stored flat: index 0 is column 0's unconditional PMF, and the
// remainder is column-major, |alphabet| entries per column starting at
// column 1 — the same flattening qvz's get_cond_pmf uses. Every
// (column, context) slot gets its own PMF, trained or not.
type CondPMFStore struct {
	alphabet  *alphabet.Alphabet
	columns   int
	pmfs      []*pmf.PMF
	marginals []*pmf.PMF
}

// NewCondPMFStore allocates an all-zero, unready store for columns
// columns over a.
func NewCondPMFStore(a *alphabet.Alphabet, columns int) *CondPMFStore {
	count := 1
	if columns > 1 {
		count += a.Size() * (columns - 1)
	}
	pmfs := make([]*pmf.PMF, count)
	for i := range pmfs {
		pmfs[i] = pmf.New(a)
	}
	return &CondPMFStore{alphabet: a, columns: columns, pmfs: pmfs}
}

// Alphabet returns the store's symbol alphabet.
func (s *CondPMFStore) Alphabet() *alphabet.Alphabet {
	return s.alphabet
}

// Columns returns the number of columns the store was built for.
func (s *CondPMFStore) Columns() int {
	return s.columns
}

// at returns the conditional PMF for column, given the previous
// column's alphabet index prevIdx (ignored when column==0). Internal
// index-space accessor; At does the symbol-to-index translation.
func (s *CondPMFStore) at(column, prevIdx int) *pmf.PMF {
	if column == 0 {
		return s.pmfs[0]
	}
	return s.pmfs[1+(column-1)*s.alphabet.Size()+prevIdx]
}

// At returns the conditional PMF P(Xcolumn | Xcolumn-1=prev), or the
// unconditional P(X0) when column is 0 (prev is then ignored).
func (s *CondPMFStore) At(column int, prev alphabet.Symbol) *pmf.PMF {
	if column == 0 {
		return s.pmfs[0]
	}
	idx := s.alphabet.IndexOf(prev)
	return s.at(column, int(idx))
}

// Marginal returns the unconditional distribution of column's raw
// symbol, M[column], computed by CalculateStatistics by propagating
// P(X0) forward through the conditional PMFs.
func (s *CondPMFStore) Marginal(column int) *pmf.PMF {
	return s.marginals[column]
}

// CalculateStatistics builds a CondPMFStore from a training sample:
// one pass accumulating per-context counts, a renormalize pass, and a
// forward propagation computing each column's marginal from the
// previous column's marginal and this column's conditional PMFs.
// Grounded on qvz's calculate_statistics, which does the same
// count-then-normalize-then-propagate sequence over its cond_pmf_list_t.
func CalculateStatistics(training *TrainingSample) (*CondPMFStore, error) {
	if len(training.Lines) == 0 {
		return nil, ErrEmptyTraining
	}

	store := NewCondPMFStore(training.Alphabet, training.Columns)
	for _, line := range training.Lines {
		if len(line) != training.Columns {
			return nil, fmt.Errorf("%w: got %d symbols, want %d", ErrColumnMismatch, len(line), training.Columns)
		}
		if err := store.pmfs[0].Increment(line[0]); err != nil {
			return nil, err
		}
		for col := 1; col < training.Columns; col++ {
			cond := store.At(col, line[col-1])
			if err := cond.Increment(line[col]); err != nil {
				return nil, err
			}
		}
	}
	for _, p := range store.pmfs {
		p.Renormalize()
	}

	store.marginals = make([]*pmf.PMF, training.Columns)
	store.marginals[0] = store.pmfs[0]
	size := training.Alphabet.Size()
	for col := 1; col < training.Columns; col++ {
		m := pmf.New(training.Alphabet)
		prevMarginal := store.marginals[col-1]
		for v := 0; v < size; v++ {
			weight := prevMarginal.ProbabilityAt(v)
			if weight == 0 {
				continue
			}
			cond := store.at(col, v)
			for x := 0; x < size; x++ {
				m.AddAt(x, weight*cond.ProbabilityAt(x))
			}
		}
		m.MarkReady()
		store.marginals[col] = m
	}
	return store, nil
}
