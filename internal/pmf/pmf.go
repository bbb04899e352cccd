// Package pmf implements probability mass functions over a fixed
// alphabet, along with the accumulate/renormalize lifecycle and the
// mixing operation the codebook generator relies on.
package pmf

import (
	"errors"
	"math"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
)

// ErrNotReady is returned by operations that require a renormalized PMF.
var ErrNotReady = errors.New("pmf: probability mass function is not renormalized")

// ErrAlreadyReady is returned by Increment when called on a PMF that
// has already been renormalized; raw counts and probabilities must not
// be mixed.
var ErrAlreadyReady = errors.New("pmf: cannot increment an already-renormalized pmf")

// PMF is a probability mass function over an alphabet.Alphabet. Before
// Renormalize is called, Weights holds raw accumulated counts; after,
// it holds probabilities that sum to 1 (within floating-point
// tolerance).
type PMF struct {
	alphabet *alphabet.Alphabet
	weights  []float64
	ready    bool
}

// New allocates a zeroed, unready PMF over a.
func New(a *alphabet.Alphabet) *PMF {
	return &PMF{
		alphabet: a,
		weights:  make([]float64, a.Size()),
	}
}

// Alphabet returns the alphabet this PMF is defined over.
func (p *PMF) Alphabet() *alphabet.Alphabet {
	return p.alphabet
}

// Ready reports whether Renormalize has been called since the last
// structural change.
func (p *PMF) Ready() bool {
	return p.ready
}

// Increment adds one count to sym's raw weight. It is an error to call
// this on a PMF that has already been renormalized.
func (p *PMF) Increment(sym alphabet.Symbol) error {
	if p.ready {
		return ErrAlreadyReady
	}
	idx := p.alphabet.IndexOf(sym)
	if idx == alphabet.NotFound {
		return nil
	}
	p.weights[idx]++
	return nil
}

// Probability returns P(sym). Valid on both ready and unready PMFs,
// though on an unready one it returns a raw count rather than a
// probability.
func (p *PMF) Probability(sym alphabet.Symbol) float64 {
	idx := p.alphabet.IndexOf(sym)
	if idx == alphabet.NotFound {
		return 0
	}
	return p.weights[idx]
}

// ProbabilityAt returns the weight at alphabet index i directly,
// bypassing the symbol lookup. Used by the codebook generator, which
// already works in index space.
func (p *PMF) ProbabilityAt(i int) float64 {
	return p.weights[i]
}

// SetAt sets the weight at alphabet index i directly. Used when
// building a PMF whose mass is computed rather than accumulated
// symbol-by-symbol (e.g. the column propagation in the codebook
// generator).
func (p *PMF) SetAt(i int, v float64) {
	p.weights[i] = v
}

// AddAt adds delta to the weight at alphabet index i.
func (p *PMF) AddAt(i int, delta float64) {
	p.weights[i] += delta
}

// Renormalize divides every weight by their sum and marks the PMF
// ready. A PMF whose weights are all zero (no training mass reached
// this context) is left with all-zero weights rather than being
// forced uniform; the all-zero case is a degenerate column, and its
// entropy comes out as zero, not papered over here.
func (p *PMF) Renormalize() {
	var sum float64
	for _, w := range p.weights {
		sum += w
	}
	if sum == 0 {
		p.ready = true
		return
	}
	for i := range p.weights {
		p.weights[i] /= sum
	}
	p.ready = true
}

// Entropy returns the Shannon entropy in bits, -sum p*log2(p), with
// zero-probability terms contributing zero. It is only meaningful on a
// ready PMF; calling it on an unready one still computes a number (the
// "entropy" of the raw counts) but that number has no probabilistic
// meaning, so ErrNotReady is returned alongside the best-effort value.
func (p *PMF) Entropy() (float64, error) {
	h := p.entropyRaw()
	if !p.ready {
		return h, ErrNotReady
	}
	return h, nil
}

// MustEntropy returns the entropy of a ready PMF, panicking if the PMF
// is not ready. Used internally where readiness is already an
// established invariant and threading an error return would only add
// noise.
func (p *PMF) MustEntropy() float64 {
	if !p.ready {
		panic("pmf: MustEntropy on a non-ready pmf")
	}
	return p.entropyRaw()
}

func (p *PMF) entropyRaw() float64 {
	var h float64
	for _, w := range p.weights {
		if w <= 0 {
			continue
		}
		h -= w * math.Log2(w)
	}
	return h
}

// Combine sets out <- alpha*a + beta*b pointwise, across all three
// PMFs' shared alphabet. out may alias a or b. The codebook generator
// does its own weighted sums with AddAt and does not call Combine.
func Combine(a, b *PMF, alpha, beta float64, out *PMF) {
	for i := range out.weights {
		out.weights[i] = alpha*a.weights[i] + beta*b.weights[i]
	}
}

// MarkReady marks a PMF as ready without renormalizing, used when the
// caller has already produced normalized weights directly (column
// propagation builds weights that are mathematically guaranteed to sum
// to 1 given ready inputs, so re-summing would only add floating-point
// noise — but Renormalize remains safe to call and is used wherever
// that guarantee doesn't hold, e.g. after Combine with arbitrary
// coefficients).
func (p *PMF) MarkReady() {
	p.ready = true
}
