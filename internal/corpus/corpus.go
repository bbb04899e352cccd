// Package corpus defines the training-data contract the codebook core
// reads (spec.md §6: a block-list of fixed-width symbol lines plus the
// global columns/alphabet it was drawn from) and a synthetic generator
// used to build property-test fixtures without needing a real quality
// file on disk. The real line loader that turns a quality-value file
// into a Corpus is outside this repo's scope (spec.md §1); only the
// shape it hands the core, and a way to fabricate one, live here.
package corpus

import (
	"math/rand/v2"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/codebook"
)

// Corpus is the loaded training data the codebook core consumes:
// Lines symbol rows, all of length Columns, drawn from Alphabet.
type Corpus struct {
	Alphabet *alphabet.Alphabet
	Columns  int
	Lines    [][]alphabet.Symbol
}

// TrainingSample adapts a Corpus to codebook.CalculateStatistics's
// input type. The two are structurally identical; this exists so the
// core package doesn't need to import a test-only package and callers
// on the loader side don't need to import the core's internals.
func (c *Corpus) TrainingSample() *codebook.TrainingSample {
	return &codebook.TrainingSample{
		Alphabet: c.Alphabet,
		Columns:  c.Columns,
		Lines:    c.Lines,
	}
}

// Cap returns a copy of c truncated to at most n lines (the CLI's -t
// training-sample-cap flag; 0 means no cap, matching qvz's default of
// "0 = all").
func (c *Corpus) Cap(n int) *Corpus {
	if n <= 0 || n >= len(c.Lines) {
		return c
	}
	return &Corpus{Alphabet: c.Alphabet, Columns: c.Columns, Lines: c.Lines[:n]}
}

// GenerateMarkov synthesizes a Corpus of n lines over alphabet size
// size and width columns, where each column is drawn from a first-
// order Markov chain with transition skew biasTowardPrev (0 = uniform
// transitions, closer to 1 = strongly prefers repeating the previous
// column's symbol). This produces the kind of column-to-column
// correlation real quality-value streams have — enough structure for
// the conditional-PMF machinery to have something nontrivial to
// condition on — without needing a real corpus file. Uses
// math/rand/v2 only, per SPEC_FULL.md §B: the generator's own
// WELL-1024a PRNG is the thing under test and must never be used to
// fabricate its own test data.
func GenerateMarkov(rng *rand.Rand, size, columns, n int, biasTowardPrev float64) *Corpus {
	a := alphabet.Range(size)
	lines := make([][]alphabet.Symbol, n)
	for i := range lines {
		row := make([]alphabet.Symbol, columns)
		row[0] = alphabet.Symbol(rng.IntN(size))
		for c := 1; c < columns; c++ {
			if rng.Float64() < biasTowardPrev {
				row[c] = row[c-1]
			} else {
				row[c] = alphabet.Symbol(rng.IntN(size))
			}
		}
		lines[i] = row
	}
	return &Corpus{Alphabet: a, Columns: columns, Lines: lines}
}
