// Package quantizer designs rate-distortion-optimal scalar quantizers:
// deterministic maps from an input alphabet to a smaller output
// alphabet, chosen to minimize expected distortion under a given PMF
// and a fixed number of output states.
package quantizer

import (
	"errors"
	"fmt"
	"math"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/distortion"
	"github.com/qvzgo/qvcodebook/internal/pmf"
)

// ErrInvalidStates is returned by Design when states is zero.
var ErrInvalidStates = errors.New("quantizer: states must be at least 1")

// Quantizer is a deterministic map from an input alphabet to an output
// alphabet that is a subset of it, chosen by Design to minimize
// expected distortion under some PMF.
type Quantizer struct {
	Input  *alphabet.Alphabet
	Output *alphabet.Alphabet

	// Q[x] is the input-alphabet index's reproduction symbol. Its
	// length equals Input.Size().
	Q []alphabet.Symbol

	// Ratio is the mixing probability this quantizer was designed
	// with (the caller-supplied weight of this quantizer within a
	// lo/hi pair); it rides along on the struct because
	// cond_quantizer_list_t in qvz stores it per quantizer and
	// derives the per-context mixing ratio from the lo quantizer's
	// Ratio field (codebook.c: store_cond_quantizers sets
	// list->ratio[column][idx] = lo->ratio).
	Ratio float64

	// MSE is the expected distortion achieved by this quantizer
	// under the PMF it was designed against, Sum_x P(x)*D[x,Q[x]].
	// The name is historical (the original tool always called this
	// field mse even for non-MSE metrics); it is the expected cost
	// under whichever distortion.Metric was used.
	MSE float64
}

// OutputIndex returns the compact state code for value: the index of
// its reproduction symbol within the output alphabet. This is the
// value the (out-of-scope) entropy coder consumes.
func (q *Quantizer) OutputIndex(value alphabet.Symbol) uint32 {
	idx := q.Input.IndexOf(value)
	if idx == alphabet.NotFound {
		return alphabet.NotFound
	}
	return q.Output.IndexOf(q.Q[idx])
}

// Apply returns the reproduction symbol for an input-alphabet index.
func (q *Quantizer) Apply(inputIndex int) alphabet.Symbol {
	return q.Q[inputIndex]
}

// Design builds the states-level scalar quantizer over p's alphabet
// that minimizes Sum_x p(x)*dist[x, Q(x)], subject to the output
// alphabet being a states-sized, ascending, contiguous partition of
// the input alphabet (each partition maps to one representative
// symbol). p must be a ready PMF.
//
// This is the classical Lloyd-style dynamic program over contiguous
// partitions: cost(i, k) is the minimal total distortion for indices
// [0,i) using k partitions, computed from within-partition costs
// precomputed for every candidate [a,b) range.
//
// states >= Input.Size() degenerates to the identity map. states == 1
// collapses every input to the single representative minimizing
// Sum_x p(x)*dist[x,*]. states == 0 is invalid.
func Design(p *pmf.PMF, dist *distortion.Table, states int, ratio float64) (*Quantizer, error) {
	if states <= 0 {
		return nil, ErrInvalidStates
	}
	in := p.Alphabet()
	n := in.Size()

	if states >= n {
		return identity(in, ratio), nil
	}

	// For each candidate representative rep, prefix[rep][i] = the
	// cost of reproducing indices [0,i) as rep, Sum_{x<i} p(x)*D[x,rep].
	// This turns the within-partition cost for representative rep
	// over any range [a,b) into one subtraction, so scanning every
	// candidate representative for every range costs O(n) instead of
	// O(n^2).
	prefix := make([][]float64, n)
	for rep := 0; rep < n; rep++ {
		prefix[rep] = make([]float64, n+1)
		for i := 0; i < n; i++ {
			prefix[rep][i+1] = prefix[rep][i] + p.ProbabilityAt(i)*dist.Cost(i, rep)
		}
	}

	// partitionCost[a][b] = cost of collapsing indices [a,b) to their
	// single best representative, and partitionRep[a][b] = that
	// representative's index.
	partitionCost := make([][]float64, n+1)
	partitionRep := make([][]int, n+1)
	for a := 0; a <= n; a++ {
		partitionCost[a] = make([]float64, n+1)
		partitionRep[a] = make([]int, n+1)
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b <= n; b++ {
			bestCost := math.Inf(1)
			bestRep := a
			for rep := a; rep < b; rep++ {
				cost := prefix[rep][b] - prefix[rep][a]
				if cost < bestCost {
					bestCost = cost
					bestRep = rep
				}
			}
			partitionCost[a][b] = bestCost
			partitionRep[a][b] = bestRep
		}
	}

	if states == 1 {
		return fromPartitions(in, p, dist, []int{0, n}, []int{partitionRep[0][n]}, ratio), nil
	}

	// dp[k][i] = minimal cost of covering [0,i) with exactly k
	// contiguous partitions; choice[k][i] = the split point of the
	// last partition.
	const inf = math.MaxFloat64
	dp := make([][]float64, states+1)
	choice := make([][]int, states+1)
	for k := 0; k <= states; k++ {
		dp[k] = make([]float64, n+1)
		choice[k] = make([]int, n+1)
		for i := range dp[k] {
			dp[k][i] = inf
		}
	}
	dp[0][0] = 0
	for k := 1; k <= states; k++ {
		for i := 1; i <= n; i++ {
			for j := 0; j < i; j++ {
				if dp[k-1][j] == inf {
					continue
				}
				cost := dp[k-1][j] + partitionCost[j][i]
				if cost < dp[k][i] {
					dp[k][i] = cost
					choice[k][i] = j
				}
			}
		}
	}

	if dp[states][n] == inf {
		return nil, fmt.Errorf("quantizer: no feasible %d-state partition of %d-symbol alphabet", states, n)
	}

	// Walk the choice table backwards to recover partition boundaries.
	bounds := make([]int, states+1)
	bounds[states] = n
	i := n
	for k := states; k > 0; k-- {
		j := choice[k][i]
		bounds[k-1] = j
		i = j
	}

	reps := make([]int, states)
	for k := 0; k < states; k++ {
		reps[k] = partitionRep[bounds[k]][bounds[k+1]]
	}

	return fromPartitions(in, p, dist, bounds, reps, ratio), nil
}

// fromPartitions builds the Quantizer struct from partition
// boundaries (length states+1, ascending, bounds[0]=0, bounds[states]=n)
// and their representative indices.
func fromPartitions(in *alphabet.Alphabet, p *pmf.PMF, dist *distortion.Table, bounds, reps []int, ratio float64) *Quantizer {
	n := in.Size()
	q := make([]alphabet.Symbol, n)
	outSymbols := make([]alphabet.Symbol, len(reps))
	for k, rep := range reps {
		outSymbols[k] = in.At(rep)
	}
	out := alphabet.New(outSymbols)

	var mse float64
	for k := 0; k < len(reps); k++ {
		for x := bounds[k]; x < bounds[k+1]; x++ {
			q[x] = in.At(reps[k])
			mse += p.ProbabilityAt(x) * dist.Cost(x, reps[k])
		}
	}

	return &Quantizer{Input: in, Output: out, Q: q, Ratio: ratio, MSE: mse}
}

// identity returns the quantizer mapping every input symbol to
// itself, used when the requested state count meets or exceeds the
// input alphabet's size.
func identity(in *alphabet.Alphabet, ratio float64) *Quantizer {
	q := make([]alphabet.Symbol, in.Size())
	for i := range q {
		q[i] = in.At(i)
	}
	return &Quantizer{
		Input:  in,
		Output: alphabet.New(append([]alphabet.Symbol(nil), in.Symbols()...)),
		Q:      q,
		Ratio:  ratio,
		MSE:    0,
	}
}
