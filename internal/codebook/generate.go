package codebook

import (
	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/distortion"
	"github.com/qvzgo/qvcodebook/internal/pmf"
	"github.com/qvzgo/qvcodebook/internal/quantizer"
	"github.com/qvzgo/qvcodebook/internal/well"
)

// Generate fits a codebook Family to training under distortion metric
// dist, at compression ratio comp (0 trains toward maximum compression,
// 1 toward none — it scales each column's target entropy before
// AllocateStates converts it into a state count).
//
// Columns are built left to right. Column 0's quantizer pair is
// designed directly under the unconditional P(X0). Every later column
// needs, for each context symbol u in its context alphabet (the union
// of the previous column's quantizer outputs), the distribution
// xpmf[u] = P(Xⱼ | Qⱼ₋₁=u) to design against; that in turn needs
// P(Qⱼ₋₁=u | Xⱼ₋₁=k) for every raw symbol k, which column 1 can read
// straight off column 0's quantizer pair, but column 2 onward must
// derive by propagating the previous column's own P(Qⱼ₋₂=·|Xⱼ₋₂=·)
// forward through this column's conditional PMF and marginal — the
// same three-way column-0/column-1/column>=2 split qvz's
// generate_codebooks uses, because the general recursive formula reads
// marginal_pmfs[column-2], which doesn't exist before column 2.
func Generate(training *TrainingSample, dist *distortion.Table, comp float64) (*Family, error) {
	if comp < 0 || comp > 1 {
		return nil, ErrInvalidConfig
	}
	store, err := CalculateStatistics(training)
	if err != nil {
		return nil, err
	}

	a := training.Alphabet
	size := a.Size()
	columns := training.Columns

	family := &Family{
		columns: make([]columnEntry, columns),
		rng:     well.NewSeeded(DefaultSeed),
	}

	// Column 0: a single dummy context, designed against P(X0) directly.
	u0 := alphabet.New([]alphabet.Symbol{0})
	p0 := store.At(0, 0)
	h0 := p0.MustEntropy() * comp
	lo0States, hi0States, ratio0 := AllocateStates(h0)
	qLo0, err := quantizer.Design(p0, dist, lo0States, ratio0)
	if err != nil {
		return nil, err
	}
	qHi0, err := quantizer.Design(p0, dist, hi0States, 1-ratio0)
	if err != nil {
		return nil, err
	}
	family.columns[0] = columnEntry{
		context: u0,
		lo:      []*quantizer.Quantizer{qLo0},
		hi:      []*quantizer.Quantizer{qHi0},
		ratio:   []float64{ratio0},
	}

	if columns == 1 {
		return family, nil
	}

	// qpmfPrev[k] = P(Q0=u0's single context | X(-1)=k), trivially
	// certain: there is no column -1, so the dummy context is always
	// in force.
	qpmfPrev := make([]*pmf.PMF, size)
	for k := range qpmfPrev {
		p := pmf.New(u0)
		p.SetAt(0, 1.0)
		p.MarkReady()
		qpmfPrev[k] = p
	}
	uPrev := u0

	for col := 1; col < columns; col++ {
		prevEntry := family.columns[col-1]

		outputs := make([]*alphabet.Alphabet, 0, len(prevEntry.lo)*2)
		for i := range prevEntry.lo {
			outputs = append(outputs, prevEntry.lo[i].Output, prevEntry.hi[i].Output)
		}
		uCol := alphabet.UnionAll(outputs)

		qpmfCol := make([]*pmf.PMF, size)
		for k := range qpmfCol {
			qpmfCol[k] = pmf.New(uCol)
		}

		if col == 1 {
			computeQPMFFromPair(qLo0, qHi0, ratio0, uCol, qpmfCol)
		} else {
			computeQPMFGeneral(store, col, qpmfPrev, uPrev, prevEntry, uCol, qpmfCol, store.Marginal(col-2))
		}
		for _, p := range qpmfCol {
			p.Renormalize()
		}

		xpmf := computeXPMF(store, col, a, uCol, qpmfCol, store.Marginal(col-1))

		los := make([]*quantizer.Quantizer, uCol.Size())
		his := make([]*quantizer.Quantizer, uCol.Size())
		ratios := make([]float64, uCol.Size())
		for u := 0; u < uCol.Size(); u++ {
			h := xpmf[u].MustEntropy() * comp
			loStates, hiStates, ratio := AllocateStates(h)
			qlo, err := quantizer.Design(xpmf[u], dist, loStates, ratio)
			if err != nil {
				return nil, err
			}
			qhi, err := quantizer.Design(xpmf[u], dist, hiStates, 1-ratio)
			if err != nil {
				return nil, err
			}
			los[u] = qlo
			his[u] = qhi
			ratios[u] = ratio
		}
		family.columns[col] = columnEntry{context: uCol, lo: los, hi: his, ratio: ratios}

		qpmfPrev = qpmfCol
		uPrev = uCol
	}

	return family, nil
}

// computeQPMFFromPair fills qpmfCol[k] = P(Q0=u|X0=k) directly from
// column 0's lo/hi quantizer pair and ratio: the column-1 special case,
// where there is exactly one context (the dummy {0}), so no marginal
// weighting over contexts is needed. Mirrors qvz's
// compute_qpmf_quan_list.
func computeQPMFFromPair(lo, hi *quantizer.Quantizer, ratio float64, uCol *alphabet.Alphabet, qpmfCol []*pmf.PMF) {
	for k := 0; k < len(qpmfCol); k++ {
		if loOut := uCol.IndexOf(lo.Q[k]); loOut != alphabet.NotFound {
			qpmfCol[k].AddAt(int(loOut), ratio)
		}
		if hiOut := uCol.IndexOf(hi.Q[k]); hiOut != alphabet.NotFound {
			qpmfCol[k].AddAt(int(hiOut), 1-ratio)
		}
	}
}

// computeQPMFGeneral fills qpmfCol[k] = P(Qcol-1=u | Xcol-1=k) for
// column col>=2, by marginalizing over the previous column's context v
// (itself distributed according to qpmfPrev, the equivalent quantity
// one column further back) the joint P(Xcol-1=k, Qcol-2=v) derived from
// the conditional PMF at column col-1 and the marginal at column col-2,
// then mixing in column col-1's own lo/hi quantizers for that context.
// Mirrors qvz's compute_qpmf_list.
func computeQPMFGeneral(store *CondPMFStore, col int, qpmfPrev []*pmf.PMF, uPrev *alphabet.Alphabet, prevEntry columnEntry, uCol *alphabet.Alphabet, qpmfCol []*pmf.PMF, marginalColMinus2 *pmf.PMF) {
	size := store.Alphabet().Size()
	inner := make([]float64, size)

	for vIdx := 0; vIdx < uPrev.Size(); vIdx++ {
		lo := prevEntry.lo[vIdx]
		hi := prevEntry.hi[vIdx]
		ratio := prevEntry.ratio[vIdx]

		for i := range inner {
			inner[i] = 0
		}
		for x := 0; x < size; x++ {
			weight := qpmfPrev[x].ProbabilityAt(vIdx) * marginalColMinus2.ProbabilityAt(x)
			if weight == 0 {
				continue
			}
			cond := store.at(col-1, x)
			for k := 0; k < size; k++ {
				inner[k] += weight * cond.ProbabilityAt(k)
			}
		}

		for k := 0; k < size; k++ {
			if inner[k] == 0 {
				continue
			}
			if loOut := uCol.IndexOf(lo.Q[k]); loOut != alphabet.NotFound {
				qpmfCol[k].AddAt(int(loOut), inner[k]*ratio)
			}
			if hiOut := uCol.IndexOf(hi.Q[k]); hiOut != alphabet.NotFound {
				qpmfCol[k].AddAt(int(hiOut), inner[k]*(1-ratio))
			}
		}
	}
}

// computeXPMF derives, for each context symbol u in uCol, the
// distribution xpmf[u] = P(Xcol=x | Qcol-1=u) the column's quantizer
// pair is designed against, from qpmfCol (P(Qcol-1=u|Xcol-1=k)), the
// conditional PMF at col, and column col-1's marginal. Mirrors qvz's
// compute_xpmf_list.
func computeXPMF(store *CondPMFStore, col int, a *alphabet.Alphabet, uCol *alphabet.Alphabet, qpmfCol []*pmf.PMF, marginalColMinus1 *pmf.PMF) []*pmf.PMF {
	size := a.Size()
	xpmf := make([]*pmf.PMF, uCol.Size())
	for i := range xpmf {
		xpmf[i] = pmf.New(a)
	}

	for k := 0; k < size; k++ {
		weight := marginalColMinus1.ProbabilityAt(k)
		if weight == 0 {
			continue
		}
		cond := store.at(col, k)
		for u := 0; u < uCol.Size(); u++ {
			qku := qpmfCol[k].ProbabilityAt(u)
			if qku == 0 {
				continue
			}
			coeff := weight * qku
			for x := 0; x < size; x++ {
				xpmf[u].AddAt(x, coeff*cond.ProbabilityAt(x))
			}
		}
	}
	for _, p := range xpmf {
		p.Renormalize()
	}
	return xpmf
}
