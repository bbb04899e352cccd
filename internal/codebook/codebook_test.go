package codebook

import (
	"math"
	"testing"

	"github.com/qvzgo/qvcodebook/internal/alphabet"
	"github.com/qvzgo/qvcodebook/internal/distortion"
)

func constantTraining(columns, lines int, a *alphabet.Alphabet, value alphabet.Symbol) *TrainingSample {
	rows := make([][]alphabet.Symbol, lines)
	for i := range rows {
		row := make([]alphabet.Symbol, columns)
		for c := range row {
			row[c] = value
		}
		rows[i] = row
	}
	return &TrainingSample{Alphabet: a, Columns: columns, Lines: rows}
}

func mixedTraining(columns, linesPerSymbol int, a *alphabet.Alphabet) *TrainingSample {
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
	return &TrainingSample{Alphabet: a, Columns: columns, Lines: rows}
}

func TestCalculateStatisticsEmptyTrainingIsError(t *testing.T) {
	a := alphabet.Range(4)
	sample := &TrainingSample{Alphabet: a, Columns: 3, Lines: nil}
	if _, err := CalculateStatistics(sample); err != ErrEmptyTraining {
		t.Fatalf("got %v, want ErrEmptyTraining", err)
	}
}

func TestCalculateStatisticsColumnMismatch(t *testing.T) {
	a := alphabet.Range(4)
	sample := &TrainingSample{
		Alphabet: a,
		Columns:  3,
		Lines:    [][]alphabet.Symbol{{0, 1}},
	}
	if _, err := CalculateStatistics(sample); err == nil {
		t.Fatal("expected error for short training line")
	}
}

func TestCalculateStatisticsMarginalsSumToOne(t *testing.T) {
	a := alphabet.Range(8)
	sample := mixedTraining(4, 20, a)
	store, err := CalculateStatistics(sample)
	if err != nil {
		t.Fatal(err)
	}
	for col := 0; col < sample.Columns; col++ {
		var sum float64
		m := store.Marginal(col)
		for i := 0; i < a.Size(); i++ {
			sum += m.ProbabilityAt(i)
		}
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("column %d marginal sums to %f, want 1", col, sum)
		}
	}
}

func TestCalculateStatisticsConstantColumnIsDegenerate(t *testing.T) {
	a := alphabet.Range(4)
	sample := constantTraining(3, 10, a, 2)
	store, err := CalculateStatistics(sample)
	if err != nil {
		t.Fatal(err)
	}
	if h := store.At(0, 0).MustEntropy(); h != 0 {
		t.Errorf("constant column entropy = %f, want 0", h)
	}
}

func TestAllocateStatesZeroEntropyCollapses(t *testing.T) {
	lo, hi, ratio := AllocateStates(0)
	if lo != 1 || hi != 1 || ratio != 1 {
		t.Errorf("AllocateStates(0) = (%d,%d,%f), want (1,1,1)", lo, hi, ratio)
	}
}

func TestAllocateStatesExactPowerOfTwo(t *testing.T) {
	lo, hi, ratio := AllocateStates(3) // 2^3 = 8 exactly
	if lo != 8 || hi != 8 || ratio != 1 {
		t.Errorf("AllocateStates(3) = (%d,%d,%f), want (8,8,1)", lo, hi, ratio)
	}
}

func TestAllocateStatesBetweenPowers(t *testing.T) {
	lo, hi, ratio := AllocateStates(2.5)
	if lo != 5 || hi != 6 {
		t.Fatalf("AllocateStates(2.5) lo,hi = %d,%d, want 5,6", lo, hi)
	}
	if ratio < 0 || ratio > 1 {
		t.Errorf("ratio = %f, want in [0,1]", ratio)
	}
	// Recovered entropy should reproduce 2.5 within floating tolerance.
	recovered := ratio*math.Log2(float64(lo)) + (1-ratio)*math.Log2(float64(hi))
	if math.Abs(recovered-2.5) > 1e-9 {
		t.Errorf("recovered entropy = %f, want 2.5", recovered)
	}
}

func TestGenerateSingleColumn(t *testing.T) {
	a := alphabet.Range(8)
	sample := mixedTraining(1, 20, a)
	dist, _ := distortion.Build(8, distortion.MSE)
	family, err := Generate(sample, dist, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if family.Columns() != 1 {
		t.Fatalf("Columns() = %d, want 1", family.Columns())
	}
}

func TestGenerateContextAlphabetsAreSubsetsOfTrainingAlphabet(t *testing.T) {
	a := alphabet.Range(16)
	sample := mixedTraining(4, 30, a)
	dist, _ := distortion.Build(16, distortion.MSE)
	family, err := Generate(sample, dist, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	for col := 0; col < family.Columns(); col++ {
		ctx := family.ContextAlphabet(col)
		for i := 0; i < ctx.Size(); i++ {
			if col > 0 && !a.Contains(ctx.At(i)) {
				t.Errorf("column %d context symbol %d not in training alphabet", col, ctx.At(i))
			}
		}
	}
}

func TestGenerateRatiosInUnitInterval(t *testing.T) {
	a := alphabet.Range(10)
	sample := mixedTraining(3, 25, a)
	dist, _ := distortion.Build(10, distortion.MSE)
	family, err := Generate(sample, dist, 0.7)
	if err != nil {
		t.Fatal(err)
	}
	for col := 0; col < family.Columns(); col++ {
		ctx := family.ContextAlphabet(col)
		for i := 0; i < ctx.Size(); i++ {
			r := family.Ratio(col, ctx.At(i))
			if r < 0 || r > 1 {
				t.Errorf("column %d context %d: ratio = %f, out of [0,1]", col, i, r)
			}
		}
	}
}

func TestGenerateInvalidCompIsError(t *testing.T) {
	a := alphabet.Range(4)
	sample := constantTraining(2, 5, a, 0)
	dist, _ := distortion.Build(4, distortion.MSE)
	if _, err := Generate(sample, dist, 1.5); err == nil {
		t.Fatal("expected error for comp > 1")
	}
	if _, err := Generate(sample, dist, -0.1); err == nil {
		t.Fatal("expected error for comp < 0")
	}
}

func TestFamilySelectDeterministicForSameSeed(t *testing.T) {
	a := alphabet.Range(6)
	sample := mixedTraining(3, 15, a)
	dist, _ := distortion.Build(6, distortion.MSE)

	f1, err := Generate(sample, dist, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	f2, err := Generate(sample, dist, 0.6)
	if err != nil {
		t.Fatal(err)
	}
	f1.Seed(99)
	f2.Seed(99)

	ctx := f1.ContextAlphabet(1).At(0)
	for i := 0; i < 20; i++ {
		q1, err := f1.Select(1, ctx)
		if err != nil {
			t.Fatal(err)
		}
		q2, err := f2.Select(1, ctx)
		if err != nil {
			t.Fatal(err)
		}
		if q1.Ratio != q2.Ratio {
			t.Fatalf("draw %d: selections diverge (ratio %f vs %f)", i, q1.Ratio, q2.Ratio)
		}
	}
}

func TestFamilySelectUnknownContextIsError(t *testing.T) {
	a := alphabet.Range(4)
	sample := mixedTraining(2, 10, a)
	dist, _ := distortion.Build(4, distortion.MSE)
	family, err := Generate(sample, dist, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := family.Select(1, alphabet.Symbol(9999)); err == nil {
		t.Fatal("expected error for unknown context symbol")
	}
}

func TestGenerateDegenerateContextYieldsSingleState(t *testing.T) {
	// A constant stream means every later column's context alphabet
	// collapses and its xpmf is a point mass, so entropy is zero and
	// the allocator must still produce a usable (lo=hi=1) quantizer.
	a := alphabet.Range(4)
	sample := constantTraining(4, 10, a, 1)
	dist, _ := distortion.Build(4, distortion.MSE)
	family, err := Generate(sample, dist, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	for col := 1; col < family.Columns(); col++ {
		ctx := family.ContextAlphabet(col)
		for i := 0; i < ctx.Size(); i++ {
			lo := family.Lo(col, ctx.At(i))
			if lo.Output.Size() != 1 {
				t.Errorf("column %d context %d: lo output size = %d, want 1", col, i, lo.Output.Size())
			}
		}
	}
}
