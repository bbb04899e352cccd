// Package distortion builds the precomputed symbol-by-symbol cost
// matrices the quantizer designer minimizes expected distortion
// against.
package distortion

import (
	"fmt"
	"math"
)

// Metric selects the per-symbol-pair cost function.
type Metric int

const (
	// MSE costs reproduction by squared error: |i-j|^2.
	MSE Metric = iota
	// Manhattan costs reproduction by absolute error: |i-j|.
	Manhattan
	// Lorentz costs reproduction by log(1+|i-j|), a heavier
	// discount on small errors than Manhattan and a lighter
	// penalty on large ones than MSE.
	Lorentz
)

// String returns the metric's name ("MSE", "Manhattan", "Lorentz").
// The CLI's -d flag letters for them are M, A and L.
func (m Metric) String() string {
	switch m {
	case MSE:
		return "MSE"
	case Manhattan:
		return "Manhattan"
	case Lorentz:
		return "Lorentz"
	default:
		return "Unknown"
	}
}

// Table is a size x size distortion matrix: Table.Cost(i, j) is the
// cost of reproducing symbol-index i as symbol-index j. It is
// symmetric and zero on the diagonal for every metric defined here.
type Table struct {
	size   int
	values []float64
}

// Build constructs the distortion table for an alphabet of the given
// size under metric. size must be positive.
func Build(size int, metric Metric) (*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("distortion: size must be positive, got %d", size)
	}
	t := &Table{size: size, values: make([]float64, size*size)}
	cost := costFunc(metric)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			t.values[i*size+j] = cost(i, j)
		}
	}
	return t, nil
}

// Size returns the alphabet size the table was built for.
func (t *Table) Size() int {
	return t.size
}

// Cost returns the cost of reproducing index i as index j.
func (t *Table) Cost(i, j int) float64 {
	return t.values[i*t.size+j]
}

func costFunc(metric Metric) func(i, j int) float64 {
	switch metric {
	case Manhattan:
		return func(i, j int) float64 { return math.Abs(float64(i - j)) }
	case Lorentz:
		return func(i, j int) float64 { return math.Log(1 + math.Abs(float64(i-j))) }
	case MSE:
		fallthrough
	default:
		return func(i, j int) float64 {
			d := float64(i - j)
			return d * d
		}
	}
}
