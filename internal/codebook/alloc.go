package codebook

import "math"

// AllocateStates converts a target entropy in bits into a concrete
// pair of quantizer state counts (lo, hi) and a mixing ratio: lo is
// the largest integer not exceeding 2^entropyBits, hi is the smallest
// integer not below it, and ratio is how much of the time lo should
// be selected so that the expected coding rate over many draws lands
// on entropyBits.
//
// Grounded on qvz's find_states: lo=floor(2^H), hi=ceil(2^H), and
// ratio solves H = ratio*log2(lo) + (1-ratio)*log2(hi). A zero or
// negative entropy (a degenerate, untrained context) collapses to a
// single state with ratio 1, matching find_states's own guard for H<=0.
func AllocateStates(entropyBits float64) (lo, hi int, ratio float64) {
	if entropyBits <= 0 {
		return 1, 1, 1.0
	}

	pow := math.Pow(2, entropyBits)
	lo = int(math.Floor(pow))
	if lo < 1 {
		lo = 1
	}
	hi = int(math.Ceil(pow))
	if hi < 1 {
		hi = 1
	}
	if lo == hi {
		return lo, hi, 1.0
	}

	logLo := math.Log2(float64(lo))
	logHi := math.Log2(float64(hi))
	r := (entropyBits - logHi) / (logLo - logHi)
	if r < 0 {
		r = 0
	} else if r > 1 {
		r = 1
	}
	return lo, hi, r
}
