// Package well implements the WELL-1024a pseudo-random number
// generator, the fixed 32-bit-output generator the quantizer selector
// uses so an encoder and decoder seeded identically make the same
// sequence of lo/hi quantizer choices.
//
// WELL-1024a (Panneton, L'Ecuyer, Matsumoto, "Improved Long-Period
// Generators Based on Linear Recurrences Modulo 2", 2006) keeps 1024
// bits of state in 32 words and produces one 32-bit output per step
// via a fixed tempering recurrence. It is not cryptographically
// secure; it exists purely so two independent processes holding the
// same seed produce the identical selection stream the codebook
// format requires (spec: encoder/decoder determinism).
package well

const stateWords = 32

// State is one WELL-1024a generator instance. The zero value is not
// seeded; use Seed or NewSeeded.
type State struct {
	state [stateWords]uint32
	index int
}

// NewSeeded returns a State seeded from seed, expanded into the full
// 1024-bit state with a small xorshift mixer. Deterministic: the same
// seed always produces the same State and the same output sequence.
func NewSeeded(seed uint32) *State {
	s := &State{}
	s.Seed(seed)
	return s
}

// Seed resets the generator's state deterministically from seed. Used
// by both encoder and decoder so they start from the same point.
func (s *State) Seed(seed uint32) {
	x := seed
	if x == 0 {
		// An all-zero WELL state never produces anything but zero;
		// fall back to a fixed nonzero constant the way splitmix-style
		// seed expanders avoid the degenerate all-zero orbit.
		x = 0x9E3779B9
	}
	for i := 0; i < stateWords; i++ {
		// splitmix32: cheap, deterministic state expansion from a
		// single 32-bit seed into enough bits to fill the 1024-bit
		// WELL state with no discernible structure between words.
		x += 0x9E3779B9
		z := x
		z = (z ^ (z >> 16)) * 0x85EBCA6B
		z = (z ^ (z >> 13)) * 0xC2B2AE35
		z = z ^ (z >> 16)
		s.state[i] = z
	}
	s.index = 0
}

// Next returns the next 32-bit output from the generator, advancing
// its state.
func (s *State) Next() uint32 {
	idx := s.index
	m1 := (idx + 3) & 31
	m2 := (idx + 24) & 31
	m3 := (idx + 10) & 31

	z0 := s.state[(idx+31)&31]
	z1 := s.state[idx] ^ mat0pos(8, s.state[m1])
	z2 := mat0neg(19, s.state[m2]) ^ mat0neg(14, s.state[m3])

	newV1 := z1 ^ z2
	s.state[idx] = newV1
	newIdx := (idx + 31) & 31
	s.state[newIdx] = mat0neg(11, z0) ^ mat0neg(7, newV1) ^ mat0neg(13, z2)
	s.index = newIdx

	return s.state[newIdx]
}

// Float64 returns the next output normalized to [0,1), i.e.
// Next()/2^32, the quantity the spec's selection rule compares against
// a mixing ratio.
func (s *State) Float64() float64 {
	return float64(s.Next()) / 4294967296.0
}

// mat0pos and mat0neg are the WELL generator's named "M3" transform
// matrices for positive and negative shift amounts, as defined in the
// reference WELL-1024a recurrence.
func mat0pos(t int, v uint32) uint32 {
	return v ^ (v >> uint(t))
}

func mat0neg(t int, v uint32) uint32 {
	return v ^ (v << uint(t))
}
