// Package alphabet implements the finite ordered symbol sets that every
// other layer of the codebook core is indexed by.
package alphabet

import "sort"

// Symbol is a quality-value symbol. The format caps alphabets well
// under 256 entries, but columns and context indices want a little
// more headroom, so the raw value itself is kept wide.
type Symbol uint16

// NotFound is returned by IndexOf when the symbol is absent.
const NotFound = ^uint32(0)

// Alphabet is an ordered, duplicate-free sequence of symbols with an
// O(1) inverse lookup. The zero value is not usable; build one with
// New or Union.
type Alphabet struct {
	symbols []Symbol
	index   map[Symbol]uint32
}

// New builds an Alphabet from symbols, which must already be sorted in
// ascending order and duplicate-free. Callers that can't guarantee
// that should use Union or Sorted instead.
func New(symbols []Symbol) *Alphabet {
	a := &Alphabet{
		symbols: append([]Symbol(nil), symbols...),
		index:   make(map[Symbol]uint32, len(symbols)),
	}
	for i, s := range a.symbols {
		a.index[s] = uint32(i)
	}
	return a
}

// Sorted builds an Alphabet from an arbitrary set of symbols, sorting
// and deduplicating them first.
func Sorted(symbols []Symbol) *Alphabet {
	seen := make(map[Symbol]struct{}, len(symbols))
	uniq := make([]Symbol, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		uniq = append(uniq, s)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	return New(uniq)
}

// Range builds the alphabet {0, 1, ..., size-1}.
func Range(size int) *Alphabet {
	symbols := make([]Symbol, size)
	for i := range symbols {
		symbols[i] = Symbol(i)
	}
	return New(symbols)
}

// Size returns the number of symbols in the alphabet.
func (a *Alphabet) Size() int {
	return len(a.symbols)
}

// At returns the symbol at index i.
func (a *Alphabet) At(i int) Symbol {
	return a.symbols[i]
}

// Symbols returns the alphabet's symbols in ascending order. The
// returned slice must not be mutated.
func (a *Alphabet) Symbols() []Symbol {
	return a.symbols
}

// IndexOf returns the index of sym within the alphabet, or NotFound.
func (a *Alphabet) IndexOf(sym Symbol) uint32 {
	if idx, ok := a.index[sym]; ok {
		return idx
	}
	return NotFound
}

// Contains reports whether sym is a member of the alphabet.
func (a *Alphabet) Contains(sym Symbol) bool {
	return a.IndexOf(sym) != NotFound
}

// Union returns the ascending-order union of two alphabets.
func Union(a, b *Alphabet) *Alphabet {
	merged := make([]Symbol, 0, a.Size()+b.Size())
	merged = append(merged, a.symbols...)
	merged = append(merged, b.symbols...)
	return Sorted(merged)
}

// UnionAll returns the ascending-order union of all given alphabets.
// It panics if alphabets is empty.
func UnionAll(alphabets []*Alphabet) *Alphabet {
	if len(alphabets) == 0 {
		panic("alphabet: UnionAll of no alphabets")
	}
	union := alphabets[0]
	for _, a := range alphabets[1:] {
		union = Union(union, a)
	}
	return union
}
