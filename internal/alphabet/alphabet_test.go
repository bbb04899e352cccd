package alphabet

import "testing"

func TestRangeIndexOf(t *testing.T) {
	a := Range(5)
	if a.Size() != 5 {
		t.Fatalf("Size() = %d, want 5", a.Size())
	}
	for i := 0; i < 5; i++ {
		if a.At(i) != Symbol(i) {
			t.Errorf("At(%d) = %d, want %d", i, a.At(i), i)
		}
		if idx := a.IndexOf(Symbol(i)); idx != uint32(i) {
			t.Errorf("IndexOf(%d) = %d, want %d", i, idx, i)
		}
	}
	if idx := a.IndexOf(Symbol(99)); idx != NotFound {
		t.Errorf("IndexOf(99) = %d, want NotFound", idx)
	}
}

func TestContains(t *testing.T) {
	a := New([]Symbol{2, 4, 6})
	tests := []struct {
		sym  Symbol
		want bool
	}{
		{2, true}, {4, true}, {6, true}, {3, false}, {0, false},
	}
	for _, tt := range tests {
		if got := a.Contains(tt.sym); got != tt.want {
			t.Errorf("Contains(%d) = %v, want %v", tt.sym, got, tt.want)
		}
	}
}

func TestUnion(t *testing.T) {
	a := New([]Symbol{0, 2, 4})
	b := New([]Symbol{1, 2, 5})
	u := Union(a, b)

	want := []Symbol{0, 1, 2, 4, 5}
	if u.Size() != len(want) {
		t.Fatalf("Union size = %d, want %d", u.Size(), len(want))
	}
	for i, w := range want {
		if u.At(i) != w {
			t.Errorf("Union.At(%d) = %d, want %d", i, u.At(i), w)
		}
	}
}

func TestUnionAscendingOrder(t *testing.T) {
	a := New([]Symbol{10})
	b := New([]Symbol{3, 7})
	c := New([]Symbol{1, 20})
	u := UnionAll([]*Alphabet{a, b, c})

	prev := Symbol(0)
	for i := 0; i < u.Size(); i++ {
		if i > 0 && u.At(i) <= prev {
			t.Fatalf("UnionAll not ascending at index %d: %d <= %d", i, u.At(i), prev)
		}
		prev = u.At(i)
	}
	if u.Size() != 5 {
		t.Fatalf("UnionAll size = %d, want 5", u.Size())
	}
}

func TestSortedDeduplicates(t *testing.T) {
	a := Sorted([]Symbol{5, 1, 1, 3, 5, 2})
	want := []Symbol{1, 2, 3, 5}
	if a.Size() != len(want) {
		t.Fatalf("Sorted size = %d, want %d", a.Size(), len(want))
	}
	for i, w := range want {
		if a.At(i) != w {
			t.Errorf("Sorted.At(%d) = %d, want %d", i, a.At(i), w)
		}
	}
}
