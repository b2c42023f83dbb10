package genome

import (
	"errors"
	"math/rand"
	"testing"
)

func TestNewNucleotideRejectsOutOfRange(t *testing.T) {
	for _, v := range []int{-1, 4, 255} {
		if _, err := NewNucleotide(v); !errors.Is(err, ErrInvalidNucleotide) {
			t.Fatalf("value %d: expected ErrInvalidNucleotide, got %v", v, err)
		}
	}
	n, err := NewNucleotide(2)
	if err != nil {
		t.Fatalf("new nucleotide: %v", err)
	}
	if n.Value() != 2 || n.Generation() != 0 || len(n.History()) != 0 {
		t.Fatalf("unexpected fresh nucleotide: %+v", n)
	}
}

func TestComplementIsPureXor(t *testing.T) {
	want := map[int]int{0: 3, 1: 2, 2: 1, 3: 0}
	for v, c := range want {
		n := &Nucleotide{value: v}
		got := n.Complement()
		if got.Value() != c {
			t.Fatalf("complement(%d) = %d, want %d", v, got.Value(), c)
		}
		if n.Value() != v || n.Generation() != 0 {
			t.Fatalf("complement changed receiver: %+v", n)
		}
		if got.Generation() != 0 || len(got.History()) != 0 {
			t.Fatalf("complement logged history: %+v", got)
		}
	}
}

func TestMutateHistoryTracksGeneration(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := &Nucleotide{value: 1}
	for i := 1; i <= 500; i++ {
		prev := n.Value()
		if n.Mutate(rng) != n {
			t.Fatal("mutate must return its receiver")
		}
		if n.Generation() != i || len(n.History()) != i {
			t.Fatalf("after %d mutations: generation=%d history=%d", i, n.Generation(), len(n.History()))
		}
		if !validValue(n.Value()) {
			t.Fatalf("value escaped range: %d", n.Value())
		}
		rec := n.History()[i-1]
		if rec.Generation != i-1 || rec.From != prev || rec.To != n.Value() {
			t.Fatalf("bad history record %+v (prev=%d now=%d)", rec, prev, n.Value())
		}
	}
}

func TestMutateKindTransitions(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	seen := make(map[MutationKind]int)
	for i := 0; i < 2000; i++ {
		n := &Nucleotide{value: i % 4}
		n.Mutate(rng)
		rec := n.History()[0]
		seen[rec.Kind]++
		switch rec.Kind {
		case MutationBitFlip:
			if x := rec.From ^ rec.To; x != 0b01 && x != 0b10 {
				t.Fatalf("bit-flip changed %d -> %d", rec.From, rec.To)
			}
		case MutationComplement:
			if rec.From^rec.To != 0b11 {
				t.Fatalf("complement changed %d -> %d", rec.From, rec.To)
			}
		case MutationPoint:
		default:
			t.Fatalf("unknown mutation kind %q", rec.Kind)
		}
	}
	for _, kind := range []MutationKind{MutationPoint, MutationBitFlip, MutationComplement} {
		if seen[kind] == 0 {
			t.Fatalf("mutation kind %q never drawn: %v", kind, seen)
		}
	}
	if seen[MutationPoint] < seen[MutationBitFlip] || seen[MutationPoint] < seen[MutationComplement] {
		t.Fatalf("point mutations should dominate: %v", seen)
	}
}
