package genome

import (
	"fmt"
	"math/rand"
)

// MaxValue is the largest value a nucleotide can carry.
const MaxValue = 3

const (
	pointMutationThreshold   = 0.70
	bitFlipMutationThreshold = 0.85
)

type MutationKind string

const (
	MutationPoint      MutationKind = "point"
	MutationBitFlip    MutationKind = "bit-flip"
	MutationComplement MutationKind = "complement"
)

// MutationRecord is one entry of a nucleotide's mutation history.
type MutationRecord struct {
	Generation int          `json:"generation"`
	From       int          `json:"from"`
	To         int          `json:"to"`
	Kind       MutationKind `json:"kind"`
}

// Nucleotide is a 2-bit value with a log of the mutations applied to it.
// len(History()) always equals Generation().
type Nucleotide struct {
	value      int
	generation int
	history    []MutationRecord
}

func NewNucleotide(value int) (*Nucleotide, error) {
	if !validValue(value) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidNucleotide, value)
	}
	return &Nucleotide{value: value}, nil
}

func (n *Nucleotide) Value() int      { return n.value }
func (n *Nucleotide) Generation() int { return n.generation }

func (n *Nucleotide) History() []MutationRecord {
	return append([]MutationRecord(nil), n.history...)
}

// Complement returns a fresh nucleotide carrying value XOR 0b11.
func (n *Nucleotide) Complement() *Nucleotide {
	return &Nucleotide{value: n.value ^ 0b11}
}

// Mutate applies one random mutation in place and returns the receiver.
func (n *Nucleotide) Mutate(rng *rand.Rand) *Nucleotide {
	from := n.value
	r := rng.Float64()

	var kind MutationKind
	switch {
	case r < pointMutationThreshold:
		kind = MutationPoint
		n.value = rng.Intn(MaxValue + 1)
	case r < bitFlipMutationThreshold:
		kind = MutationBitFlip
		if rng.Float64() < 0.5 {
			n.value ^= 0b01
		} else {
			n.value ^= 0b10
		}
	default:
		kind = MutationComplement
		n.value ^= 0b11
	}

	n.history = append(n.history, MutationRecord{
		Generation: n.generation,
		From:       from,
		To:         n.value,
		Kind:       kind,
	})
	n.generation++
	return n
}

func (n *Nucleotide) clone() *Nucleotide {
	return &Nucleotide{
		value:      n.value,
		generation: n.generation,
		history:    append([]MutationRecord(nil), n.history...),
	}
}

func (n *Nucleotide) fresh() *Nucleotide {
	return &Nucleotide{value: n.value}
}

func validValue(v int) bool {
	return v >= 0 && v <= MaxValue
}
