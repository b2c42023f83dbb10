package genome

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	ErrInvalidNucleotide = errors.New("nucleotide value out of range")
	ErrEmptySequence     = errors.New("sequence is empty")
	ErrNoRandSource      = errors.New("random source is required")
)

const (
	MinAdaptiveRate = 0.0001
	MaxAdaptiveRate = 0.01
)

// MutationRates holds the per-replication probability of each operator.
type MutationRates struct {
	Point       float64 `json:"point" yaml:"point"`
	Insertion   float64 `json:"insertion" yaml:"insertion"`
	Deletion    float64 `json:"deletion" yaml:"deletion"`
	Duplication float64 `json:"duplication" yaml:"duplication"`
	Inversion   float64 `json:"inversion" yaml:"inversion"`
}

func DefaultMutationRates() MutationRates {
	return MutationRates{
		Point:       0.001,
		Insertion:   0.0005,
		Deletion:    0.0005,
		Duplication: 0.0002,
		Inversion:   0.0002,
	}
}

// IsZero reports whether no rate is set.
func (r MutationRates) IsZero() bool {
	return r == MutationRates{}
}

// Map returns the rates keyed by operator name.
func (r MutationRates) Map() map[string]float64 {
	return map[string]float64{
		"point":       r.Point,
		"insertion":   r.Insertion,
		"deletion":    r.Deletion,
		"duplication": r.Duplication,
		"inversion":   r.Inversion,
	}
}

// apply rewrites every rate in a fixed key order: point, insertion,
// deletion, duplication, inversion. Random draws inside fn therefore
// happen in a reproducible order.
func (r *MutationRates) apply(fn func(rate float64) float64) {
	r.Point = fn(r.Point)
	r.Insertion = fn(r.Insertion)
	r.Deletion = fn(r.Deletion)
	r.Duplication = fn(r.Duplication)
	r.Inversion = fn(r.Inversion)
}

func (r MutationRates) Validate() error {
	for name, rate := range r.Map() {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("mutation rate %s must be in [0,1], got %g", name, rate)
		}
	}
	return nil
}

// Sequence is an ordered strand of nucleotides together with its
// mutation-rate configuration. Replicate and Crossover never touch the
// nucleotides of their operands; only OptimizeMutationRates and
// SetFitness modify the receiver.
//
// A Sequence draws randomness from the generator it was built with, and
// offspring inherit that generator. One lineage is therefore not safe
// for concurrent use; independent lineages should each own a generator.
type Sequence struct {
	nucleotides []*Nucleotide
	generation  int
	fitness     float64
	rates       MutationRates
	rng         *rand.Rand

	// point mutations applied by the Replicate call that produced this sequence
	replicated MutationStats
}

// New builds a generation-0 sequence with default mutation rates.
func New(values []int, rng *rand.Rand) (*Sequence, error) {
	if rng == nil {
		return nil, ErrNoRandSource
	}
	if len(values) == 0 {
		return nil, ErrEmptySequence
	}
	nucleotides := make([]*Nucleotide, len(values))
	for i, v := range values {
		if !validValue(v) {
			return nil, fmt.Errorf("%w: position %d value %d", ErrInvalidNucleotide, i, v)
		}
		nucleotides[i] = &Nucleotide{value: v}
	}
	return &Sequence{
		nucleotides: nucleotides,
		rates:       DefaultMutationRates(),
		rng:         rng,
	}, nil
}

// Random builds a sequence of the given length with uniformly drawn values.
func Random(length int, rng *rand.Rand) (*Sequence, error) {
	if rng == nil {
		return nil, ErrNoRandSource
	}
	if length <= 0 {
		return nil, ErrEmptySequence
	}
	values := make([]int, length)
	for i := range values {
		values[i] = rng.Intn(MaxValue + 1)
	}
	return New(values, rng)
}

func (s *Sequence) Len() int                     { return len(s.nucleotides) }
func (s *Sequence) Generation() int              { return s.generation }
func (s *Sequence) Fitness() float64             { return s.fitness }
func (s *Sequence) SetFitness(fitness float64)   { s.fitness = fitness }
func (s *Sequence) MutationRates() MutationRates { return s.rates }

// ReplicationMutations reports the point mutations applied while
// replicating this sequence from its parent. It is empty for sequences
// not produced by Replicate.
func (s *Sequence) ReplicationMutations() MutationStats {
	out := MutationStats{Types: make(map[MutationKind]int, len(s.replicated.Types))}
	out.Total = s.replicated.Total
	for k, v := range s.replicated.Types {
		out.Types[k] = v
	}
	return out
}

// WithGeneration sets the lineage depth; used when restoring snapshots.
func (s *Sequence) WithGeneration(generation int) *Sequence {
	s.generation = generation
	return s
}

// WithMutationRates replaces the rate configuration.
func (s *Sequence) WithMutationRates(rates MutationRates) (*Sequence, error) {
	if err := rates.Validate(); err != nil {
		return nil, err
	}
	s.rates = rates
	return s, nil
}

// Values returns a copy of the nucleotide values in genomic order.
func (s *Sequence) Values() []int {
	values := make([]int, len(s.nucleotides))
	for i, n := range s.nucleotides {
		values[i] = n.value
	}
	return values
}

// Nucleotide returns the nucleotide at position i. The returned value is
// live: calling Mutate on it changes this sequence.
func (s *Sequence) Nucleotide(i int) *Nucleotide {
	return s.nucleotides[i]
}

// ComplementaryStrand returns a sequence with every value complemented.
func (s *Sequence) ComplementaryStrand() *Sequence {
	nucleotides := make([]*Nucleotide, len(s.nucleotides))
	for i, n := range s.nucleotides {
		nucleotides[i] = n.Complement()
	}
	return &Sequence{
		nucleotides: nucleotides,
		generation:  s.generation,
		rates:       s.rates,
		rng:         s.rng,
	}
}

func (s *Sequence) checkOperable() error {
	if s == nil || len(s.nucleotides) == 0 {
		return ErrEmptySequence
	}
	if s.rng == nil {
		return ErrNoRandSource
	}
	return nil
}
