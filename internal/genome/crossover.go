package genome

import "sort"

// Crossover recombines the receiver with other at one to three sorted
// breakpoints drawn over the receiver's length, starting on the receiver's
// strand. Breakpoints past the end of a shorter partner contribute nothing
// from that partner.
func (s *Sequence) Crossover(other *Sequence) (*Sequence, error) {
	if err := s.checkOperable(); err != nil {
		return nil, err
	}
	if other == nil || len(other.nucleotides) == 0 {
		return nil, ErrEmptySequence
	}
	rng := s.rng

	points := make([]int, rng.Intn(3)+1)
	for i := range points {
		points[i] = rng.Intn(len(s.nucleotides))
	}
	sort.Ints(points)

	values := crossoverValues(s, other, points)
	if len(values) == 0 {
		return nil, ErrEmptySequence
	}

	nucleotides := make([]*Nucleotide, len(values))
	for i, v := range values {
		nucleotides[i] = &Nucleotide{value: v}
	}

	rates := s.rates
	rates.apply(func(rate float64) float64 {
		varied := rate + (rng.Float64()-0.5)*0.1*rate
		if varied < 0 {
			return 0
		}
		return varied
	})

	return &Sequence{
		nucleotides: nucleotides,
		generation:  max(s.generation, other.generation) + 1,
		rates:       rates,
		rng:         rng,
	}, nil
}

func crossoverValues(first, second *Sequence, points []int) []int {
	values := make([]int, 0, len(first.nucleotides))
	active := first
	last := 0
	for _, p := range points {
		values = append(values, active.valuesBetween(last, p)...)
		if active == first {
			active = second
		} else {
			active = first
		}
		last = p
	}
	return append(values, active.valuesBetween(last, len(active.nucleotides))...)
}

// valuesBetween returns the values in [from, to) clamped to the strand.
func (s *Sequence) valuesBetween(from, to int) []int {
	to = min(to, len(s.nucleotides))
	if from >= to {
		return nil
	}
	values := make([]int, 0, to-from)
	for _, n := range s.nucleotides[from:to] {
		values = append(values, n.value)
	}
	return values
}
