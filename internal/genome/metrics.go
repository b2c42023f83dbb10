package genome

import "math"

// Entropy returns the base-2 Shannon entropy of the value distribution,
// in [0, 2]. A strand of identical values, or an empty one, yields 0.
func (s *Sequence) Entropy() float64 {
	if len(s.nucleotides) == 0 {
		return 0
	}
	var counts [MaxValue + 1]int
	for _, n := range s.nucleotides {
		counts[n.value]++
	}
	total := float64(len(s.nucleotides))
	entropy := 0.0
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / total
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// DistanceFrom returns the fraction of positions whose values differ from
// ancestor. Strands of different length are maximally distant (1.0); no
// alignment is attempted.
func (s *Sequence) DistanceFrom(ancestor *Sequence) float64 {
	if len(s.nucleotides) != len(ancestor.nucleotides) {
		return 1
	}
	if len(s.nucleotides) == 0 {
		return 0
	}
	diff := 0
	for i, n := range s.nucleotides {
		if n.value != ancestor.nucleotides[i].value {
			diff++
		}
	}
	return float64(diff) / float64(len(s.nucleotides))
}

type MutationStats struct {
	Total int                  `json:"total"`
	Types map[MutationKind]int `json:"types"`
}

// MutationStats aggregates the mutation histories of every nucleotide.
func (s *Sequence) MutationStats() MutationStats {
	stats := MutationStats{Types: make(map[MutationKind]int)}
	for _, n := range s.nucleotides {
		for _, rec := range n.history {
			stats.Total++
			stats.Types[rec.Kind]++
		}
	}
	return stats
}

// OptimizeMutationRates nudges every rate up 10% when the last recorded
// fitness improved on the one before it, and down 10% otherwise, then
// clamps each rate to [MinAdaptiveRate, MaxAdaptiveRate]. This is a
// single hill-climbing step with no convergence guarantee. Histories
// shorter than two entries leave the rates untouched.
func (s *Sequence) OptimizeMutationRates(fitnessHistory []float64) {
	if len(fitnessHistory) < 2 {
		return
	}
	change := fitnessHistory[len(fitnessHistory)-1] - fitnessHistory[len(fitnessHistory)-2]
	factor := 0.9
	if change > 0 {
		factor = 1.1
	}
	s.rates.apply(func(rate float64) float64 {
		return math.Max(MinAdaptiveRate, math.Min(MaxAdaptiveRate, rate*factor))
	})
}
