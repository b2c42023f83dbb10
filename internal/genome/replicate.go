package genome

// Replicate produces one offspring. Structural operators run at most once
// each, in the order insertion, deletion, duplication, inversion, followed
// by a per-nucleotide point-mutation pass. Every nucleotide of the
// offspring is a new instance; mutated ones carry a copy of the parent's
// history plus the new record, the rest start with an empty history.
func (s *Sequence) Replicate() (*Sequence, error) {
	if err := s.checkOperable(); err != nil {
		return nil, err
	}
	rng := s.rng
	strand := append([]*Nucleotide(nil), s.nucleotides...)

	if rng.Float64() < s.rates.Insertion {
		pos := rng.Intn(len(strand) + 1)
		strand = insertAt(strand, pos, &Nucleotide{value: rng.Intn(MaxValue + 1)})
	}

	if rng.Float64() < s.rates.Deletion && len(strand) > 1 {
		pos := rng.Intn(len(strand))
		strand = append(strand[:pos:pos], strand[pos+1:]...)
	}

	if rng.Float64() < s.rates.Duplication {
		start := rng.Intn(len(strand))
		length := rng.Intn(len(strand)-start) + 1
		segment := make([]*Nucleotide, length)
		for i, n := range strand[start : start+length] {
			segment[i] = n.fresh()
		}
		strand = insertAt(strand, start, segment...)
	}

	if rng.Float64() < s.rates.Inversion && len(strand) > 1 {
		start := rng.Intn(len(strand) - 1)
		length := rng.Intn(len(strand)-start) + 1
		reverse(strand[start : start+length])
	}

	offspring := make([]*Nucleotide, len(strand))
	applied := MutationStats{Types: make(map[MutationKind]int)}
	for i, n := range strand {
		if rng.Float64() < s.rates.Point {
			mutated := n.clone().Mutate(rng)
			applied.Total++
			applied.Types[mutated.history[len(mutated.history)-1].Kind]++
			offspring[i] = mutated
			continue
		}
		offspring[i] = n.fresh()
	}

	return &Sequence{
		nucleotides: offspring,
		generation:  s.generation + 1,
		rates:       s.rates,
		rng:         rng,
		replicated:  applied,
	}, nil
}

func insertAt(strand []*Nucleotide, pos int, items ...*Nucleotide) []*Nucleotide {
	out := make([]*Nucleotide, 0, len(strand)+len(items))
	out = append(out, strand[:pos]...)
	out = append(out, items...)
	return append(out, strand[pos:]...)
}

func reverse(segment []*Nucleotide) {
	for i, j := 0, len(segment)-1; i < j; i, j = i+1, j-1 {
		segment[i], segment[j] = segment[j], segment[i]
	}
}
