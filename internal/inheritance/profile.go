package inheritance

import (
	"errors"
	"fmt"
	"math/rand"

	"digitaldna/internal/dominance"
	"digitaldna/internal/genome"
)

// DefaultGeneLength is the number of nucleotides encoding one trait.
const DefaultGeneLength = 8

const (
	DefaultDominanceProbability   = 0.5
	DefaultSuppressionProbability = 0.1
)

var defaultTraitNames = []string{
	"learning_capacity",
	"pattern_recognition",
	"decision_making",
	"memory_capacity",
	"adaptability",
	"social_interaction",
	"task_specialization",
	"resource_management",
	"processing_speed",
	"energy_efficiency",
	"error_tolerance",
	"parallel_processing",
}

// Locus names a trait and the nucleotide span that encodes it.
type Locus struct {
	Name   string `json:"name"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
}

func (l Locus) end() int { return l.Offset + l.Length }

// Profile is an ordered set of loci together with the probabilities used
// to draw dominance and suppression flags for each parent's allele.
type Profile struct {
	Loci                   []Locus
	DominanceProbability   float64
	SuppressionProbability float64
}

// DefaultProfile lays the built-in traits out back to back.
func DefaultProfile() Profile {
	loci := make([]Locus, len(defaultTraitNames))
	for i, name := range defaultTraitNames {
		loci[i] = Locus{Name: name, Offset: i * DefaultGeneLength, Length: DefaultGeneLength}
	}
	return Profile{
		Loci:                   loci,
		DominanceProbability:   DefaultDominanceProbability,
		SuppressionProbability: DefaultSuppressionProbability,
	}
}

// Span is the minimum sequence length that holds every locus.
func (p Profile) Span() int {
	span := 0
	for _, l := range p.Loci {
		span = max(span, l.end())
	}
	return span
}

func (p Profile) Validate() error {
	if len(p.Loci) == 0 {
		return errors.New("profile has no loci")
	}
	seen := make(map[string]struct{}, len(p.Loci))
	for _, l := range p.Loci {
		if l.Name == "" {
			return errors.New("locus name is required")
		}
		if _, dup := seen[l.Name]; dup {
			return fmt.Errorf("duplicate locus %s", l.Name)
		}
		seen[l.Name] = struct{}{}
		if l.Offset < 0 || l.Length <= 0 {
			return fmt.Errorf("locus %s has invalid span offset=%d length=%d", l.Name, l.Offset, l.Length)
		}
	}
	if p.DominanceProbability < 0 || p.DominanceProbability > 1 {
		return fmt.Errorf("dominance probability must be in [0,1], got %g", p.DominanceProbability)
	}
	if p.SuppressionProbability < 0 || p.SuppressionProbability > 1 {
		return fmt.Errorf("suppression probability must be in [0,1], got %g", p.SuppressionProbability)
	}
	return nil
}

// Expression is the outcome for one locus.
type Expression struct {
	Locus    Locus            `json:"locus"`
	Paternal dominance.Allele `json:"paternal"`
	Maternal dominance.Allele `json:"maternal"`
	Trait    dominance.Trait  `json:"trait"`
}

// Expresser pairs loci across two parent sequences and resolves them.
type Expresser struct {
	Profile  Profile
	Resolver *dominance.Resolver
}

// Express resolves every locus of the profile. Loci whose name is a known
// specialization are resolved under that specialization; the rest use
// the alleles' own dominance flags. A parent too short to cover a locus
// contributes a suppressed allele.
func (e Expresser) Express(paternal, maternal *genome.Sequence, rng *rand.Rand) ([]Expression, error) {
	if rng == nil {
		return nil, genome.ErrNoRandSource
	}
	if e.Resolver == nil {
		return nil, errors.New("dominance resolver is required")
	}
	if paternal == nil || maternal == nil {
		return nil, genome.ErrEmptySequence
	}
	if err := e.Profile.Validate(); err != nil {
		return nil, err
	}

	pValues, mValues := paternal.Values(), maternal.Values()
	out := make([]Expression, 0, len(e.Profile.Loci))
	for _, locus := range e.Profile.Loci {
		pAllele := e.allele(pValues, locus, rng)
		mAllele := e.allele(mValues, locus, rng)

		specialization := ""
		if e.Resolver.HasSpecialization(locus.Name) {
			specialization = locus.Name
		}
		trait, err := e.Resolver.DetermineTrait(pAllele, mAllele, specialization)
		if err != nil {
			return nil, fmt.Errorf("locus %s: %w", locus.Name, err)
		}
		out = append(out, Expression{Locus: locus, Paternal: pAllele, Maternal: mAllele, Trait: trait})
	}
	return out, nil
}

// allele always consumes two draws so that the stream stays aligned
// across parents regardless of sequence length.
func (e Expresser) allele(values []int, locus Locus, rng *rand.Rand) dominance.Allele {
	dominant := rng.Float64() > 1-e.Profile.DominanceProbability
	suppressed := rng.Float64() < e.Profile.SuppressionProbability
	if locus.end() > len(values) {
		return dominance.Allele{Suppressed: true}
	}
	return dominance.Allele{
		Value:      modalValue(values[locus.Offset:locus.end()]),
		Dominant:   dominant,
		Suppressed: suppressed,
	}
}

// modalValue returns the most frequent value, preferring the lowest on ties.
func modalValue(segment []int) int {
	var counts [genome.MaxValue + 1]int
	for _, v := range segment {
		counts[v]++
	}
	best := 0
	for v := 1; v < len(counts); v++ {
		if counts[v] > counts[best] {
			best = v
		}
	}
	return best
}
