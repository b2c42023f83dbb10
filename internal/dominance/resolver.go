package dominance

import (
	"fmt"
	"math"
)

// Allele is one parent's contribution to a gene.
type Allele struct {
	Value      int  `json:"value"`
	Dominant   bool `json:"dominant"`
	Suppressed bool `json:"suppressed"`
}

// Trait is the resolved expression of a paternal/maternal allele pair.
type Trait struct {
	Value     int  `json:"value"`
	Expressed bool `json:"expressed"`
}

// Resolver computes expressed traits from allele pairs. It holds no
// mutable state and is safe for concurrent use.
type Resolver struct {
	table Table
}

// NewResolver validates and copies table. A nil table selects DefaultTable.
func NewResolver(table Table) (*Resolver, error) {
	if table == nil {
		table = DefaultTable()
	}
	if err := table.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{table: table.clone()}, nil
}

// Table returns a copy of the resolver's specialization table.
func (r *Resolver) Table() Table {
	return r.table.clone()
}

func (r *Resolver) HasSpecialization(name string) bool {
	_, ok := r.table[name]
	return ok
}

// DetermineTrait resolves a gene. An empty specialization selects the
// generic rules driven by each allele's Dominant flag. A named
// specialization replaces those flags with membership of the allele value
// in the specialization's dominant values. Unknown names are rejected
// before any other rule applies.
//
// Combination rules, in order:
//   - both suppressed: value 0, not expressed
//   - one suppressed: the other allele's value
//   - both dominant: floor of the mean
//   - one dominant: that allele's value
//   - both recessive: the lower of the two values
func (r *Resolver) DetermineTrait(paternal, maternal Allele, specialization string) (Trait, error) {
	var partition *Partition
	if specialization != "" {
		p, ok := r.table[specialization]
		if !ok {
			return Trait{}, fmt.Errorf("%w: %q", ErrUnknownSpecialization, specialization)
		}
		partition = &p
	}

	switch {
	case paternal.Suppressed && maternal.Suppressed:
		return Trait{Value: 0, Expressed: false}, nil
	case paternal.Suppressed:
		return Trait{Value: maternal.Value, Expressed: true}, nil
	case maternal.Suppressed:
		return Trait{Value: paternal.Value, Expressed: true}, nil
	}

	pDominant, mDominant := paternal.Dominant, maternal.Dominant
	if partition != nil {
		pDominant = partition.isDominant(paternal.Value)
		mDominant = partition.isDominant(maternal.Value)
	}
	return combine(paternal.Value, maternal.Value, pDominant, mDominant), nil
}

func combine(pValue, mValue int, pDominant, mDominant bool) Trait {
	switch {
	case pDominant && mDominant:
		return Trait{Value: floorMean(pValue, mValue), Expressed: true}
	case pDominant:
		return Trait{Value: pValue, Expressed: true}
	case mDominant:
		return Trait{Value: mValue, Expressed: true}
	default:
		return Trait{Value: min(pValue, mValue), Expressed: true}
	}
}

func floorMean(a, b int) int {
	return int(math.Floor(float64(a+b) / 2))
}
