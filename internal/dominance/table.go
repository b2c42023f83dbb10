package dominance

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSpecialization = errors.New("unknown specialization")
	ErrInvalidPartition      = errors.New("invalid dominance partition")
)

// Partition splits the nucleotide value domain into the values treated as
// dominant and recessive for one specialization.
type Partition struct {
	Dominant  []int `json:"dominant_patterns" yaml:"dominant_patterns"`
	Recessive []int `json:"recessive_patterns" yaml:"recessive_patterns"`
}

func (p Partition) isDominant(value int) bool {
	for _, v := range p.Dominant {
		if v == value {
			return true
		}
	}
	return false
}

// Validate checks that Dominant and Recessive are two disjoint pairs that
// together cover {0,1,2,3}.
func (p Partition) Validate() error {
	if len(p.Dominant) != 2 || len(p.Recessive) != 2 {
		return fmt.Errorf("%w: want two dominant and two recessive values, got %v/%v", ErrInvalidPartition, p.Dominant, p.Recessive)
	}
	var seen [4]bool
	for _, v := range append(append([]int(nil), p.Dominant...), p.Recessive...) {
		if v < 0 || v > 3 {
			return fmt.Errorf("%w: value %d out of range", ErrInvalidPartition, v)
		}
		if seen[v] {
			return fmt.Errorf("%w: value %d listed twice", ErrInvalidPartition, v)
		}
		seen[v] = true
	}
	return nil
}

// Table maps specialization names to their partitions. It is read-only
// once handed to a Resolver.
type Table map[string]Partition

func (t Table) Validate() error {
	if len(t) == 0 {
		return errors.New("dominance table is empty")
	}
	for name, p := range t {
		if name == "" {
			return errors.New("dominance table has an empty specialization name")
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("specialization %s: %w", name, err)
		}
	}
	return nil
}

// Names returns the specialization names in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (t Table) clone() Table {
	out := make(Table, len(t))
	for name, p := range t {
		out[name] = Partition{
			Dominant:  append([]int(nil), p.Dominant...),
			Recessive: append([]int(nil), p.Recessive...),
		}
	}
	return out
}

// DefaultTable returns the built-in specialization table.
func DefaultTable() Table {
	return Table{
		"pattern_recognition":   {Dominant: []int{3, 2}, Recessive: []int{0, 1}},
		"learning_rate":         {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
		"memory_formation":      {Dominant: []int{0, 3}, Recessive: []int{1, 2}},
		"decision_making":       {Dominant: []int{1, 2}, Recessive: []int{0, 3}},
		"data_processing":       {Dominant: []int{0, 1}, Recessive: []int{2, 3}},
		"neural_plasticity":     {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
		"problem_solving":       {Dominant: []int{1, 3}, Recessive: []int{0, 2}},
		"adaptation_speed":      {Dominant: []int{3, 2}, Recessive: []int{1, 0}},
		"environmental_sensing": {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
		"knowledge_integration": {Dominant: []int{3, 1}, Recessive: []int{2, 0}},
		"learning_capacity":     {Dominant: []int{3, 2}, Recessive: []int{0, 1}},
		"memory_capacity":       {Dominant: []int{0, 3}, Recessive: []int{1, 2}},
		"adaptability":          {Dominant: []int{3, 2}, Recessive: []int{1, 0}},
		"social_interaction":    {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
		"task_specialization":   {Dominant: []int{1, 3}, Recessive: []int{0, 2}},
		"resource_management":   {Dominant: []int{0, 1}, Recessive: []int{2, 3}},
		"processing_speed":      {Dominant: []int{3, 2}, Recessive: []int{0, 1}},
		"energy_efficiency":     {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
		"error_tolerance":       {Dominant: []int{3, 1}, Recessive: []int{2, 0}},
		"parallel_processing":   {Dominant: []int{2, 3}, Recessive: []int{0, 1}},
	}
}

type tableFile struct {
	Specializations Table `yaml:"specializations"`
}

// LoadTable reads a YAML document of the form
//
//	specializations:
//	  pattern_recognition:
//	    dominant_patterns: [3, 2]
//	    recessive_patterns: [0, 1]
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dominance table %s: %w", path, err)
	}
	return ParseTable(data)
}

func ParseTable(data []byte) (Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse dominance table: %w", err)
	}
	if err := file.Specializations.Validate(); err != nil {
		return nil, err
	}
	return file.Specializations, nil
}
