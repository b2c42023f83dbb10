package model

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// RunRecord summarises one simulation run.
type RunRecord struct {
	VersionedRecord
	ID           string  `json:"id"`
	CreatedAtUTC string  `json:"created_at_utc"`
	Seed         int64   `json:"seed"`
	Generations  int     `json:"generations"`
	Lineages     int     `json:"lineages"`
	Founder      []int   `json:"founder"`
	BestFitness  float64 `json:"best_fitness"`
	BestLineage  int     `json:"best_lineage"`
}

// SequenceRecord is a serialisable snapshot of a sequence.
type SequenceRecord struct {
	VersionedRecord
	ID            string             `json:"id"`
	RunID         string             `json:"run_id,omitempty"`
	Lineage       int                `json:"lineage"`
	Generation    int                `json:"generation"`
	Fitness       float64            `json:"fitness"`
	Values        []int              `json:"values"`
	MutationRates map[string]float64 `json:"mutation_rates"`
}

// LineageRecord is one generation of one lineage within a run.
type LineageRecord struct {
	VersionedRecord
	Lineage       int                `json:"lineage"`
	Generation    int                `json:"generation"`
	Values        []int              `json:"values"`
	Fitness       float64            `json:"fitness"`
	Entropy       float64            `json:"entropy"`
	Distance      float64            `json:"distance"`
	MutationRates map[string]float64 `json:"mutation_rates"`
	Mutations     int                `json:"mutations"`
	MutationTypes map[string]int     `json:"mutation_types,omitempty"`
}
