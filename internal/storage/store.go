package storage

import (
	"context"
	"errors"
	"strconv"

	"digitaldna/internal/model"
)

var ErrNotInitialized = errors.New("store is not initialized")

// Store persists simulation snapshots. Lookups that find nothing return
// ok=false with a nil error.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context, limit int) ([]model.RunRecord, error)
	SaveSequence(ctx context.Context, seq model.SequenceRecord) error
	GetSequence(ctx context.Context, id string) (model.SequenceRecord, bool, error)
	SaveLineage(ctx context.Context, runID string, lineage []model.LineageRecord) error
	GetLineage(ctx context.Context, runID string) ([]model.LineageRecord, bool, error)
	SaveFitnessHistory(ctx context.Context, key string, history []float64) error
	GetFitnessHistory(ctx context.Context, key string) ([]float64, bool, error)
}

// FitnessHistoryKey names the fitness history of one lineage of a run.
func FitnessHistoryKey(runID string, lineage int) string {
	return runID + "/" + strconv.Itoa(lineage)
}
