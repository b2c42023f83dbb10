package simulation

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"digitaldna/internal/genome"
	"digitaldna/internal/metrics"
	"digitaldna/internal/model"
	"digitaldna/internal/storage"
)

type Options struct {
	Store    storage.Store
	Recorder *metrics.Recorder
	Logger   *slog.Logger
	Now      func() time.Time
}

// Runner evolves independent lineages from a common founder. Every
// generation replicates the current sequence, scores it by entropy,
// appends the score to the lineage's fitness history and takes one
// adaptive rate step.
type Runner struct {
	store    storage.Store
	recorder *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

func NewRunner(opts Options) *Runner {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Runner{
		store:    opts.Store,
		recorder: opts.Recorder,
		logger:   logger,
		now:      now,
	}
}

type Config struct {
	RunID       string
	Seed        int64
	Generations int
	Lineages    int
	Workers     int
	Initial     []int
	// Rates seeds every founder; the zero value selects the defaults.
	Rates genome.MutationRates
}

type LineageResult struct {
	Lineage        int
	Final          *genome.Sequence
	FitnessHistory []float64
	Records        []model.LineageRecord
}

type Result struct {
	RunID       string
	Lineages    []LineageResult
	BestLineage int
	BestFitness float64
}

func (c *Config) normalize() error {
	if c.Generations < 1 {
		return fmt.Errorf("generations must be >= 1, got %d", c.Generations)
	}
	if c.Lineages < 1 {
		return fmt.Errorf("lineages must be >= 1, got %d", c.Lineages)
	}
	if len(c.Initial) == 0 {
		return fmt.Errorf("founder: %w", genome.ErrEmptySequence)
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Workers > c.Lineages {
		c.Workers = c.Lineages
	}
	if c.Rates.IsZero() {
		c.Rates = genome.DefaultMutationRates()
	}
	if c.RunID == "" {
		c.RunID = uuid.NewString()
	}
	return c.Rates.Validate()
}

// Run evolves cfg.Lineages lineages on up to cfg.Workers goroutines. Each
// lineage owns a generator seeded from (cfg.Seed, lineage index), so the
// outcome does not depend on scheduling. Results are ordered by lineage.
func (r *Runner) Run(ctx context.Context, cfg Config) (Result, error) {
	if err := cfg.normalize(); err != nil {
		return Result{}, err
	}
	// Fail on a bad founder before starting any worker.
	if _, err := genome.New(cfg.Initial, rand.New(rand.NewSource(cfg.Seed))); err != nil {
		return Result{}, fmt.Errorf("founder: %w", err)
	}

	r.logger.Info("run started",
		"run_id", cfg.RunID,
		"lineages", cfg.Lineages,
		"generations", cfg.Generations,
		"workers", cfg.Workers,
		"seed", cfg.Seed,
	)

	type result struct {
		idx     int
		lineage LineageResult
		err     error
	}

	jobs := make(chan int)
	results := make(chan result, cfg.Lineages)

	var wg sync.WaitGroup
	wg.Add(cfg.Workers)
	for w := 0; w < cfg.Workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				lineage, err := r.runLineage(ctx, cfg, idx)
				results <- result{idx: idx, lineage: lineage, err: err}
			}
		}()
	}

	for i := 0; i < cfg.Lineages; i++ {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	close(results)

	out := Result{RunID: cfg.RunID, Lineages: make([]LineageResult, cfg.Lineages)}
	var errs []error
	for res := range results {
		if res.err != nil {
			errs = append(errs, fmt.Errorf("lineage %d: %w", res.idx, res.err))
			continue
		}
		out.Lineages[res.idx] = res.lineage
	}
	if len(errs) > 0 {
		return Result{}, errors.Join(errs...)
	}

	out.BestLineage, out.BestFitness = 0, out.Lineages[0].Final.Fitness()
	for i, l := range out.Lineages[1:] {
		if f := l.Final.Fitness(); f > out.BestFitness {
			out.BestLineage, out.BestFitness = i+1, f
		}
	}

	if err := r.persist(ctx, cfg, out); err != nil {
		return Result{}, err
	}

	r.logger.Info("run finished",
		"run_id", cfg.RunID,
		"best_lineage", out.BestLineage,
		"best_fitness", out.BestFitness,
	)
	return out, nil
}

func (r *Runner) runLineage(ctx context.Context, cfg Config, idx int) (LineageResult, error) {
	rng := rand.New(rand.NewSource(SeedForLineage(cfg.Seed, idx)))
	founder, err := genome.New(cfg.Initial, rng)
	if err != nil {
		return LineageResult{}, err
	}
	if founder, err = founder.WithMutationRates(cfg.Rates); err != nil {
		return LineageResult{}, err
	}

	current := founder
	history := make([]float64, 0, cfg.Generations)
	records := make([]model.LineageRecord, 0, cfg.Generations)
	for g := 0; g < cfg.Generations; g++ {
		if err := ctx.Err(); err != nil {
			return LineageResult{}, err
		}
		child, err := current.Replicate()
		if err != nil {
			return LineageResult{}, err
		}
		fitness := child.Entropy()
		child.SetFitness(fitness)
		history = append(history, fitness)
		child.OptimizeMutationRates(history)

		r.recorder.ObserveReplication(child)
		if n := len(history); n >= 2 {
			r.recorder.ObserveRateAdjustment(history[n-1] > history[n-2])
		}

		records = append(records, lineageRecord(idx, child, founder))
		current = child
	}

	r.logger.Debug("lineage finished",
		"run_id", cfg.RunID,
		"lineage", idx,
		"generation", current.Generation(),
		"length", current.Len(),
		"entropy", current.Fitness(),
	)
	return LineageResult{
		Lineage:        idx,
		Final:          current,
		FitnessHistory: history,
		Records:        records,
	}, nil
}

func lineageRecord(idx int, seq, founder *genome.Sequence) model.LineageRecord {
	stats := seq.MutationStats()
	types := make(map[string]int, len(stats.Types))
	for kind, n := range stats.Types {
		types[string(kind)] = n
	}
	return model.LineageRecord{
		VersionedRecord: storage.CurrentVersion(),
		Lineage:         idx,
		Generation:      seq.Generation(),
		Values:          seq.Values(),
		Fitness:         seq.Fitness(),
		Entropy:         seq.Entropy(),
		Distance:        seq.DistanceFrom(founder),
		MutationRates:   seq.MutationRates().Map(),
		Mutations:       stats.Total,
		MutationTypes:   types,
	}
}

func (r *Runner) persist(ctx context.Context, cfg Config, res Result) error {
	if r.store == nil {
		return nil
	}
	run := model.RunRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              cfg.RunID,
		CreatedAtUTC:    r.now().UTC().Format(time.RFC3339Nano),
		Seed:            cfg.Seed,
		Generations:     cfg.Generations,
		Lineages:        cfg.Lineages,
		Founder:         append([]int(nil), cfg.Initial...),
		BestFitness:     res.BestFitness,
		BestLineage:     res.BestLineage,
	}
	if err := r.store.SaveRun(ctx, run); err != nil {
		return fmt.Errorf("save run %s: %w", cfg.RunID, err)
	}

	var all []model.LineageRecord
	for _, l := range res.Lineages {
		all = append(all, l.Records...)
		if err := r.store.SaveSequence(ctx, SequenceRecord(cfg.RunID, l.Lineage, l.Final)); err != nil {
			return fmt.Errorf("save lineage %d sequence: %w", l.Lineage, err)
		}
		if err := r.store.SaveFitnessHistory(ctx, storage.FitnessHistoryKey(cfg.RunID, l.Lineage), l.FitnessHistory); err != nil {
			return fmt.Errorf("save lineage %d fitness history: %w", l.Lineage, err)
		}
	}
	if err := r.store.SaveLineage(ctx, cfg.RunID, all); err != nil {
		return fmt.Errorf("save lineage records: %w", err)
	}
	return nil
}

// SequenceRecord snapshots seq under a fresh ID.
func SequenceRecord(runID string, lineage int, seq *genome.Sequence) model.SequenceRecord {
	return model.SequenceRecord{
		VersionedRecord: storage.CurrentVersion(),
		ID:              uuid.NewString(),
		RunID:           runID,
		Lineage:         lineage,
		Generation:      seq.Generation(),
		Fitness:         seq.Fitness(),
		Values:          seq.Values(),
		MutationRates:   seq.MutationRates().Map(),
	}
}

// SeedForLineage derives a stable per-lineage seed.
func SeedForLineage(seed int64, lineage int) int64 {
	var buf [16]byte
	binary.BigEndian.PutUint64(buf[:8], uint64(seed))
	binary.BigEndian.PutUint64(buf[8:], uint64(lineage))
	sum := sha256.Sum256(buf[:])
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
