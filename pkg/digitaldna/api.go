package digitaldna

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/prometheus/client_golang/prometheus"

	"digitaldna/internal/dominance"
	"digitaldna/internal/genome"
	"digitaldna/internal/inheritance"
	"digitaldna/internal/metrics"
	"digitaldna/internal/model"
	"digitaldna/internal/simulation"
	"digitaldna/internal/stats"
	"digitaldna/internal/storage"
)

const (
	defaultDBPath        = "digitaldna.db"
	defaultFounderLength = 64
	defaultGenerations   = 10
	defaultExportsDir    = "exports"
)

// AllLineages selects every lineage of a run.
const AllLineages = -1

type (
	Sequence      = genome.Sequence
	MutationRates = genome.MutationRates
	MutationStats = genome.MutationStats
	Allele        = dominance.Allele
	Trait         = dominance.Trait
	Table         = dominance.Table
	Partition     = dominance.Partition
	Resolver      = dominance.Resolver
	Expression    = inheritance.Expression
)

var (
	ErrInvalidNucleotide     = genome.ErrInvalidNucleotide
	ErrEmptySequence         = genome.ErrEmptySequence
	ErrUnknownSpecialization = dominance.ErrUnknownSpecialization
)

// NewSequence builds a generation-0 sequence drawing randomness from rng.
func NewSequence(values []int, rng *rand.Rand) (*Sequence, error) {
	return genome.New(values, rng)
}

// NewResolver returns a resolver over table, or over the built-in table
// when table is nil.
func NewResolver(table Table) (*Resolver, error) {
	return dominance.NewResolver(table)
}

func DefaultMutationRates() MutationRates { return genome.DefaultMutationRates() }

type Options struct {
	StoreKind string
	DBPath    string
	// TablePath names a YAML dominance table; empty selects the built-in one.
	TablePath  string
	Registerer prometheus.Registerer
	Logger     *slog.Logger
}

type Client struct {
	store    storage.Store
	resolver *dominance.Resolver
	recorder *metrics.Recorder
	runner   *simulation.Runner

	initialized bool
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	var table Table
	if opts.TablePath != "" {
		loaded, err := dominance.LoadTable(opts.TablePath)
		if err != nil {
			return nil, err
		}
		table = loaded
	}
	resolver, err := dominance.NewResolver(table)
	if err != nil {
		return nil, err
	}

	var recorder *metrics.Recorder
	if opts.Registerer != nil {
		recorder, err = metrics.NewRecorder(opts.Registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:    store,
		resolver: resolver,
		recorder: recorder,
		runner: simulation.NewRunner(simulation.Options{
			Store:    store,
			Recorder: recorder,
			Logger:   opts.Logger,
		}),
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.initialized {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.initialized = true
	return nil
}

// Table returns a copy of the dominance table in use.
func (c *Client) Table() Table {
	return c.resolver.Table()
}

type SimulateRequest struct {
	RunID       string
	Seed        int64
	Generations int
	Lineages    int
	Workers     int
	// Initial is the founder of every lineage. When empty a random founder
	// of FounderLength nucleotides is drawn from Seed.
	Initial       []int
	FounderLength int
	Rates         MutationRates
}

type LineageSummary struct {
	Lineage        int
	Values         []int
	Generation     int
	Fitness        float64
	Rates          MutationRates
	Stats          MutationStats
	FitnessHistory []float64
}

type SimulateSummary struct {
	RunID       string
	Founder     []int
	BestLineage int
	BestFitness float64
	Lineages    []LineageSummary
}

func (c *Client) Simulate(ctx context.Context, req SimulateRequest) (SimulateSummary, error) {
	if req.Generations <= 0 {
		req.Generations = defaultGenerations
	}
	if req.Lineages <= 0 {
		req.Lineages = 1
	}
	if len(req.Initial) == 0 {
		length := req.FounderLength
		if length <= 0 {
			length = defaultFounderLength
		}
		founder, err := genome.Random(length, rand.New(rand.NewSource(req.Seed)))
		if err != nil {
			return SimulateSummary{}, err
		}
		req.Initial = founder.Values()
	}
	if err := c.Init(ctx); err != nil {
		return SimulateSummary{}, err
	}

	res, err := c.runner.Run(ctx, simulation.Config{
		RunID:       req.RunID,
		Seed:        req.Seed,
		Generations: req.Generations,
		Lineages:    req.Lineages,
		Workers:     req.Workers,
		Initial:     req.Initial,
		Rates:       req.Rates,
	})
	if err != nil {
		return SimulateSummary{}, err
	}

	out := SimulateSummary{
		RunID:       res.RunID,
		Founder:     append([]int(nil), req.Initial...),
		BestLineage: res.BestLineage,
		BestFitness: res.BestFitness,
		Lineages:    make([]LineageSummary, 0, len(res.Lineages)),
	}
	for _, l := range res.Lineages {
		out.Lineages = append(out.Lineages, LineageSummary{
			Lineage:        l.Lineage,
			Values:         l.Final.Values(),
			Generation:     l.Final.Generation(),
			Fitness:        l.Final.Fitness(),
			Rates:          l.Final.MutationRates(),
			Stats:          l.Final.MutationStats(),
			FitnessHistory: l.FitnessHistory,
		})
	}
	return out, nil
}

type BreedRequest struct {
	Paternal []int
	Maternal []int
	Seed     int64
}

type BreedSummary struct {
	Values      []int
	Generation  int
	Rates       MutationRates
	Entropy     float64
	Expressions []Expression
}

// Breed crosses paternal with maternal and expresses the built-in trait
// profile for the pair. Parents shorter than the profile contribute
// suppressed alleles for the loci they do not cover.
func (c *Client) Breed(_ context.Context, req BreedRequest) (BreedSummary, error) {
	rng := rand.New(rand.NewSource(req.Seed))
	paternal, err := genome.New(req.Paternal, rng)
	if err != nil {
		return BreedSummary{}, fmt.Errorf("paternal: %w", err)
	}
	maternal, err := genome.New(req.Maternal, rng)
	if err != nil {
		return BreedSummary{}, fmt.Errorf("maternal: %w", err)
	}

	offspring, err := paternal.Crossover(maternal)
	if err != nil {
		return BreedSummary{}, err
	}
	c.recorder.ObserveCrossover(offspring)

	expressions, err := inheritance.Expresser{
		Profile:  inheritance.DefaultProfile(),
		Resolver: c.resolver,
	}.Express(paternal, maternal, rng)
	if err != nil {
		return BreedSummary{}, err
	}

	return BreedSummary{
		Values:      offspring.Values(),
		Generation:  offspring.Generation(),
		Rates:       offspring.MutationRates(),
		Entropy:     offspring.Entropy(),
		Expressions: expressions,
	}, nil
}

type RunsRequest struct {
	Limit int
}

type RunItem struct {
	RunID        string
	CreatedAtUTC string
	Seed         int64
	Generations  int
	Lineages     int
	FounderSize  int
	BestLineage  int
	BestFitness  float64
}

func (c *Client) Runs(ctx context.Context, req RunsRequest) ([]RunItem, error) {
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]RunItem, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunItem{
			RunID:        r.ID,
			CreatedAtUTC: r.CreatedAtUTC,
			Seed:         r.Seed,
			Generations:  r.Generations,
			Lineages:     r.Lineages,
			FounderSize:  len(r.Founder),
			BestLineage:  r.BestLineage,
			BestFitness:  r.BestFitness,
		})
	}
	return out, nil
}

type LineageRequest struct {
	RunID  string
	Latest bool
	// Lineage filters to one lineage index; AllLineages keeps every one.
	Lineage int
	Limit   int
}

func (c *Client) Lineage(ctx context.Context, req LineageRequest) ([]model.LineageRecord, error) {
	if req.Limit < 0 {
		return nil, errors.New("limit must be >= 0")
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	records, ok, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("lineage not found for run id: %s", runID)
	}

	out := make([]model.LineageRecord, 0, len(records))
	for _, rec := range records {
		if req.Lineage != AllLineages && rec.Lineage != req.Lineage {
			continue
		}
		out = append(out, rec)
		if req.Limit > 0 && len(out) == req.Limit {
			break
		}
	}
	return out, nil
}

type FitnessHistoryRequest struct {
	RunID   string
	Latest  bool
	Lineage int
}

func (c *Client) FitnessHistory(ctx context.Context, req FitnessHistoryRequest) ([]float64, error) {
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetFitnessHistory(ctx, storage.FitnessHistoryKey(runID, req.Lineage))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("fitness history not found for run id %s lineage %d", runID, req.Lineage)
	}
	return history, nil
}

type ExportRequest struct {
	RunID  string
	Latest bool
	OutDir string
}

type ExportSummary struct {
	RunID     string
	Directory string
}

// Export writes a stored run as JSON and CSV files under OutDir/<run id>.
func (c *Client) Export(ctx context.Context, req ExportRequest) (ExportSummary, error) {
	if req.OutDir == "" {
		req.OutDir = defaultExportsDir
	}
	runID, err := c.resolveRunID(ctx, req.RunID, req.Latest)
	if err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	lineage, _, err := c.store.GetLineage(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	history := make(map[int][]float64, run.Lineages)
	for i := 0; i < run.Lineages; i++ {
		series, ok, err := c.store.GetFitnessHistory(ctx, storage.FitnessHistoryKey(runID, i))
		if err != nil {
			return ExportSummary{}, err
		}
		if ok {
			history[i] = series
		}
	}

	dir, err := stats.WriteRunArtifacts(req.OutDir, stats.RunArtifacts{
		Run:            run,
		Lineage:        lineage,
		FitnessHistory: history,
	})
	if err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Directory: dir}, nil
}

type SequenceStats struct {
	Length  int
	Entropy float64
	Counts  [genome.MaxValue + 1]int
}

// Stats reports the composition of a nucleotide strand.
func Stats(values []int) (SequenceStats, error) {
	seq, err := genome.New(values, rand.New(rand.NewSource(0)))
	if err != nil {
		return SequenceStats{}, err
	}
	out := SequenceStats{Length: seq.Len(), Entropy: seq.Entropy()}
	for _, v := range values {
		out.Counts[v]++
	}
	return out, nil
}

func (c *Client) resolveRunID(ctx context.Context, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either run id or latest")
	}
	if err := c.Init(ctx); err != nil {
		return "", err
	}
	if latest {
		runs, err := c.store.ListRuns(ctx, 1)
		if err != nil {
			return "", err
		}
		if len(runs) == 0 {
			return "", errors.New("no runs available")
		}
		return runs[0].ID, nil
	}
	if runID == "" {
		return "", errors.New("run id or latest is required")
	}
	return runID, nil
}
