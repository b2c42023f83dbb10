package digitaldna

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func newTestClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.StoreKind == "" {
		opts.StoreKind = "memory"
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	client, err := New(opts)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientSimulateRunsAndLineage(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{Registerer: prometheus.NewRegistry()})

	summary, err := client.Simulate(ctx, SimulateRequest{
		Seed:          9,
		Generations:   5,
		Lineages:      3,
		Workers:       2,
		FounderLength: 24,
	})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("expected run id")
	}
	if len(summary.Founder) != 24 {
		t.Fatalf("unexpected founder length: %d", len(summary.Founder))
	}
	if len(summary.Lineages) != 3 {
		t.Fatalf("unexpected lineage count: %d", len(summary.Lineages))
	}
	for _, l := range summary.Lineages {
		if l.Generation != 5 || len(l.FitnessHistory) != 5 {
			t.Fatalf("lineage %d: generation=%d history=%d", l.Lineage, l.Generation, len(l.FitnessHistory))
		}
	}

	runs, err := client.Runs(ctx, RunsRequest{Limit: 5})
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != summary.RunID {
		t.Fatalf("expected run %s in runs list: %+v", summary.RunID, runs)
	}
	if runs[0].FounderSize != 24 || runs[0].Lineages != 3 {
		t.Fatalf("unexpected run item: %+v", runs[0])
	}

	all, err := client.Lineage(ctx, LineageRequest{Latest: true, Lineage: AllLineages})
	if err != nil {
		t.Fatalf("lineage: %v", err)
	}
	if len(all) != 15 {
		t.Fatalf("expected 15 lineage records, got %d", len(all))
	}

	second, err := client.Lineage(ctx, LineageRequest{RunID: summary.RunID, Lineage: 1, Limit: 2})
	if err != nil {
		t.Fatalf("lineage filtered: %v", err)
	}
	if len(second) != 2 {
		t.Fatalf("expected 2 records, got %d", len(second))
	}
	for _, rec := range second {
		if rec.Lineage != 1 {
			t.Fatalf("unexpected lineage in filtered result: %+v", rec)
		}
	}

	history, err := client.FitnessHistory(ctx, FitnessHistoryRequest{RunID: summary.RunID, Lineage: 2})
	if err != nil {
		t.Fatalf("fitness history: %v", err)
	}
	if len(history) != 5 || history[4] != summary.Lineages[2].Fitness {
		t.Fatalf("unexpected fitness history: %v", history)
	}
}

func TestClientSimulateIsReproducible(t *testing.T) {
	ctx := context.Background()
	req := SimulateRequest{
		Seed:        21,
		Generations: 6,
		Lineages:    2,
		Initial:     []int{0, 1, 2, 3, 0, 1, 2, 3},
		Rates:       MutationRates{Point: 0.3, Insertion: 0.1, Deletion: 0.1, Duplication: 0.1, Inversion: 0.1},
	}

	a, err := newTestClient(t, Options{}).Simulate(ctx, req)
	if err != nil {
		t.Fatalf("simulate a: %v", err)
	}
	b, err := newTestClient(t, Options{}).Simulate(ctx, req)
	if err != nil {
		t.Fatalf("simulate b: %v", err)
	}
	for i := range a.Lineages {
		if !equalInts(a.Lineages[i].Values, b.Lineages[i].Values) {
			t.Fatalf("lineage %d diverged: %v vs %v", i, a.Lineages[i].Values, b.Lineages[i].Values)
		}
	}
}

func TestClientExport(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{})

	summary, err := client.Simulate(ctx, SimulateRequest{RunID: "export-run", Seed: 2, Generations: 3, Lineages: 2, FounderLength: 12})
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	outDir := t.TempDir()
	exported, err := client.Export(ctx, ExportRequest{Latest: true, OutDir: outDir})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if exported.RunID != summary.RunID || exported.Directory != filepath.Join(outDir, "export-run") {
		t.Fatalf("unexpected export summary: %+v", exported)
	}
	for _, file := range []string{"run.json", "lineage.json", "final_sequences.json", "fitness_summary.json", "fitness_history.csv"} {
		if _, err := os.Stat(filepath.Join(exported.Directory, file)); err != nil {
			t.Fatalf("expected exported file %s: %v", file, err)
		}
	}

	if _, err := client.Export(ctx, ExportRequest{RunID: "missing", OutDir: outDir}); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestClientLineageErrors(t *testing.T) {
	ctx := context.Background()
	client := newTestClient(t, Options{})

	if _, err := client.Lineage(ctx, LineageRequest{Latest: true}); err == nil {
		t.Fatal("expected error with no runs")
	}
	if _, err := client.Lineage(ctx, LineageRequest{RunID: "x", Latest: true}); err == nil {
		t.Fatal("expected error for run id with latest")
	}
	if _, err := client.Lineage(ctx, LineageRequest{RunID: "missing"}); err == nil {
		t.Fatal("expected error for missing run")
	}
	if _, err := client.Lineage(ctx, LineageRequest{RunID: "x", Limit: -1}); err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestClientBreed(t *testing.T) {
	client := newTestClient(t, Options{})

	paternal := make([]int, 96)
	maternal := make([]int, 96)
	for i := range paternal {
		paternal[i] = 3
		maternal[i] = 1
	}
	summary, err := client.Breed(context.Background(), BreedRequest{Paternal: paternal, Maternal: maternal, Seed: 4})
	if err != nil {
		t.Fatalf("breed: %v", err)
	}
	if summary.Generation != 1 {
		t.Fatalf("expected generation 1, got %d", summary.Generation)
	}
	if len(summary.Values) != 96 {
		t.Fatalf("unexpected offspring length: %d", len(summary.Values))
	}
	for _, v := range summary.Values {
		if v != 1 && v != 3 {
			t.Fatalf("offspring value %d not inherited from either parent", v)
		}
	}
	if len(summary.Expressions) != 12 {
		t.Fatalf("expected 12 expressions, got %d", len(summary.Expressions))
	}
	for _, e := range summary.Expressions {
		if e.Paternal.Value != 3 || e.Maternal.Value != 1 {
			t.Fatalf("unexpected allele values for %s: %+v %+v", e.Locus.Name, e.Paternal, e.Maternal)
		}
	}
}

func TestClientBreedRejectsInvalidParents(t *testing.T) {
	client := newTestClient(t, Options{})
	_, err := client.Breed(context.Background(), BreedRequest{Paternal: []int{0, 7}, Maternal: []int{1}})
	if !errors.Is(err, ErrInvalidNucleotide) {
		t.Fatalf("expected invalid nucleotide, got %v", err)
	}
	_, err = client.Breed(context.Background(), BreedRequest{Paternal: []int{0}, Maternal: nil})
	if !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected empty sequence, got %v", err)
	}
}

func TestClientLoadsDominanceTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.yaml")
	data := []byte("specializations:\n  night_vision:\n    dominant_patterns: [0, 1]\n    recessive_patterns: [2, 3]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write table: %v", err)
	}
	client := newTestClient(t, Options{TablePath: path})
	table := client.Table()
	if len(table) != 1 {
		t.Fatalf("expected loaded table to replace defaults, got %d entries", len(table))
	}
	if _, ok := table["night_vision"]; !ok {
		t.Fatalf("missing night_vision: %+v", table)
	}
}

func TestNewRejectsUnknownStore(t *testing.T) {
	if _, err := New(Options{StoreKind: "redis"}); err == nil {
		t.Fatal("expected unsupported store error")
	}
}

func TestStats(t *testing.T) {
	stats, err := Stats([]int{0, 1, 2, 3, 3, 3})
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Length != 6 || stats.Counts != [4]int{1, 1, 1, 3} {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.Entropy <= 0 || stats.Entropy > 2 {
		t.Fatalf("entropy out of range: %f", stats.Entropy)
	}
	if _, err := Stats(nil); !errors.Is(err, ErrEmptySequence) {
		t.Fatalf("expected empty sequence error, got %v", err)
	}
}

func TestResolverFacade(t *testing.T) {
	resolver, err := NewResolver(nil)
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	trait, err := resolver.DetermineTrait(Allele{Value: 3, Dominant: true}, Allele{Value: 1, Dominant: true}, "")
	if err != nil {
		t.Fatalf("determine trait: %v", err)
	}
	if trait != (Trait{Value: 2, Expressed: true}) {
		t.Fatalf("unexpected trait: %+v", trait)
	}
	if _, err := resolver.DetermineTrait(Allele{}, Allele{}, "telepathy"); !errors.Is(err, ErrUnknownSpecialization) {
		t.Fatalf("expected unknown specialization, got %v", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
