package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"digitaldna/internal/config"
	"digitaldna/pkg/digitaldna"
)

var stdout io.Writer = os.Stdout

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "simulate":
		return runSimulate(ctx, args[1:])
	case "breed":
		return runBreed(ctx, args[1:])
	case "lineage":
		return runLineage(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "table":
		return runTable(ctx, args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	common := addCommonFlags(fs)
	generations := fs.Int("generations", 0, "generations per lineage")
	lineages := fs.Int("lineages", 0, "independent lineages")
	workers := fs.Int("workers", 0, "concurrent lineage workers")
	seed := fs.Int64("seed", 0, "random seed")
	initial := fs.String("initial", "", "comma-separated founder values in [0,3]; random when empty")
	length := fs.Int("length", 64, "random founder length when -initial is empty")
	runID := fs.String("run-id", "", "explicit run id")
	metricsFile := fs.String("metrics-file", "", "write prometheus textfile metrics to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs, func(cfg *config.Config, set map[string]bool) {
		if set["generations"] {
			cfg.Simulation.Generations = *generations
		}
		if set["lineages"] {
			cfg.Simulation.Lineages = *lineages
		}
		if set["workers"] {
			cfg.Simulation.Workers = *workers
		}
		if set["seed"] {
			cfg.Simulation.Seed = *seed
		}
		if set["metrics-file"] {
			cfg.MetricsFile = *metricsFile
		}
	})
	if err != nil {
		return err
	}
	founder, err := parseValues(*initial)
	if err != nil {
		return fmt.Errorf("initial: %w", err)
	}

	var reg *prometheus.Registry
	if cfg.MetricsFile != "" {
		reg = prometheus.NewRegistry()
	}
	client, err := newClient(cfg, reg)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Simulate(ctx, digitaldna.SimulateRequest{
		RunID:         *runID,
		Seed:          cfg.Simulation.Seed,
		Generations:   cfg.Simulation.Generations,
		Lineages:      cfg.Simulation.Lineages,
		Workers:       cfg.Simulation.Workers,
		Initial:       founder,
		FounderLength: *length,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "run_id=%s lineages=%d generations=%d founder_len=%d best_lineage=%d best_fitness=%.6f\n",
		summary.RunID,
		len(summary.Lineages),
		cfg.Simulation.Generations,
		len(summary.Founder),
		summary.BestLineage,
		summary.BestFitness,
	)
	for _, l := range summary.Lineages {
		fmt.Fprintf(stdout, "lineage=%d gen=%d len=%d fitness=%.6f mutations=%d point_rate=%.6f\n",
			l.Lineage,
			l.Generation,
			len(l.Values),
			l.Fitness,
			l.Stats.Total,
			l.Rates.Point,
		)
	}

	if reg != nil {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, reg); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}

func runBreed(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("breed", flag.ContinueOnError)
	common := addCommonFlags(fs)
	paternalFlag := fs.String("paternal", "", "comma-separated paternal values")
	maternalFlag := fs.String("maternal", "", "comma-separated maternal values")
	seed := fs.Int64("seed", 1, "random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *paternalFlag == "" || *maternalFlag == "" {
		return errors.New("breed requires --paternal and --maternal")
	}
	paternal, err := parseValues(*paternalFlag)
	if err != nil {
		return fmt.Errorf("paternal: %w", err)
	}
	maternal, err := parseValues(*maternalFlag)
	if err != nil {
		return fmt.Errorf("maternal: %w", err)
	}

	cfg, err := common.load(fs, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Breed(ctx, digitaldna.BreedRequest{Paternal: paternal, Maternal: maternal, Seed: *seed})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "offspring=%s gen=%d entropy=%.6f\n", formatValues(summary.Values), summary.Generation, summary.Entropy)
	for _, e := range summary.Expressions {
		fmt.Fprintf(stdout, "trait=%s paternal=%d maternal=%d value=%d expressed=%t\n",
			e.Locus.Name,
			e.Paternal.Value,
			e.Maternal.Value,
			e.Trait.Value,
			e.Trait.Expressed,
		)
	}
	return nil
}

func runLineage(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("lineage", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "show lineage for the most recent run")
	lineage := fs.Int("lineage", digitaldna.AllLineages, "lineage index (-1 for all)")
	limit := fs.Int("limit", 50, "max lineage rows to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit lineage rows as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("lineage requires --run-id or --latest")
	}
	if *limit < 0 {
		*limit = 0
	}

	cfg, err := common.load(fs, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.Lineage(ctx, digitaldna.LineageRequest{
		RunID:   *runID,
		Latest:  *latest,
		Lineage: *lineage,
		Limit:   *limit,
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(stdout, "no lineage records")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	for _, rec := range records {
		fmt.Fprintf(stdout, "lineage=%d gen=%d len=%d fitness=%.6f distance=%.6f mutations=%d\n",
			rec.Lineage,
			rec.Generation,
			len(rec.Values),
			rec.Fitness,
			rec.Distance,
			rec.Mutations,
		)
	}
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	common := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	cfg, err := common.load(fs, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx, digitaldna.RunsRequest{Limit: *limit})
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}

	for _, r := range runs {
		fmt.Fprintf(stdout, "run_id=%s created_at=%s seed=%d gens=%d lineages=%d founder_len=%d best_lineage=%d best_fitness=%.6f\n",
			r.RunID,
			r.CreatedAtUTC,
			r.Seed,
			r.Generations,
			r.Lineages,
			r.FounderSize,
			r.BestLineage,
			r.BestFitness,
		)
	}
	return nil
}

func runTable(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("table", flag.ContinueOnError)
	common := addCommonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := common.load(fs, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	table := client.Table()
	for _, name := range table.Names() {
		p := table[name]
		fmt.Fprintf(stdout, "%s dominant=%s recessive=%s\n", name, formatValues(p.Dominant), formatValues(p.Recessive))
	}
	return nil
}

func runStats(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	valuesFlag := fs.String("values", "", "comma-separated nucleotide values")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *valuesFlag == "" {
		return errors.New("stats requires --values")
	}
	values, err := parseValues(*valuesFlag)
	if err != nil {
		return err
	}

	stats, err := digitaldna.Stats(values)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "length=%d entropy=%.6f counts=%s\n", stats.Length, stats.Entropy, formatValues(stats.Counts[:]))
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	common := addCommonFlags(fs)
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", "exports", "output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID != "" && *latest {
		return errors.New("use either --run-id or --latest, not both")
	}
	if *runID == "" && !*latest {
		return errors.New("export requires --run-id or --latest")
	}

	cfg, err := common.load(fs, nil)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	exported, err := client.Export(ctx, digitaldna.ExportRequest{RunID: *runID, Latest: *latest, OutDir: *outDir})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "exported run_id=%s dir=%s\n", exported.RunID, exported.Directory)
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: dnactl <simulate|breed|lineage|runs|export|table|stats> [flags]", msg)
}

func formatValues(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
