package stats

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"digitaldna/internal/model"
)

func TestWriteRunArtifacts(t *testing.T) {
	outDir := t.TempDir()
	artifacts := RunArtifacts{
		Run: model.RunRecord{ID: "run-123", Seed: 1, Generations: 2, Lineages: 2, Founder: []int{0, 1}},
		Lineage: []model.LineageRecord{
			{Lineage: 0, Generation: 1, Values: []int{0, 1}, Fitness: 1},
			{Lineage: 0, Generation: 2, Values: []int{0, 0}, Fitness: 0},
			{Lineage: 1, Generation: 1, Values: []int{1, 1}, Fitness: 0},
			{Lineage: 1, Generation: 2, Values: []int{1, 2}, Fitness: 1},
		},
		FitnessHistory: map[int][]float64{
			1: {0, 1},
			0: {1, 0},
		},
	}

	runDir, err := WriteRunArtifacts(outDir, artifacts)
	if err != nil {
		t.Fatalf("write artifacts: %v", err)
	}
	if runDir != filepath.Join(outDir, "run-123") {
		t.Fatalf("unexpected run dir: %s", runDir)
	}
	for _, file := range []string{runFile, lineageFile, finalSequencesFile, fitnessSummaryFile, fitnessHistoryFile} {
		if _, err := os.Stat(filepath.Join(runDir, file)); err != nil {
			t.Fatalf("expected file %s: %v", file, err)
		}
	}

	history, ok, err := ReadFitnessHistory(runDir)
	if err != nil || !ok {
		t.Fatalf("read fitness history: ok=%t err=%v", ok, err)
	}
	if len(history) != 2 || history[0][0] != 1 || history[1][1] != 1 {
		t.Fatalf("unexpected history round trip: %v", history)
	}

	data, err := os.ReadFile(filepath.Join(runDir, finalSequencesFile))
	if err != nil {
		t.Fatalf("read final sequences: %v", err)
	}
	var finals []model.LineageRecord
	if err := json.Unmarshal(data, &finals); err != nil {
		t.Fatalf("decode final sequences: %v", err)
	}
	if len(finals) != 2 || finals[0].Generation != 2 || finals[1].Values[1] != 2 {
		t.Fatalf("unexpected final sequences: %+v", finals)
	}

	data, err = os.ReadFile(filepath.Join(runDir, fitnessSummaryFile))
	if err != nil {
		t.Fatalf("read summary: %v", err)
	}
	var summaries []SeriesSummary
	if err := json.Unmarshal(data, &summaries); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Lineage != 0 || summaries[0].Improvement != -1 || summaries[1].Improvement != 1 {
		t.Fatalf("unexpected summaries: %+v", summaries)
	}
}

func TestWriteRunArtifactsRequiresRunID(t *testing.T) {
	if _, err := WriteRunArtifacts(t.TempDir(), RunArtifacts{}); err == nil {
		t.Fatal("expected run id error")
	}
}

func TestReadFitnessHistoryMissing(t *testing.T) {
	history, ok, err := ReadFitnessHistory(t.TempDir())
	if err != nil || ok || history != nil {
		t.Fatalf("expected missing history, got %v %t %v", history, ok, err)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(3, []float64{1, 2, 3, 4})
	if s.Lineage != 3 || s.Initial != 1 || s.Final != 4 || s.Improvement != 3 {
		t.Fatalf("unexpected endpoints: %+v", s)
	}
	if s.Mean != 2.5 || s.Max != 4 || s.Min != 1 {
		t.Fatalf("unexpected mean/max/min: %+v", s)
	}
	if math.Abs(s.Std-math.Sqrt(1.25)) > 1e-12 {
		t.Fatalf("unexpected std: %f", s.Std)
	}
	if empty := Summarize(0, nil); empty != (SeriesSummary{}) {
		t.Fatalf("expected zero summary, got %+v", empty)
	}
}
