package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"digitaldna/internal/model"
)

const (
	runFile             = "run.json"
	lineageFile         = "lineage.json"
	fitnessSummaryFile  = "fitness_summary.json"
	fitnessHistoryFile  = "fitness_history.csv"
	finalSequencesFile  = "final_sequences.json"
	fitnessHistoryWidth = 3
)

// RunArtifacts is everything exported for one run. FitnessHistory is keyed
// by lineage index.
type RunArtifacts struct {
	Run            model.RunRecord
	Lineage        []model.LineageRecord
	FitnessHistory map[int][]float64
}

type SeriesSummary struct {
	Lineage     int     `json:"lineage"`
	Initial     float64 `json:"initial"`
	Final       float64 `json:"final"`
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Max         float64 `json:"max"`
	Min         float64 `json:"min"`
	Improvement float64 `json:"improvement"`
}

// WriteRunArtifacts writes the run under outDir/<run id> and returns that
// directory.
func WriteRunArtifacts(outDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(outDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, runFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, lineageFile), artifacts.Lineage); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, finalSequencesFile), finalRecords(artifacts.Lineage)); err != nil {
		return "", err
	}

	lineages := sortedLineages(artifacts.FitnessHistory)
	summaries := make([]SeriesSummary, 0, len(lineages))
	for _, l := range lineages {
		summaries = append(summaries, Summarize(l, artifacts.FitnessHistory[l]))
	}
	if err := writeJSON(filepath.Join(runDir, fitnessSummaryFile), summaries); err != nil {
		return "", err
	}
	if err := writeFitnessHistory(filepath.Join(runDir, fitnessHistoryFile), artifacts.FitnessHistory); err != nil {
		return "", err
	}
	return runDir, nil
}

// Summarize reports the spread of one lineage's fitness series.
func Summarize(lineage int, values []float64) SeriesSummary {
	out := SeriesSummary{Lineage: lineage}
	if len(values) == 0 {
		return out
	}
	out.Initial = values[0]
	out.Final = values[len(values)-1]
	out.Improvement = out.Final - out.Initial
	out.Min = values[0]
	out.Max = values[0]
	total := 0.0
	for _, value := range values {
		total += value
		if value > out.Max {
			out.Max = value
		}
		if value < out.Min {
			out.Min = value
		}
	}
	out.Mean = total / float64(len(values))
	sumSq := 0.0
	for _, value := range values {
		diff := out.Mean - value
		sumSq += diff * diff
	}
	out.Std = math.Sqrt(sumSq / float64(len(values)))
	return out
}

// ReadFitnessHistory loads the CSV written by WriteRunArtifacts.
func ReadFitnessHistory(runDir string) (map[int][]float64, bool, error) {
	file, err := os.Open(filepath.Join(runDir, fitnessHistoryFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = fitnessHistoryWidth
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return map[int][]float64{}, true, nil
		}
		return nil, false, err
	}

	history := make(map[int][]float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, false, err
		}
		lineage, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, false, fmt.Errorf("fitness history lineage: %w", err)
		}
		value, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, false, fmt.Errorf("fitness history value: %w", err)
		}
		history[lineage] = append(history[lineage], value)
	}
	return history, true, nil
}

func writeFitnessHistory(path string, history map[int][]float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"lineage", "generation", "fitness"}); err != nil {
		return err
	}
	for _, l := range sortedLineages(history) {
		for i, fitness := range history[l] {
			if err := writer.Write([]string{
				strconv.Itoa(l),
				strconv.Itoa(i + 1),
				strconv.FormatFloat(fitness, 'f', -1, 64),
			}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// finalRecords keeps the last generation of every lineage.
func finalRecords(records []model.LineageRecord) []model.LineageRecord {
	last := make(map[int]model.LineageRecord)
	for _, rec := range records {
		if prev, ok := last[rec.Lineage]; !ok || rec.Generation >= prev.Generation {
			last[rec.Lineage] = rec
		}
	}
	out := make([]model.LineageRecord, 0, len(last))
	for _, rec := range last {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Lineage < out[j].Lineage })
	return out
}

func sortedLineages(history map[int][]float64) []int {
	keys := make([]int, 0, len(history))
	for k := range history {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
