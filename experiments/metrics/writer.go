package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
)

// AgentConfig is one planner configuration under evaluation.
type AgentConfig struct {
	ID          int
	Simulations int
	Duration    time.Duration
	Cutoff      int
	Exploration float64
	Evaluator   string
}

type MoveRecord struct {
	Agent int // AgentConfig.ID
	MoveMetric
}

// moveRow is the columnar form of a MoveRecord.
type moveRow struct {
	Agent        int32   `parquet:"agent"`
	Battle       string  `parquet:"battle,dict"`
	Turn         int32   `parquet:"turn"`
	Role         string  `parquet:"role,dict"`
	Order        string  `parquet:"order"`
	Planned      bool    `parquet:"planned"`
	Fallback     string  `parquet:"fallback,dict"`
	DurationMS   float64 `parquet:"duration_ms"`
	Simulations  int32   `parquet:"simulations"`
	Cutoff       int32   `parquet:"cutoff"`
	Exploration  float64 `parquet:"exploration"`
	Evaluator    string  `parquet:"evaluator,dict"`
	FullPlayouts int32   `parquet:"full_playouts"`
	DeadEnds     int32   `parquet:"dead_ends"`
	EngineSteps  int32   `parquet:"engine_steps"`
	RootChildren int32   `parquet:"root_children"`
	RootVisits   int32   `parquet:"root_visits"`
}

type Writer struct {
	baseDir string
}

func NewWriter(dir, name string) (*Writer, error) {
	// Create a subfolder named by current timestamp
	timestamp := time.Now().UTC().Format("20060102T150405Z")
	baseDir := filepath.Join(dir, name, timestamp)
	err := os.MkdirAll(baseDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	return &Writer{
		baseDir: baseDir,
	}, nil
}

// Dir is where the writer stores its files.
func (w *Writer) Dir() string {
	return w.baseDir
}

func (w *Writer) WriteAgentConfigs(configs []AgentConfig) error {
	header := []string{"id", "simulations", "duration", "cutoff", "exploration", "evaluator"}
	rows := make([][]string, 0, len(configs))
	for _, config := range configs {
		rows = append(rows, []string{
			strconv.Itoa(config.ID),
			strconv.Itoa(config.Simulations),
			config.Duration.String(),
			strconv.Itoa(config.Cutoff),
			strconv.FormatFloat(config.Exploration, 'f', -1, 64),
			config.Evaluator,
		})
	}
	return w.writeCSV("agent_configs.csv", "agent config", header, rows)
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	header := []string{"agent", "battle", "turn", "role", "order", "planned", "fallback", "duration",
		"simulations", "full_playouts", "dead_ends", "engine_steps", "root_children", "root_visits"}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			strconv.Itoa(record.Agent),
			record.Battle,
			strconv.Itoa(record.Turn),
			record.Role,
			record.Order,
			strconv.FormatBool(record.Planned),
			record.Fallback,
			record.Duration.String(),
			strconv.Itoa(record.Simulations),
			strconv.Itoa(record.FullPlayouts),
			strconv.Itoa(record.DeadEnds),
			strconv.Itoa(record.EngineSteps),
			strconv.Itoa(record.RootChildren),
			strconv.Itoa(record.RootVisits),
		})
	}
	return w.writeCSV("move_records.csv", "move record", header, rows)
}

// WriteMoveRecordsParquet stores the move records in columnar form for
// analysis tools.
func (w *Writer) WriteMoveRecordsParquet(records []MoveRecord) error {
	rows := make([]moveRow, len(records))
	for i, r := range records {
		rows[i] = moveRow{
			Agent:        int32(r.Agent),
			Battle:       r.Battle,
			Turn:         int32(r.Turn),
			Role:         r.Role,
			Order:        r.Order,
			Planned:      r.Planned,
			Fallback:     r.Fallback,
			DurationMS:   float64(r.Duration) / float64(time.Millisecond),
			Simulations:  int32(r.Simulations),
			Cutoff:       int32(r.Cutoff),
			Exploration:  r.Exploration,
			Evaluator:    r.Evaluator,
			FullPlayouts: int32(r.FullPlayouts),
			DeadEnds:     int32(r.DeadEnds),
			EngineSteps:  int32(r.EngineSteps),
			RootChildren: int32(r.RootChildren),
			RootVisits:   int32(r.RootVisits),
		}
	}

	path := filepath.Join(w.baseDir, "move_records.parquet")
	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)
	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "move_record_v1"),
	); err != nil {
		return fmt.Errorf("failed to write move records parquet: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename move records parquet: %w", err)
	}
	return nil
}

// ReadMoveRecordsParquet loads records written by WriteMoveRecordsParquet.
func ReadMoveRecordsParquet(path string) ([]MoveRecord, error) {
	rows, err := parquet.ReadFile[moveRow](path)
	if err != nil {
		return nil, fmt.Errorf("failed to read move records parquet: %w", err)
	}
	records := make([]MoveRecord, len(rows))
	for i, r := range rows {
		records[i] = MoveRecord{
			Agent: int(r.Agent),
			MoveMetric: MoveMetric{
				Battle:   r.Battle,
				Turn:     int(r.Turn),
				Role:     r.Role,
				Order:    r.Order,
				Planned:  r.Planned,
				Fallback: r.Fallback,
				SearchMetric: SearchMetric{
					Duration:     time.Duration(r.DurationMS * float64(time.Millisecond)),
					Simulations:  int(r.Simulations),
					Cutoff:       int(r.Cutoff),
					Exploration:  r.Exploration,
					Evaluator:    r.Evaluator,
					FullPlayouts: int(r.FullPlayouts),
					DeadEnds:     int(r.DeadEnds),
					EngineSteps:  int(r.EngineSteps),
					RootChildren: int(r.RootChildren),
					RootVisits:   int(r.RootVisits),
				},
			},
		}
	}
	return records, nil
}

func (w *Writer) WriteSummaries(summaries []Summary) error {
	header := []string{"agent", "moves", "planned", "fallbacks", "mean_duration_ms", "stddev_duration_ms",
		"median_duration_ms", "mean_simulations", "mean_full_playouts"}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			strconv.Itoa(s.Agent),
			strconv.Itoa(s.Moves),
			strconv.Itoa(s.Planned),
			strconv.Itoa(s.Fallbacks),
			strconv.FormatFloat(s.MeanDurationMS, 'f', 3, 64),
			strconv.FormatFloat(s.StdDevDurationMS, 'f', 3, 64),
			strconv.FormatFloat(s.MedianDurationMS, 'f', 3, 64),
			strconv.FormatFloat(s.MeanSimulations, 'f', 3, 64),
			strconv.FormatFloat(s.MeanFullPlayouts, 'f', 3, 64),
		})
	}
	return w.writeCSV("summaries.csv", "summary", header, rows)
}

func (w *Writer) writeCSV(name, what string, header []string, rows [][]string) error {
	// Create a file
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s file: %w", what, err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	err = writer.Write(header)
	if err != nil {
		return fmt.Errorf("failed to write %s header: %w", what, err)
	}

	// Write each row
	for _, row := range rows {
		err = writer.Write(row)
		if err != nil {
			return fmt.Errorf("failed to write %s row: %w", what, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush %s file: %w", what, err)
	}
	return nil
}
