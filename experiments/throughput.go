package experiments

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"vgcbench/experiments/metrics"
)

// RunThroughputExperiment measures how many simulations fit in a time
// budget. Engine steps dominate, so this is mostly engine throughput.
func RunThroughputExperiment(ctx context.Context, setup Setup) (string, error) {
	configs := []metrics.AgentConfig{
		{ID: 1, Duration: 100 * time.Millisecond},
		{ID: 2, Duration: 250 * time.Millisecond},
		{ID: 3, Duration: 500 * time.Millisecond},
		{ID: 4, Duration: time.Second},
	}

	dir, err := runExperiment(ctx, "throughput", setup, configs)
	if err != nil {
		return "", err
	}

	records, err := metrics.ReadMoveRecordsParquet(filepath.Join(dir, "move_records.parquet"))
	if err != nil {
		return dir, err
	}
	for _, s := range metrics.Summarize(records) {
		config := configs[s.Agent-1]
		log.Info().Msgf("agent %d (%s): %.1f simulations per second", s.Agent, budget(config), Throughput(s))
	}
	return dir, nil
}

// Throughput is the mean number of simulations per second of planning.
func Throughput(s metrics.Summary) float64 {
	if s.MeanDurationMS == 0 {
		return 0
	}
	return s.MeanSimulations / (s.MeanDurationMS / 1000)
}
