package experiments

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"vgcbench/agent"
	"vgcbench/experiments/metrics"
	"vgcbench/game"
	"vgcbench/searcher"
)

const (
	Repeats     = 3 // Per battle and config
	Simulations = 100
)

// Setup is what every experiment shares: the battles to plan and how to
// reach an engine.
type Setup struct {
	Battles []*game.Battle
	Dial    agent.Dial
	Slots   int
	Seed    uint64
	// Dir receives one folder per experiment run.
	Dir string
}

func RunEvaluatorExperiment(ctx context.Context, setup Setup) (string, error) {
	configs := []metrics.AgentConfig{
		{ID: 1, Simulations: Simulations, Cutoff: searcher.DefaultCutoff, Exploration: math.Sqrt2, Evaluator: "terminal"},
		{ID: 2, Simulations: Simulations, Cutoff: searcher.DefaultCutoff, Exploration: math.Sqrt2, Evaluator: "hp"},
	}
	return runExperiment(ctx, "evaluator", setup, configs)
}

func RunCutoffExperiment(ctx context.Context, setup Setup) (string, error) {
	configs := []metrics.AgentConfig{
		{ID: 1, Simulations: Simulations, Cutoff: 1, Evaluator: "hp"},
		{ID: 2, Simulations: Simulations, Cutoff: 5, Evaluator: "hp"},
		{ID: 3, Simulations: Simulations, Cutoff: 20, Evaluator: "hp"},
		{ID: 4, Simulations: Simulations, Cutoff: searcher.DefaultCutoff, Evaluator: "hp"},
	}
	return runExperiment(ctx, "cutoff", setup, configs)
}

func RunExplorationExperiment(ctx context.Context, setup Setup) (string, error) {
	configs := []metrics.AgentConfig{
		{ID: 1, Simulations: Simulations, Exploration: 0.5},
		{ID: 2, Simulations: Simulations, Exploration: 1},
		{ID: 3, Simulations: Simulations, Exploration: math.Sqrt2},
		{ID: 4, Simulations: Simulations, Exploration: 2},
	}
	return runExperiment(ctx, "exploration", setup, configs)
}

func runExperiment(ctx context.Context, name string, setup Setup, configs []metrics.AgentConfig) (string, error) {
	log.Info().Msgf("starting %s experiment over %d battles...", name, len(setup.Battles))

	records := []metrics.MoveRecord{}
	for ci, config := range configs {
		log.Info().Msgf("starting config %d of %d: %+v...", ci+1, len(configs), config)

		pool := agent.NewPool(agent.NewPlanner(CreateMCTS(config, setup.Seed), nil, setup.Seed), setup.Dial, setup.Slots)
		for i := 0; i < Repeats; i++ {
			decisions, err := pool.Decide(ctx, setup.Battles)
			if err != nil {
				pool.Close()
				return "", fmt.Errorf("config %d repeat %d: %w", config.ID, i+1, err)
			}
			for _, d := range decisions {
				records = append(records, metrics.MoveRecord{Agent: config.ID, MoveMetric: d.Metric})
			}
		}
		if err := pool.Close(); err != nil {
			log.Warn().Err(err).Msg("closing engines")
		}
		log.Info().Msgf("completed config %d of %d", ci+1, len(configs))
	}

	log.Info().Msgf("completed %s experiment", name)
	return store(name, setup.Dir, configs, records)
}

// store writes configs, records and summaries and returns the folder.
func store(name, dir string, configs []metrics.AgentConfig, records []metrics.MoveRecord) (string, error) {
	writer, err := metrics.NewWriter(dir, name)
	if err != nil {
		return "", fmt.Errorf("failed to create experiment writer: %w", err)
	}

	if err := writer.WriteAgentConfigs(configs); err != nil {
		return "", fmt.Errorf("failed to store agent configs: %w", err)
	}
	log.Info().Msg("stored agent configs")

	if err := writer.WriteMoveRecords(records); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	if err := writer.WriteMoveRecordsParquet(records); err != nil {
		return "", fmt.Errorf("failed to write move records: %w", err)
	}
	log.Info().Msg("stored move records")

	if err := writer.WriteSummaries(metrics.Summarize(records)); err != nil {
		return "", fmt.Errorf("failed to write summaries: %w", err)
	}
	log.Info().Msg("stored summaries")
	return writer.Dir(), nil
}

// CreateMCTS builds a searcher for config. Zero fields keep the searcher's
// defaults.
func CreateMCTS(config metrics.AgentConfig, seed uint64) *searcher.MCTS {
	options := []searcher.Option{searcher.WithSeed(seed)}

	if config.Simulations > 0 {
		options = append(options, searcher.WithSimulations(config.Simulations))
	}
	if config.Duration > 0 {
		options = append(options, searcher.WithDuration(config.Duration))
	}
	if config.Cutoff > 0 {
		options = append(options, searcher.WithCutoff(config.Cutoff))
	}
	if config.Exploration > 0 {
		options = append(options, searcher.WithExploration(config.Exploration))
	}
	if config.Evaluator != "" {
		options = append(options, searcher.WithEvaluator(config.Evaluator))
	}

	options = append(options, searcher.WithMetrics())
	return searcher.NewMCTS(options...)
}

// budget formats the search budget of config for logs.
func budget(config metrics.AgentConfig) string {
	if config.Duration > 0 {
		return config.Duration.String()
	}
	return fmt.Sprintf("%d simulations", config.Simulations)
}
