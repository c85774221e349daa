package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"vgcbench/agent"
	"vgcbench/engine"
	"vgcbench/experiments"
	"vgcbench/experiments/metrics"
	"vgcbench/game"
	"vgcbench/meta"
	"vgcbench/searcher"
)

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	simulations := flag.Int("simulations", meta.SIMULATIONS, "Number of simulations per decision")
	duration := flag.Duration("duration", 0, "Time budget per decision, instead of or on top of simulations")
	cutoff := flag.Int("cutoff", meta.WITH_CUTOFF, "Rollout depth before the position is evaluated")
	exploration := flag.Float64("exploration", meta.EXPLORATION, "UCT exploration constant")
	evaluator := flag.String("evaluator", "terminal", "Cutoff evaluator: terminal or hp")
	seed := flag.Uint64("seed", 0, "Random seed, 0 for a time-based seed")
	temperature := flag.Float64("temperature", 0, "Sample root children by visits with this temperature, 0 for the most visited")
	slots := flag.Int("slots", meta.SLOTS, "Battles planned in parallel, one engine each")
	engineURL := flag.String("engine-url", "", "Websocket URL of a simulate-battle server instead of a local subprocess")
	listen := flag.String("listen", "", "Serve the planner over HTTP on this address")
	experiment := flag.String("experiment", "", "Run an experiment over the battle files: evaluator, cutoff, exploration or throughput")
	records := flag.String("records", "", "Directory for move records")
	logLevel := flag.String("log-level", "info", "Log level")
	pretty := flag.Bool("pretty", false, "Human-readable logs")
	flag.Parse()

	cfg := meta.Default()
	if *configPath != "" {
		loaded, err := meta.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
	}

	// Flags given on the command line win over the file
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "simulations":
			cfg.Search.Simulations = *simulations
		case "duration":
			cfg.Search.Duration = *duration
		case "cutoff":
			cfg.Search.Cutoff = *cutoff
		case "exploration":
			cfg.Search.Exploration = *exploration
		case "evaluator":
			cfg.Search.Evaluator = *evaluator
		case "seed":
			cfg.Search.Seed = *seed
		case "temperature":
			cfg.Search.Temperature = *temperature
		case "slots":
			cfg.Slots = *slots
		case "engine-url":
			cfg.Engine.Transport = "websocket"
			cfg.Engine.URL = *engineURL
		case "listen":
			cfg.Listen = *listen
		case "records":
			cfg.Records.Dir = *records
		case "log-level":
			cfg.Logging.Level = *logLevel
		case "pretty":
			cfg.Logging.Pretty = *pretty
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}
	if err := meta.SetupLogging(cfg.Logging.Level, cfg.Logging.Pretty); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *experiment, flag.Args()); err != nil {
		log.Error().Err(err).Msg("planner failed")
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg meta.Config, experiment string, paths []string) error {
	dial := dialer(ctx, cfg.Engine)

	if experiment != "" {
		return runExperiment(ctx, cfg, experiment, dial, paths)
	}

	pool := agent.NewPool(newPlanner(cfg), dial, cfg.Slots)
	defer pool.Close()

	if cfg.Listen != "" {
		return agent.NewServer(pool).ListenAndServe(ctx, cfg.Listen)
	}

	battles, err := loadBattles(paths)
	if err != nil {
		return err
	}
	if len(battles) == 0 {
		return fmt.Errorf("no battle files given")
	}

	decisions, err := pool.Decide(ctx, battles)
	if err != nil {
		return err
	}
	for _, d := range decisions {
		fmt.Printf("%s\t%s\n", d.Metric.Battle, d.Command)
	}

	if cfg.Records.Dir == "" {
		return nil
	}
	return writeRecords(cfg.Records, decisions)
}

func runExperiment(ctx context.Context, cfg meta.Config, name string, dial agent.Dial, paths []string) error {
	battles, err := loadBattles(paths)
	if err != nil {
		return err
	}
	dir := cfg.Records.Dir
	if dir == "" {
		dir = "experiments"
	}
	setup := experiments.Setup{Battles: battles, Dial: dial, Slots: cfg.Slots, Seed: cfg.Search.Seed, Dir: dir}

	var out string
	switch name {
	case "evaluator":
		out, err = experiments.RunEvaluatorExperiment(ctx, setup)
	case "cutoff":
		out, err = experiments.RunCutoffExperiment(ctx, setup)
	case "exploration":
		out, err = experiments.RunExplorationExperiment(ctx, setup)
	case "throughput":
		out, err = experiments.RunThroughputExperiment(ctx, setup)
	default:
		return fmt.Errorf("unknown experiment %q", name)
	}
	if err != nil {
		return err
	}
	log.Info().Msgf("experiment results stored in %s", out)
	return nil
}

func newPlanner(cfg meta.Config) *agent.Planner {
	options := []searcher.Option{
		searcher.WithSimulations(cfg.Search.Simulations),
		searcher.WithDuration(cfg.Search.Duration),
		searcher.WithCutoff(cfg.Search.Cutoff),
		searcher.WithExploration(cfg.Search.Exploration),
		searcher.WithMetrics(),
	}
	if cfg.Search.Evaluator != "" {
		options = append(options, searcher.WithEvaluator(cfg.Search.Evaluator))
	}
	seed := cfg.Search.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	options = append(options, searcher.WithSeed(seed))

	planner := agent.NewPlanner(searcher.NewMCTS(options...), nil, seed)
	planner.Temperature = cfg.Search.Temperature
	return planner
}

// dialer connects to the configured engine. Spawned engines live as long as
// ctx.
func dialer(ctx context.Context, cfg meta.Engine) agent.Dial {
	if cfg.Transport == "websocket" {
		return func(dialCtx context.Context) (engine.Conn, error) {
			return engine.DialWebsocket(dialCtx, cfg.URL)
		}
	}
	return func(context.Context) (engine.Conn, error) {
		return engine.Spawn(ctx, cfg.Command)
	}
}

// loadBattles reads battle files holding either one battle or an array of
// battles.
func loadBattles(paths []string) ([]*game.Battle, error) {
	var battles []*game.Battle
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = bytes.TrimSpace(data)
		if len(data) > 0 && data[0] == '[' {
			var raws []json.RawMessage
			if err := json.Unmarshal(data, &raws); err != nil {
				return nil, fmt.Errorf("%s: %w", path, err)
			}
			for _, raw := range raws {
				b, err := game.ParseBattle(raw)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				battles = append(battles, b)
			}
			continue
		}
		b, err := game.ParseBattle(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		battles = append(battles, b)
	}
	return battles, nil
}

func writeRecords(cfg meta.Records, decisions []agent.Decision) error {
	writer, err := metrics.NewWriter(cfg.Dir, cfg.Name)
	if err != nil {
		return err
	}
	records := make([]metrics.MoveRecord, len(decisions))
	for i, d := range decisions {
		records[i] = metrics.MoveRecord{MoveMetric: d.Metric}
	}
	if err := writer.WriteMoveRecords(records); err != nil {
		return err
	}
	if err := writer.WriteMoveRecordsParquet(records); err != nil {
		return err
	}
	log.Info().Msgf("stored move records in %s", writer.Dir())
	return nil
}
