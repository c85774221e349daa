// meta/meta.go
package meta

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// SIMULATIONS defines the number of simulations per decision.
const SIMULATIONS = 100

// WITH_CUTOFF defines the rollout depth before a position is evaluated.
const WITH_CUTOFF = 50

// EXPLORATION defines the UCT exploration constant.
const EXPLORATION = 1.4142135623730951

// SLOTS defines how many battles are planned in parallel.
const SLOTS = 4

// ENGINE_COMMAND starts a simulate-battle stream on standard input/output.
var ENGINE_COMMAND = []string{"node", "pokemon-showdown", "simulate-battle"}

type Engine struct {
	// Transport is "process" or "websocket".
	Transport string   `yaml:"transport"`
	Command   []string `yaml:"command"`
	URL       string   `yaml:"url"`
}

type Search struct {
	Simulations int           `yaml:"simulations"`
	Duration    time.Duration `yaml:"duration"`
	Exploration float64       `yaml:"exploration"`
	Cutoff      int           `yaml:"cutoff"`
	Evaluator   string        `yaml:"evaluator"`
	Seed        uint64        `yaml:"seed"`
	Temperature float64       `yaml:"temperature"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Records struct {
	// Dir receives move records; empty disables them.
	Dir  string `yaml:"dir"`
	Name string `yaml:"name"`
}

// Config is everything the planner binary can be configured with.
type Config struct {
	Engine  Engine  `yaml:"engine"`
	Search  Search  `yaml:"search"`
	Slots   int     `yaml:"slots"`
	Listen  string  `yaml:"listen"`
	Logging Logging `yaml:"logging"`
	Records Records `yaml:"records"`
}

func Default() Config {
	return Config{
		Engine: Engine{
			Transport: "process",
			Command:   append([]string(nil), ENGINE_COMMAND...),
		},
		Search: Search{
			Simulations: SIMULATIONS,
			Exploration: EXPLORATION,
			Cutoff:      WITH_CUTOFF,
			Evaluator:   "terminal",
		},
		Slots:   SLOTS,
		Logging: Logging{Level: "info"},
		Records: Records{Name: "planner"},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Engine.Transport {
	case "process":
		if len(c.Engine.Command) == 0 {
			return errors.New("engine.command is required for the process transport")
		}
	case "websocket":
		if c.Engine.URL == "" {
			return errors.New("engine.url is required for the websocket transport")
		}
	default:
		return errors.Errorf("unknown engine transport %q", c.Engine.Transport)
	}
	if c.Search.Simulations <= 0 && c.Search.Duration <= 0 {
		return errors.New("search needs simulations or a duration")
	}
	switch c.Search.Evaluator {
	case "", "terminal", "hp":
	default:
		return errors.Errorf("unknown evaluator %q", c.Search.Evaluator)
	}
	if c.Slots <= 0 {
		return errors.New("slots must be positive")
	}
	return nil
}

// SetupLogging configures the global logger.
func SetupLogging(level string, pretty bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.Wrap(err, "log level")
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return nil
}
