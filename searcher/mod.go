package searcher

import (
	"math"

	"vgcbench/game"
)

// Hyperparameters for MCTS

const DefaultExploration = math.Sqrt2 // C in the UCT formula
const DefaultCutoff = 50              // Rollout depth before the position is evaluated

// Simulator advances a battle by one turn. Key identifies the position the
// commands apply to; implementations restore it first when needed.
type Simulator interface {
	Step(key, mine, theirs string) (game.Position, error)
}

// Evaluators are the named cutoff evaluators.
var Evaluators = map[string]game.Evaluate{
	"terminal": game.EvaluateTerminal,
	"hp":       game.EvaluateHP,
}
