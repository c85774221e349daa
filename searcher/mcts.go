package searcher

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"vgcbench/experiments/metrics"
	"vgcbench/game"
)

// ErrNoDecision is returned when the root gained no children.
var ErrNoDecision = errors.New("search produced no decision")

type Option func(mcts *MCTS)

// MCTS holds search settings. A Search call owns its tree and random
// source, so one MCTS may serve several goroutines.
type MCTS struct {
	simulations int
	duration    time.Duration
	exploration float64
	cutoff      int
	policy      RolloutPolicy
	evaluate    game.Evaluate
	evaluator   string
	seed        uint64
	collector   func() metrics.Collector
}

// Child summarizes one root child after a search.
type Child struct {
	Order  game.JointOrder
	Visits int
	Value  float64
}

// Result is the outcome of a search: the chosen order and the root's
// children in insertion order.
type Result struct {
	Order    game.JointOrder
	Visits   int
	Children []Child
}

func WithSimulations(simulations int) Option {
	return func(m *MCTS) {
		if simulations > 0 {
			m.simulations = simulations
		}
	}
}

// WithDuration bounds the search by wall time. The budget is checked
// between simulations; an engine step in flight is never interrupted.
func WithDuration(duration time.Duration) Option {
	return func(m *MCTS) {
		if duration > 0 {
			m.duration = duration
		}
	}
}

func WithExploration(c float64) Option {
	return func(m *MCTS) {
		if c >= 0 {
			m.exploration = c
		}
	}
}

func WithCutoff(depth int) Option {
	return func(m *MCTS) {
		if depth > 0 {
			m.cutoff = depth
		}
	}
}

// WithRolloutPolicy replaces uniform random choice for both sides during
// expansion and rollout.
func WithRolloutPolicy(policy RolloutPolicy) Option {
	return func(m *MCTS) {
		if policy != nil {
			m.policy = policy
		}
	}
}

func WithEvaluationFn(evaluate game.Evaluate) Option {
	return func(m *MCTS) {
		if evaluate != nil {
			m.evaluate = evaluate
			m.evaluator = "custom"
		}
	}
}

// WithEvaluator selects one of Evaluators by name. Unknown names panic.
func WithEvaluator(name string) Option {
	return func(m *MCTS) {
		evaluate, ok := Evaluators[name]
		if !ok {
			panic("unknown evaluator " + name)
		}
		m.evaluate = evaluate
		m.evaluator = name
	}
}

func WithSeed(seed uint64) Option {
	return func(m *MCTS) {
		m.seed = seed
	}
}

func WithMetrics() Option {
	return func(m *MCTS) {
		m.collector = metrics.NewCollector
	}
}

func NewMCTS(options ...Option) *MCTS {
	m := &MCTS{ // Default values
		exploration: DefaultExploration,
		cutoff:      DefaultCutoff,
		evaluate:    game.EvaluateTerminal,
		evaluator:   "terminal",
		collector:   metrics.NewDummyCollector,
	}
	for _, option := range options {
		option(m)
	}
	if m.simulations <= 0 && m.duration <= 0 {
		panic("Must specify search simulations or duration")
	}
	return m
}

func (m *MCTS) Simulations() int {
	return m.simulations
}

func (m *MCTS) Duration() time.Duration {
	return m.duration
}

func (m *MCTS) Exploration() float64 {
	return m.exploration
}

func (m *MCTS) Cutoff() int {
	return m.cutoff
}

func (m *MCTS) Evaluator() string {
	return m.evaluator
}

// Search runs the simulation budget from root and returns the most visited
// root child. Simulator errors end the search and are returned unchanged.
func (m *MCTS) Search(sim Simulator, root game.Position) (Result, metrics.SearchMetric, error) {
	tree, metric, err := m.search(sim, root)
	if err != nil {
		return Result{}, metric, err
	}

	best := tree.mostVisited()
	if best == nil {
		return Result{}, metric, ErrNoDecision
	}
	result := Result{Order: best.move, Visits: tree.visits}
	for _, key := range tree.order {
		child := tree.children[key]
		result.Children = append(result.Children, Child{Order: child.move, Visits: child.visits, Value: child.value})
	}
	return result, metric, nil
}

// BestChild applies the robust-child rule to a search result: the most
// visited child, the earliest one on ties.
func BestChild(children []Child) (Child, bool) {
	if len(children) == 0 {
		return Child{}, false
	}
	best := children[0]
	for _, c := range children[1:] {
		if c.Visits > best.Visits {
			best = c
		}
	}
	return best, true
}

func (m *MCTS) search(sim Simulator, root game.Position) (*node, metrics.SearchMetric, error) {
	r := &run{
		MCTS:    m,
		sim:     sim,
		rng:     m.source(),
		metrics: m.collector(),
	}
	r.metrics.Start(m.cutoff, m.exploration, m.evaluator)

	tree := newNode(nil, game.JointOrder{}, root)
	start := time.Now()
	for i := 0; m.remaining(i, start); i++ {
		if tree.terminal() || tree.deadEnd() {
			log.Debug().Bool("terminal", tree.terminal()).Msg("root has nothing to search")
			break
		}
		if err := r.simulate(tree); err != nil {
			r.metrics.SetRoot(len(tree.children), tree.visits)
			return nil, r.metrics.Complete(), err
		}
		r.metrics.AddSimulation()
	}

	r.metrics.SetRoot(len(tree.children), tree.visits)
	return tree, r.metrics.Complete(), nil
}

func (m *MCTS) remaining(done int, start time.Time) bool {
	if m.simulations > 0 && done >= m.simulations {
		return false
	}
	if m.duration > 0 && time.Since(start) >= m.duration {
		return false
	}
	return true
}

func (m *MCTS) source() *rand.Rand {
	seed := m.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewSource(seed))
}

// run is the state of one Search call.
type run struct {
	*MCTS
	sim     Simulator
	rng     *rand.Rand
	metrics metrics.Collector
}

func (r *run) simulate(root *node) error {
	leaf, err := r.selectThenExpand(root)
	if err != nil {
		return err
	}
	reward, err := r.rollout(leaf)
	if err != nil {
		return err
	}
	backup(leaf, reward)
	return nil
}

func (r *run) selectThenExpand(root *node) (*node, error) {
	n := root
	for !n.terminal() {
		if len(n.untried) > 0 {
			return r.expand(n)
		}
		if len(n.children) == 0 {
			r.metrics.AddDeadEnd()
			return n, nil
		}
		n = n.selectChild(r.exploration)
	}
	return n, nil
}

func (r *run) expand(n *node) (*node, error) {
	order := n.popUntried()
	position, err := r.step(n.position, order)
	if err != nil {
		return nil, err
	}
	return n.addChild(order, position), nil
}

// rollout plays from n until the battle ends, no order is available or the
// cutoff is reached. Terminal nodes return their reward without stepping.
func (r *run) rollout(n *node) (float64, error) {
	position := n.position
	if position.Terminal {
		r.metrics.AddFullPlayout()
		return position.Reward, nil
	}

	for depth := 0; depth < r.cutoff; depth++ {
		orders := position.MyOrders()
		if len(orders) == 0 {
			break
		}
		mine, err := r.choose(orders)
		if err != nil {
			return 0, err
		}
		next, err := r.step(position, mine)
		if err != nil {
			return 0, err
		}
		if next.Terminal {
			r.metrics.AddFullPlayout()
			return next.Reward, nil
		}
		position = next
	}

	// At cutoff or a dead end, score the position from our perspective
	return r.evaluate(position), nil
}

func (r *run) step(position game.Position, mine game.JointOrder) (game.Position, error) {
	theirs, err := r.opponentCommand(position)
	if err != nil {
		return game.Position{}, err
	}
	r.metrics.AddEngineStep()
	return r.sim.Step(position.Key, mine.Message(), theirs)
}

// opponentCommand chooses among the opponent's legal orders, or lets the
// engine decide when none can be enumerated.
func (r *run) opponentCommand(position game.Position) (string, error) {
	orders := position.TheirOrders()
	if len(orders) == 0 {
		return game.DefaultCommand, nil
	}
	order, err := r.choose(orders)
	if err != nil {
		return "", err
	}
	return order.Message(), nil
}

func (r *run) choose(orders []game.JointOrder) (game.JointOrder, error) {
	if r.policy != nil {
		return pick(r.policy, orders)
	}
	return orders[r.rng.Intn(len(orders))], nil
}

func backup(leaf *node, reward float64) {
	n := leaf
	for n != nil {
		n = n.update(reward)
	}
}
