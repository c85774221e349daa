package agent

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/exp/rand"

	"vgcbench/codec"
	"vgcbench/engine"
	"vgcbench/experiments/metrics"
	"vgcbench/game"
	"vgcbench/searcher"
)

// Fallback chooses an order without searching.
type Fallback func(b *game.Battle) game.JointOrder

// Decision is the order chosen for one battle.
type Decision struct {
	Order   game.JointOrder
	Command string
	Metric  metrics.MoveMetric
}

// Planner searches battles through a slot's engine, falling back when the
// battle needs no search or the search fails.
type Planner struct {
	MCTS     *searcher.MCTS
	Fallback Fallback
	// Temperature above zero samples the root children by visit count
	// instead of taking the most visited one.
	Temperature float64

	mu  sync.Mutex
	rng *rand.Rand
}

func NewPlanner(mcts *searcher.MCTS, fallback Fallback, seed uint64) *Planner {
	if fallback == nil {
		fallback = RandomFallback(seed)
	}
	return &Planner{MCTS: mcts, Fallback: fallback, rng: rand.New(rand.NewSource(seed + 1))}
}

// RandomFallback picks uniformly among the battle's own legal orders, or
// lets the engine decide when there are none.
func RandomFallback(seed uint64) Fallback {
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed))
	return func(b *game.Battle) game.JointOrder {
		orders := game.LegalJointOrders(b.Me().ActiveRequest)
		if len(orders) == 0 {
			return game.Join(game.Order{Kind: game.DefaultOrder})
		}
		mu.Lock()
		defer mu.Unlock()
		return orders[rng.Intn(len(orders))]
	}
}

var defaultFallback = RandomFallback(1)

// Config describes the engine a battle needs.
func Config(b *game.Battle) engine.Config {
	role, foeRole := b.Roles()
	return engine.Config{
		Format:  b.Format,
		Role:    role,
		OppRole: foeRole,
		Teams: map[string]string{
			role:    b.Me().PackedTeam,
			foeRole: b.Foe().PackedTeam,
		},
	}
}

// skipReason explains why a battle is not searched, or is empty.
func skipReason(b *game.Battle) string {
	me := b.Me()
	switch {
	case b.Ended:
		return "finished"
	case me.Waiting():
		return "waiting"
	case me.ActiveRequest.TeamPreview:
		return "team preview"
	case len(game.LegalJointOrders(me.ActiveRequest)) == 0:
		return "no legal orders"
	}
	return ""
}

// Decide chooses the order for b. Cancellation of ctx and a rollout policy
// returning an order it was not offered are returned as errors; every other
// failure falls back.
func (p *Planner) Decide(ctx context.Context, slot *Slot, b *game.Battle) (Decision, error) {
	role, _ := b.Roles()
	metric := metrics.MoveMetric{Battle: b.Tag, Turn: b.Turn, Role: role}

	if reason := skipReason(b); reason != "" {
		return p.fallback(b, metric, reason), nil
	}

	cfg := Config(b)
	snapshot := codec.Serialize(b)
	// The engine reports winners by registered name.
	for i := range snapshot.Sides {
		snapshot.Sides[i].Name = cfg.Name(snapshot.Sides[i].ID)
	}

	process, root, err := slot.Engine(ctx, cfg, snapshot)
	if err != nil {
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}
		log.Warn().Err(err).Str("battle", b.Tag).Msg("engine unavailable")
		return p.fallback(b, metric, "engine unavailable"), nil
	}

	result, search, err := p.MCTS.Search(process, root)
	metric.SearchMetric = search
	if err != nil {
		var violation *searcher.PolicyError
		if errors.As(err, &violation) {
			slot.Close()
			return Decision{}, err
		}
		if !errors.Is(err, searcher.ErrNoDecision) {
			// The engine may hold a half-played turn.
			slot.Close()
		}
		if ctx.Err() != nil {
			return Decision{}, ctx.Err()
		}
		log.Warn().Err(err).Str("battle", b.Tag).Int("turn", b.Turn).Msg("search failed")
		return p.fallback(b, metric, "search failed"), nil
	}

	chosen := p.choose(result)
	order, ok := legal(b, chosen)
	if !ok {
		log.Warn().Str("battle", b.Tag).Str("order", chosen.Message()).Msg("searched order is not legal in the battle")
		return p.fallback(b, metric, "illegal order"), nil
	}

	metric.Planned = true
	metric.Order = order.Message()
	log.Info().Str("battle", b.Tag).Int("turn", b.Turn).Int("simulations", search.Simulations).Msgf("chose %s", metric.Order)
	return Decision{Order: order, Command: order.Command(), Metric: metric}, nil
}

func (p *Planner) fallback(b *game.Battle, metric metrics.MoveMetric, reason string) Decision {
	choose := p.Fallback
	if choose == nil {
		choose = defaultFallback
	}
	order := choose(b)
	metric.Fallback = reason
	metric.Order = order.Message()
	log.Debug().Str("battle", b.Tag).Str("reason", reason).Msgf("fallback %s", metric.Order)
	return Decision{Order: order, Command: order.Command(), Metric: metric}
}

func (p *Planner) choose(result searcher.Result) game.JointOrder {
	if p.Temperature <= 0 || p.rng == nil {
		return result.Order
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	probs := adjustTemperature(result.Children, p.Temperature)
	return sample(result.Children, probs, p.rng.Float64()).Order
}

// legal maps a searched order onto the battle's own legal orders.
func legal(b *game.Battle, order game.JointOrder) (game.JointOrder, bool) {
	want := game.Canonical(order.Message())
	for _, o := range game.LegalJointOrders(b.Me().ActiveRequest) {
		if o.Message() == want {
			return o, true
		}
	}
	return game.JointOrder{}, false
}
