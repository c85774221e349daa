package agent

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"vgcbench/engine"
	"vgcbench/game"
)

// Pool plans several battles in parallel, one goroutine and one engine per
// slot.
type Pool struct {
	Planner *Planner
	slots   []*Slot
}

func NewPool(planner *Planner, dial Dial, size int, opts ...engine.Option) *Pool {
	if size <= 0 {
		panic("pool needs at least one slot")
	}
	p := &Pool{Planner: planner}
	for i := 0; i < size; i++ {
		p.slots = append(p.slots, NewSlot(i, dial, opts...))
	}
	return p
}

func (p *Pool) Size() int {
	return len(p.slots)
}

// Decide returns one decision per battle, in order. Battle i is planned on
// slot i modulo the pool size, so a battle keeps its engine across calls
// as long as the batch layout does not change.
func (p *Pool) Decide(ctx context.Context, battles []*game.Battle) ([]Decision, error) {
	decisions := make([]Decision, len(battles))
	g, ctx := errgroup.WithContext(ctx)
	for _, slot := range p.slots {
		g.Go(func() error {
			for i := slot.ID; i < len(battles); i += len(p.slots) {
				d, err := p.Planner.Decide(ctx, slot, battles[i])
				if err != nil {
					return err
				}
				decisions[i] = d
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return decisions, nil
}

// Close disposes of every slot's engine.
func (p *Pool) Close() error {
	var first error
	for _, slot := range p.slots {
		if err := slot.Close(); err != nil {
			log.Warn().Err(err).Int("slot", slot.ID).Msg("closing engine")
			if first == nil {
				first = err
			}
		}
	}
	return first
}
