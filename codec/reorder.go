package codec

import (
	"fmt"

	"vgcbench/game"
)

// MaxActive is the number of active slots per side in doubles.
const MaxActive = 2

// OrderTeam returns the side's team with the active combatants first, in
// slot order, followed by everyone else in their original relative order.
// The engine derives slot references from list positions, so this must
// hold for every serialized side. When Active is empty the per-combatant
// Active flags are used instead, in team order.
//
// A side referencing more than two active slots is a programming error.
func OrderTeam(side *game.Side) (ordered []*game.Pokemon, actives int) {
	if len(side.Active) > MaxActive {
		panic(fmt.Sprintf("side %s references %d active slots", side.Role, len(side.Active)))
	}

	var front []*game.Pokemon
	if len(side.Active) > 0 {
		for _, p := range side.Active {
			if p != nil && !contains(front, p) {
				front = append(front, p)
			}
		}
	} else {
		for _, p := range side.Team {
			if p.Active {
				front = append(front, p)
			}
		}
		if len(front) > MaxActive {
			panic(fmt.Sprintf("side %s flags %d combatants active", side.Role, len(front)))
		}
	}

	ordered = make([]*game.Pokemon, 0, len(side.Team)+len(front))
	ordered = append(ordered, front...)
	for _, p := range side.Team {
		if !contains(front, p) {
			ordered = append(ordered, p)
		}
	}
	return ordered, len(front)
}

func contains(list []*game.Pokemon, p *game.Pokemon) bool {
	for _, q := range list {
		if q == p {
			return true
		}
	}
	return false
}
