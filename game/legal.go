package game

import (
	"strconv"
	"strings"
)

// SlotOrders returns the individually valid sub-orders of every active
// slot in req. A nil, waiting or team-preview request yields none.
func SlotOrders(req *Request) [][]Order {
	if req == nil || req.Wait || req.TeamPreview {
		return nil
	}

	bench := benchPositions(req)

	if len(req.ForceSwitch) > 0 {
		forced := 0
		for _, f := range req.ForceSwitch {
			if f {
				forced++
			}
		}
		slots := make([][]Order, len(req.ForceSwitch))
		for i, f := range req.ForceSwitch {
			if !f {
				slots[i] = []Order{Pass()}
				continue
			}
			options := switchOrders(bench)
			// Not enough healthy reserves for every forced slot: one may pass.
			if len(bench) < forced {
				options = append(options, Pass())
			}
			slots[i] = options
		}
		return slots
	}

	slots := make([][]Order, len(req.Active))
	for i, active := range req.Active {
		if i < len(req.Side.Pokemon) && req.Side.Pokemon[i].Fainted() {
			slots[i] = []Order{Pass()}
			continue
		}

		var options []Order
		for j, m := range active.Moves {
			if m.Disabled || (m.MaxPP > 0 && m.PP <= 0) {
				continue
			}
			for _, target := range moveTargets(m.Target, i, len(req.Active)) {
				options = append(options, MoveTo(j+1, target))
				if active.CanTerastallize != "" {
					options = append(options, MoveTo(j+1, target).With(Terastallize))
				}
				if active.CanMegaEvo {
					options = append(options, MoveTo(j+1, target).With(MegaEvolve))
				}
			}
		}
		if !active.Trapped {
			options = append(options, switchOrders(bench)...)
		}
		if len(options) == 0 {
			options = []Order{Pass()}
		}
		slots[i] = options
	}
	return slots
}

// LegalJointOrders combines the per-slot sub-orders of req into joint
// orders. Combinations that send two slots to the same reserve, use a
// once-per-turn special action twice or leave a forced slot empty while a
// reserve could fill it are dropped.
func LegalJointOrders(req *Request) []JointOrder {
	if req == nil || req.Wait {
		return nil
	}
	if req.TeamPreview {
		return []JointOrder{Join(Order{Kind: TeamOrder, Team: teamPicks(req)})}
	}

	slots := SlotOrders(req)
	switch len(slots) {
	case 0:
		return nil
	case 1:
		orders := make([]JointOrder, 0, len(slots[0]))
		for _, o := range slots[0] {
			if !tooManyPasses(req, o) {
				orders = append(orders, Join(o))
			}
		}
		return orders
	}

	orders := make([]JointOrder, 0, len(slots[0])*len(slots[1]))
	for _, first := range slots[0] {
		for _, second := range slots[1] {
			if compatible(first, second) && !tooManyPasses(req, first, second) {
				orders = append(orders, Join(first, second))
			}
		}
	}
	return orders
}

func compatible(first, second Order) bool {
	if first.Kind == SwitchOrder && second.Kind == SwitchOrder && first.Switch == second.Switch {
		return false
	}
	if first.Special != NoSpecial && first.Special == second.Special {
		return false
	}
	return true
}

// tooManyPasses reports whether a forced switch passes on more slots than
// there are missing healthy reserves.
func tooManyPasses(req *Request, orders ...Order) bool {
	if len(req.ForceSwitch) == 0 {
		return false
	}
	forced, passes := 0, 0
	for i, f := range req.ForceSwitch {
		if !f {
			continue
		}
		forced++
		if i < len(orders) && orders[i].Kind == PassOrder {
			passes++
		}
	}
	return passes > max(forced-len(benchPositions(req)), 0)
}

// moveTargets lists the target arguments a move accepts from the given
// slot. Zero means the move takes no target.
func moveTargets(target string, slot, actives int) []int {
	self := -(slot + 1)
	ally := 0
	if actives > 1 {
		ally = -(2 - slot)
	}

	switch target {
	case "normal", "any":
		if ally != 0 {
			return []int{1, 2, ally}
		}
		return []int{1, 2}
	case "adjacentFoe":
		return []int{1, 2}
	case "adjacentAlly":
		if ally != 0 {
			return []int{ally}
		}
		return nil
	case "adjacentAllyOrSelf":
		if ally != 0 {
			return []int{self, ally}
		}
		return []int{self}
	default:
		return []int{0}
	}
}

func benchPositions(req *Request) []int {
	var positions []int
	for i, p := range req.Side.Pokemon {
		if p.Active || p.Fainted() || p.Reviving {
			continue
		}
		positions = append(positions, i+1)
	}
	return positions
}

func switchOrders(positions []int) []Order {
	orders := make([]Order, len(positions))
	for i, p := range positions {
		orders[i] = SwitchTo(p)
	}
	return orders
}

func teamPicks(req *Request) string {
	n := req.MaxChosenTeamSize
	if n <= 0 || n > len(req.Side.Pokemon) {
		n = len(req.Side.Pokemon)
	}
	var b strings.Builder
	for i := 1; i <= n; i++ {
		b.WriteString(strconv.Itoa(i))
	}
	return b.String()
}
