package searcher

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"vgcbench/game"
)

type uct struct {
	numerator float64
}

func newUCT(cSquared float64, N float64) *uct {
	if N < 0 {
		panic("N cannot be negative")
	}
	return &uct{numerator: cSquared * math.Log(N+1)}
}

func (u uct) evaluate(q float64, n float64) float64 {
	if n == 0 {
		panic("n cannot be 0")
	}
	// UCT = q/n + sqrt(c^2*ln(N+1)/n)
	return q/n + math.Sqrt(u.numerator/n)
}

// RolloutPolicy picks one of the offered orders. It must return a member of
// orders.
type RolloutPolicy func(orders []game.JointOrder) game.JointOrder

// RandomPolicy picks uniformly at random.
func RandomPolicy(r *rand.Rand) RolloutPolicy {
	return func(orders []game.JointOrder) game.JointOrder {
		return orders[r.Intn(len(orders))]
	}
}

// PolicyError reports a rollout policy that returned an order it was not
// offered.
type PolicyError struct {
	Order   string
	Offered []string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("rollout policy returned %q, not one of %d offered orders", e.Order, len(e.Offered))
}

// pick applies policy to orders, checking the result against the offer.
func pick(policy RolloutPolicy, orders []game.JointOrder) (game.JointOrder, error) {
	order := policy(orders)
	chosen := order.Message()
	offered := make([]string, len(orders))
	for i, o := range orders {
		offered[i] = o.Message()
		if offered[i] == chosen {
			return o, nil
		}
	}
	return game.JointOrder{}, &PolicyError{Order: chosen, Offered: offered}
}
