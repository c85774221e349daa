package game

// Rewards for a finished battle, from the controlled side's perspective.
const (
	Win  = 1.0
	Loss = -Win
	Tie  = 0.0
)

// Position is what one engine call leaves behind, seen from the controlled
// side. Key is the canonical snapshot the engine reported; it is the only
// thing needed to put the engine back into this position.
type Position struct {
	Key      string
	Role     string
	Mine     *Request
	Theirs   *Request
	Terminal bool
	Reward   float64
	Winner   string

	// Remaining hit points over the whole team, as a fraction of the maximum.
	// HPKnown is false when the engine record could not be read.
	MyHP    float64
	TheirHP float64
	HPKnown bool
}

// MyOrders enumerates the controlled side's legal joint orders.
func (p Position) MyOrders() []JointOrder {
	return LegalJointOrders(p.Mine)
}

// TheirOrders enumerates the opponent's legal joint orders.
func (p Position) TheirOrders() []JointOrder {
	return LegalJointOrders(p.Theirs)
}

// Evaluate scores a position between -1 and 1 from the controlled side's
// perspective.
type Evaluate func(Position) float64
