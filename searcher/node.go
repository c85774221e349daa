package searcher

import (
	"math"

	"vgcbench/game"
)

// node is one position in the search tree. Children are owned by their
// parent; parent is only followed upward during backup.
type node struct {
	parent   *node
	move     game.JointOrder // order that led here from parent
	position game.Position
	untried  []game.JointOrder
	children map[string]*node
	order    []string // child keys in insertion order
	visits   int
	value    float64
}

func newNode(parent *node, move game.JointOrder, position game.Position) *node {
	n := &node{
		parent:   parent,
		move:     move,
		position: position,
		children: map[string]*node{},
	}
	if position.Terminal {
		return n
	}

	seen := map[string]bool{}
	for _, o := range position.MyOrders() {
		key := o.Message()
		if seen[key] {
			continue
		}
		seen[key] = true
		n.untried = append(n.untried, o)
	}
	return n
}

func (n *node) terminal() bool {
	return n.position.Terminal
}

// deadEnd reports a non-terminal node with nothing left to try or descend into.
func (n *node) deadEnd() bool {
	return !n.terminal() && len(n.untried) == 0 && len(n.children) == 0
}

// popUntried removes the most recently enumerated untried order.
func (n *node) popUntried() game.JointOrder {
	last := len(n.untried) - 1
	order := n.untried[last]
	n.untried = n.untried[:last]
	return order
}

func (n *node) addChild(move game.JointOrder, position game.Position) *node {
	if n.terminal() {
		panic("terminal node cannot gain children")
	}
	key := move.Message()
	child := newNode(n, move, position)
	if _, ok := n.children[key]; !ok {
		n.order = append(n.order, key)
	}
	n.children[key] = child
	return child
}

// selectChild picks the child maximizing UCT. Unvisited children come first
// and ties go to the earliest child.
func (n *node) selectChild(exploration float64) *node {
	if len(n.order) == 0 {
		panic("node has no children to select")
	}

	policy := newUCT(exploration*exploration, float64(n.visits))
	var best *node
	bestScore := math.Inf(-1)
	for _, key := range n.order {
		child := n.children[key]
		score := math.Inf(1)
		if child.visits > 0 {
			score = policy.evaluate(child.value, float64(child.visits))
		}
		if best == nil || score > bestScore {
			best, bestScore = child, score
		}
	}
	return best
}

// mostVisited is the robust child: the most visited, earliest on ties.
func (n *node) mostVisited() *node {
	var best *node
	for _, key := range n.order {
		child := n.children[key]
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	return best
}

func (n *node) update(reward float64) *node {
	n.visits++
	n.value += reward
	return n.parent
}
