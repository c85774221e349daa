package game

import (
	"strconv"
	"strings"
)

// ChoosePrefix is the human-facing prefix a command carries when it is
// sent through a chat-style client. The engine's stream wants it stripped.
const ChoosePrefix = "/choose "

// DefaultCommand lets the engine pick for a side whose options are unknown.
const DefaultCommand = "default"

type OrderKind int

const (
	PassOrder OrderKind = iota
	MoveOrder
	SwitchOrder
	TeamOrder
	DefaultOrder
)

// Special is a once-per-battle action layered onto a move.
type Special int

const (
	NoSpecial Special = iota
	Terastallize
	MegaEvolve
)

func (s Special) String() string {
	switch s {
	case Terastallize:
		return "terastallize"
	case MegaEvolve:
		return "mega"
	default:
		return ""
	}
}

// Order is the sub-order for a single active slot.
type Order struct {
	Kind    OrderKind
	Move    int // 1-based move slot
	Target  int // 0 for none, 1/2 for foes, -1/-2 for own slots
	Switch  int // 1-based team position
	Special Special
	Team    string // team preview picks, e.g. "1234"
}

func Pass() Order {
	return Order{Kind: PassOrder}
}

func MoveTo(move, target int) Order {
	return Order{Kind: MoveOrder, Move: move, Target: target}
}

func SwitchTo(position int) Order {
	return Order{Kind: SwitchOrder, Switch: position}
}

// With returns a copy of o carrying the special action.
func (o Order) With(s Special) Order {
	o.Special = s
	return o
}

// Message is the engine text for the sub-order.
func (o Order) Message() string {
	switch o.Kind {
	case MoveOrder:
		parts := []string{"move", strconv.Itoa(o.Move)}
		if o.Target != 0 {
			parts = append(parts, strconv.Itoa(o.Target))
		}
		if o.Special != NoSpecial {
			parts = append(parts, o.Special.String())
		}
		return strings.Join(parts, " ")
	case SwitchOrder:
		return "switch " + strconv.Itoa(o.Switch)
	case TeamOrder:
		return "team " + o.Team
	case DefaultOrder:
		return DefaultCommand
	default:
		return "pass"
	}
}

// JointOrder is one turn's command for a whole side: one sub-order per
// active slot, fewer when fewer slots are present.
type JointOrder struct {
	Parts []Order
}

// Join combines per-slot sub-orders into a joint order.
func Join(parts ...Order) JointOrder {
	return JointOrder{Parts: parts}
}

// Message is the canonical command: the engine text without any prefix.
func (j JointOrder) Message() string {
	msgs := make([]string, len(j.Parts))
	for i, p := range j.Parts {
		msgs[i] = p.Message()
	}
	return strings.Join(msgs, ", ")
}

// Command is the human-facing form with the choose prefix.
func (j JointOrder) Command() string {
	return ChoosePrefix + j.Message()
}

func (j JointOrder) String() string {
	return j.Message()
}

// IsZero reports whether the order carries no sub-orders.
func (j JointOrder) IsZero() bool {
	return len(j.Parts) == 0
}

// Canonical strips the choose prefix from a command. Two commands with the
// same canonical form are the same order.
func Canonical(command string) string {
	c := strings.TrimSpace(command)
	c = strings.TrimPrefix(c, strings.TrimSpace(ChoosePrefix))
	return strings.TrimSpace(c)
}
