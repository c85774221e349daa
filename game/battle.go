package game

import (
	"encoding/json"
	"fmt"
)

// Roles are the two canonical side tags the engine knows.
const (
	P1 = "p1"
	P2 = "p2"
)

// Opponent returns the other canonical role.
func Opponent(role string) string {
	if role == P2 {
		return P1
	}
	return P2
}

// Effect is a field effect together with the turn it started on.
type Effect struct {
	ID   string `json:"id"`
	Turn int    `json:"turn"`
}

// Battle is the caller's view of a doubles battle. Sides[0] is always the
// locally controlled side; Sides[1] is what is known about the opponent.
type Battle struct {
	Tag     string         `json:"tag"`
	Format  string         `json:"format"`
	Turn    int            `json:"turn"`
	Ended   bool           `json:"ended"`
	Rated   bool           `json:"rated"`
	Weather Effect         `json:"weather"`
	Terrain Effect         `json:"terrain"`
	Fields  map[string]int `json:"fields"`
	Sides   [2]*Side       `json:"sides"`
}

// Me returns the locally controlled side.
func (b *Battle) Me() *Side {
	return b.Sides[0]
}

// Foe returns the opposing side.
func (b *Battle) Foe() *Side {
	return b.Sides[1]
}

// Roles returns the controlled and opposing roles, filling in canonical
// tags where the battle leaves them blank or equal.
func (b *Battle) Roles() (role, foeRole string) {
	role = b.Me().Role
	if role == "" {
		role = P1
	}
	foeRole = b.Foe().Role
	if foeRole == "" || foeRole == role {
		foeRole = Opponent(role)
	}
	return role, foeRole
}

// ParseBattle decodes a battle and resolves the active slots of both sides.
func ParseBattle(data []byte) (*Battle, error) {
	var b Battle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	for i, s := range b.Sides {
		if s == nil {
			return nil, fmt.Errorf("battle %q: side %d missing", b.Tag, i+1)
		}
		s.Link()
	}
	return &b, nil
}

// Side is one half of the battle.
type Side struct {
	Role       string         `json:"role"`
	Name       string         `json:"name"`
	PackedTeam string         `json:"packedTeam"`
	Team       []*Pokemon     `json:"team"`
	Conditions map[string]int `json:"conditions"`

	// Active holds the occupants of slot a and slot b. A nil entry is an
	// empty slot. Pointers refer into Team.
	Active []*Pokemon `json:"-"`
	// ActiveIdx is the serialized form of Active: team indices, -1 for
	// an empty slot.
	ActiveIdx []int `json:"active"`

	// ActiveRequest is the last legality request seen for this side. Nil
	// means no legal-order query is currently possible.
	ActiveRequest *Request `json:"activeRequest,omitempty"`

	ZMoveUsed   bool `json:"zMoveUsed"`
	DynamaxUsed bool `json:"dynamaxUsed"`
}

// Link resolves ActiveIdx into Active after the side was decoded.
func (s *Side) Link() {
	if len(s.ActiveIdx) == 0 {
		return
	}
	s.Active = make([]*Pokemon, len(s.ActiveIdx))
	for i, idx := range s.ActiveIdx {
		if idx >= 0 && idx < len(s.Team) {
			s.Active[i] = s.Team[idx]
		}
	}
}

// Waiting reports whether the side has nothing to decide right now.
func (s *Side) Waiting() bool {
	return s.ActiveRequest == nil || s.ActiveRequest.Wait
}

// Pokemon is one combatant record.
type Pokemon struct {
	Species     string         `json:"species"`
	BaseSpecies string         `json:"baseSpecies"`
	Name        string         `json:"name"`
	Details     string         `json:"details"`
	Types       []string       `json:"types"`
	TeraType    string         `json:"teraType"`
	Level       int            `json:"level"`
	Gender      string         `json:"gender"`
	Shiny       bool           `json:"shiny"`
	HP          int            `json:"hp"`
	MaxHP       int            `json:"maxhp"`
	Status      string         `json:"status"`
	Boosts      map[string]int `json:"boosts"`
	Moves       []MoveSlot     `json:"moves"`
	Item        string         `json:"item"`
	Ability     string         `json:"ability"`
	Fainted     bool           `json:"fainted"`
	Active      bool           `json:"active"`
	Revealed    bool           `json:"revealed"`
	Effects     map[string]int `json:"effects"`
	Stats       map[string]int `json:"stats"`
	BaseStats   map[string]int `json:"baseStats"`
	Weight      float64        `json:"weight"`
	ActiveTurns int            `json:"activeTurns"`
	SwitchedIn  int            `json:"switchedIn"`
}

// MoveSlot is one of up to four known moves.
type MoveSlot struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	PP     int    `json:"pp"`
	MaxPP  int    `json:"maxpp"`
	Target string `json:"target"`
	Used   bool   `json:"used"`
}
