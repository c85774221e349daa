package game

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Request is the engine's legality request for one side: what that side
// may choose at the current decision point.
type Request struct {
	Active            []ActiveSlot `json:"active,omitempty"`
	Side              RequestSide  `json:"side"`
	ForceSwitch       []bool       `json:"forceSwitch,omitempty"`
	Wait              bool         `json:"wait,omitempty"`
	TeamPreview       bool         `json:"teamPreview,omitempty"`
	MaxChosenTeamSize int          `json:"maxChosenTeamSize,omitempty"`
	RQID              int          `json:"rqid,omitempty"`
}

// ActiveSlot lists what the occupant of one active slot may do.
type ActiveSlot struct {
	Moves           []RequestMove `json:"moves"`
	Trapped         bool          `json:"trapped,omitempty"`
	MaybeTrapped    bool          `json:"maybeTrapped,omitempty"`
	CanTerastallize string        `json:"canTerastallize,omitempty"`
	CanMegaEvo      bool          `json:"canMegaEvo,omitempty"`
}

// RequestMove is a move entry of an active slot.
type RequestMove struct {
	Move     string `json:"move"`
	ID       string `json:"id"`
	PP       int    `json:"pp"`
	MaxPP    int    `json:"maxpp"`
	Target   string `json:"target"`
	Disabled Flag   `json:"disabled"`
}

// RequestSide is the side block of a request.
type RequestSide struct {
	Name    string           `json:"name"`
	ID      string           `json:"id"`
	Pokemon []RequestPokemon `json:"pokemon"`
}

// RequestPokemon is one team member as the engine reports it.
type RequestPokemon struct {
	Ident     string `json:"ident"`
	Details   string `json:"details"`
	Condition string `json:"condition"`
	Active    bool   `json:"active"`
	Reviving  bool   `json:"reviving,omitempty"`
	TeraType  string `json:"teraType,omitempty"`
}

// Fainted reports whether the condition string marks the member fainted.
func (p RequestPokemon) Fainted() bool {
	return strings.HasSuffix(p.Condition, " fnt") || p.Condition == "0 fnt"
}

// Flag decodes a field the engine sends either as a bool or as a string
// reason; any non-empty string counts as true.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = s != ""
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		*f = false
		return nil
	}
	var b bool
	if err := json.Unmarshal(data, &b); err != nil {
		return err
	}
	*f = Flag(b)
	return nil
}

// ParseRequest decodes the JSON payload of a request line.
func ParseRequest(payload []byte) (*Request, error) {
	var r Request
	if err := json.Unmarshal(payload, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// SideID is the role the request is addressed to.
func (r *Request) SideID() string {
	if r == nil {
		return ""
	}
	return r.Side.ID
}
