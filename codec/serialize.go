package codec

import (
	"fmt"
	"math"
	"strings"

	"vgcbench/game"
)

// Constants the engine expects in every restored record.
const (
	GameType      = "doubles"
	ActivePerHalf = 2
	PRNGSeed      = "sodium,0,0,0,0"
	MoveSlots     = 4
	DynamaxLevel  = 10
	HiddenPower   = 60
)

var statNames = []string{"hp", "atk", "def", "spa", "spd", "spe"}

// Serialize converts the caller's battle into the engine's record. It
// never fails for a well-formed battle and is deterministic: the same
// battle always yields the same snapshot. A side with more than two
// active entries panics.
func Serialize(b *game.Battle) Snapshot {
	me, foe := b.Me(), b.Foe()
	role, foeRole := b.Roles()

	s := Snapshot{
		FormatData:    effectState(b.Format),
		FormatID:      b.Format,
		GameType:      GameType,
		ActivePerHalf: ActivePerHalf,
		PRNGSeed:      PRNGSeed,
		PRNG:          []int{0, 0, 0, 1},
		Rated:         b.Rated,
		ReportExactHP: true,
		FaintQueue:    []any{},
		InputLog:      []string{},
		MessageLog:    []string{},
		Log:           []string{},
		SentLogPos:    -1,
		RequestState:  requestState(b),
		Turn:          b.Turn,
		Started:       true,
		Ended:         b.Ended,
		Effect:        EffectState{},
		EffectState:   effectState(""),
		Event:         EffectState{},
		LastMoveLine:  -1,
		SpeedOrder:    []int{},
		Field:         serializeField(b),
		Hints:         []string{},
		Queue:         []any{},
	}

	bySide := map[string]SideState{
		role:    serializeSide(me, role),
		foeRole: serializeSide(foe, foeRole),
	}
	s.Sides = [2]SideState{bySide[game.P1], bySide[game.P2]}
	return s
}

func requestState(b *game.Battle) string {
	req := b.Me().ActiveRequest
	switch {
	case req != nil && req.TeamPreview:
		return "teampreview"
	case b.Turn == 0:
		return "teampreview"
	case req != nil && anyTrue(req.ForceSwitch):
		return "switch"
	default:
		return "move"
	}
}

func anyTrue(flags []bool) bool {
	for _, f := range flags {
		if f {
			return true
		}
	}
	return false
}

func serializeField(b *game.Battle) Field {
	f := Field{
		WeatherState:  effectState(""),
		TerrainState:  effectState(""),
		PseudoWeather: map[string]EffectState{},
	}
	if b.Weather.ID != "" {
		f.Weather = displayName(b.Weather.ID)
		f.WeatherState = EffectState{ID: f.Weather, Turn: b.Weather.Turn}
	}
	if b.Terrain.ID != "" {
		f.Terrain = displayName(b.Terrain.ID)
		f.TerrainState = EffectState{ID: f.Terrain, Turn: b.Terrain.Turn}
	}
	for id, turn := range b.Fields {
		key := displayName(id)
		f.PseudoWeather[key] = EffectState{ID: key, Turn: turn}
	}
	return f
}

func serializeSide(side *game.Side, role string) SideState {
	ordered, actives := OrderTeam(side)

	active := make([]*string, ActivePerHalf)
	for i := 0; i < actives && i < ActivePerHalf; i++ {
		ref := fmt.Sprintf("[Pokemon:%s%c]", role, 'a'+i)
		active[i] = &ref
	}

	var left, fainted int
	var team strings.Builder
	pokemon := make([]PokemonState, len(ordered))
	for i, p := range ordered {
		pokemon[i] = serializePokemon(p, i)
		pokemon[i].IsActive = i < actives && i < ActivePerHalf
		if pokemon[i].IsActive {
			if pokemon[i].ActiveTurns == 0 {
				pokemon[i].ActiveTurns = 1
			}
			pokemon[i].NewlySwitched = false
			pokemon[i].IsStarted = true
		}
		if p.Fainted {
			fainted++
		} else {
			left++
		}
		fmt.Fprintf(&team, "%d", i+1)
	}

	foe := "[Side:p2]"
	n := 0
	if role != game.P1 {
		foe = "[Side:p1]"
		n = 1
	}

	conditions := map[string]EffectState{}
	for id, layers := range side.Conditions {
		key := displayName(id)
		conditions[key] = EffectState{ID: key, Layers: layers}
	}

	return SideState{
		Foe:            foe,
		ID:             role,
		N:              n,
		Name:           side.Name,
		PokemonLeft:    left,
		Active:         active,
		TotalFainted:   fainted,
		ZMoveUsed:      side.ZMoveUsed,
		DynamaxUsed:    side.DynamaxUsed,
		SideConditions: conditions,
		SlotConditions: []map[string]EffectState{{}, {}},
		Pokemon:        pokemon,
		Team:           team.String(),
		Choice: Choice{
			Actions:   []any{},
			SwitchIns: []any{},
		},
		ActiveRequest: side.ActiveRequest,
	}
}

func serializePokemon(p *game.Pokemon, position int) PokemonState {
	speciesName := p.Species
	if speciesName == "" {
		speciesName = p.BaseSpecies
	}
	speciesID := game.ToID(speciesName)
	baseID := game.ToID(p.BaseSpecies)
	if baseID == "" {
		baseID = speciesID
	}

	stats := zeroFilled(p.Stats)
	baseStats := zeroFilled(p.BaseStats)

	maxHP := firstPositive(p.MaxHP, stats["hp"], baseStats["hp"])
	hp := 0
	if !p.Fainted {
		hp = firstPositive(p.HP, maxHP)
	}

	moves := make([]MoveSlotState, 0, MoveSlots)
	names := make([]string, 0, len(p.Moves))
	for _, m := range p.Moves {
		if len(moves) == MoveSlots {
			break
		}
		moves = append(moves, serializeMove(m))
		names = append(names, game.ToID(firstNonEmpty(m.ID, m.Name)))
	}
	for len(moves) < MoveSlots {
		moves = append(moves, MoveSlotState{Target: "normal", Disabled: true})
	}

	types := make([]string, len(p.Types))
	for i, t := range p.Types {
		types[i] = displayName(t)
	}
	tera := displayName(p.TeraType)
	ability := game.ToID(p.Ability)
	item := game.ToID(p.Item)
	status := strings.ToLower(p.Status)

	volatiles := map[string]EffectState{}
	for id, turn := range p.Effects {
		key := game.ToID(id)
		volatiles[key] = EffectState{ID: key, Turn: turn}
	}

	return PokemonState{
		M:                    map[string]any{},
		BaseSpecies:          "[Species:" + baseID + "]",
		Species:              "[Species:" + speciesID + "]",
		SpeciesState:         effectState(speciesID),
		Gender:               p.Gender,
		DynamaxLevel:         DynamaxLevel,
		MoveSlots:            moves,
		Position:             position,
		Details:              p.Details,
		Status:               status,
		StatusState:          effectState(status),
		Volatiles:            volatiles,
		HPPower:              HiddenPower,
		BaseHPPower:          HiddenPower,
		BaseStoredStats:      baseStats,
		StoredStats:          stats,
		Boosts:               boosts(p.Boosts),
		BaseAbility:          ability,
		Ability:              ability,
		AbilityState:         effectState(ability),
		Item:                 item,
		ItemState:            effectState(item),
		Fainted:              p.Fainted,
		Types:                types,
		BaseTypes:            types,
		KnownType:            true,
		ApparentType:         strings.Join(types, "/"),
		TeraType:             tera,
		MoveThisTurn:         "",
		AttackedBy:           []any{},
		IsActive:             p.Active,
		ActiveTurns:          p.ActiveTurns,
		PreviouslySwitchedIn: p.SwitchedIn,
		StellarBoostedTypes:  []string{},
		IsStarted:            p.Revealed,
		WeightHG:             int(math.Floor(p.Weight * 10)),
		Speed:                firstPositive(stats["spe"], baseStats["spe"]),
		CanTerastallize:      tera,
		MaxHP:                maxHP,
		BaseMaxHP:            maxHP,
		HP:                   hp,
		Set: PokemonSet{
			Name:     setName(p.Name, speciesName, speciesID),
			Species:  speciesID,
			Gender:   p.Gender,
			Shiny:    p.Shiny,
			Level:    p.Level,
			Moves:    names,
			Ability:  titleWords(p.Ability),
			EVs:      constStats(0),
			IVs:      constStats(31),
			Item:     titleWords(p.Item),
			TeraType: tera,
		},
	}
}

// setName keeps the set name and the species string apart. The engine
// rewrites a set name equal to its species to the base species, which would
// rename forme-changed combatants mid-battle.
func setName(name, display, speciesID string) string {
	if name == "" {
		name = display
	}
	if name != speciesID {
		return name
	}
	name = titleWords(name)
	if name == speciesID {
		name += "*"
	}
	return name
}

func serializeMove(m game.MoveSlot) MoveSlotState {
	id := game.ToID(firstNonEmpty(m.ID, m.Name))
	name := m.Name
	if name == "" {
		name = titleWords(id)
	}
	target := m.Target
	if target == "" {
		target = "normal"
	}
	return MoveSlotState{
		Move:   name,
		ID:     id,
		PP:     m.PP,
		MaxPP:  m.MaxPP,
		Target: target,
		Used:   m.Used,
	}
}

func boosts(b map[string]int) Boosts {
	return Boosts{
		Atk:      b["atk"],
		Def:      b["def"],
		Spa:      b["spa"],
		Spd:      b["spd"],
		Spe:      b["spe"],
		Accuracy: b["accuracy"],
		Evasion:  b["evasion"],
	}
}

func zeroFilled(stats map[string]int) map[string]int {
	out := make(map[string]int, len(statNames))
	for _, s := range statNames {
		out[s] = stats[s]
	}
	return out
}

func constStats(v int) map[string]int {
	out := make(map[string]int, len(statNames))
	for _, s := range statNames {
		out[s] = v
	}
	return out
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
