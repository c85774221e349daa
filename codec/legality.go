package codec

// LegalityView is the part of a snapshot that decides which orders are
// legal. Two snapshots with equal views admit the same orders.
type LegalityView struct {
	Turn    int
	Weather FieldTimer
	Terrain FieldTimer
	Pseudo  map[string]int
	Sides   [2]SideView
}

// FieldTimer is a field effect and the turn it started on.
type FieldTimer struct {
	ID   string
	Turn int
}

// SideView is the legality-relevant part of a side.
type SideView struct {
	ID         string
	Active     []string
	Conditions map[string]int
	Pokemon    []PokemonView
}

// PokemonView is the legality-relevant part of a combatant.
type PokemonView struct {
	Species string
	HP      int
	Fainted bool
	Active  bool
	Status  string
	Boosts  Boosts
	PP      []int
}

// Legality projects s onto its legality-relevant fields.
func Legality(s Snapshot) LegalityView {
	v := LegalityView{
		Turn:    s.Turn,
		Weather: FieldTimer{ID: s.Field.Weather, Turn: s.Field.WeatherState.Turn},
		Terrain: FieldTimer{ID: s.Field.Terrain, Turn: s.Field.TerrainState.Turn},
		Pseudo:  map[string]int{},
	}
	for id, st := range s.Field.PseudoWeather {
		v.Pseudo[id] = st.Turn
	}
	for i, side := range s.Sides {
		sv := SideView{ID: side.ID, Conditions: map[string]int{}}
		for _, ref := range side.Active {
			if ref == nil {
				sv.Active = append(sv.Active, "")
				continue
			}
			sv.Active = append(sv.Active, *ref)
		}
		for id, st := range side.SideConditions {
			sv.Conditions[id] = st.Layers
		}
		for _, p := range side.Pokemon {
			pv := PokemonView{
				Species: p.Species,
				HP:      p.HP,
				Fainted: p.Fainted,
				Active:  p.IsActive,
				Status:  p.Status,
				Boosts:  p.Boosts,
			}
			for _, m := range p.MoveSlots {
				pv.PP = append(pv.PP, m.PP)
			}
			sv.Pokemon = append(sv.Pokemon, pv)
		}
		v.Sides[i] = sv
	}
	return v
}

// HPFraction is the share of total hit points role's side has left.
func HPFraction(s Snapshot, role string) float64 {
	for _, side := range s.Sides {
		if side.ID != role {
			continue
		}
		var hp, total int
		for _, p := range side.Pokemon {
			hp += p.HP
			total += p.MaxHP
		}
		if total == 0 {
			return 0
		}
		return float64(hp) / float64(total)
	}
	return 0
}
