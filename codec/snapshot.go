// Package codec maps the in-memory battle onto the engine's battle JSON and
// back. Field names and nesting follow the engine's own serializer; the
// engine rejects or silently misreads a state that deviates from them.
package codec

import "vgcbench/game"

// EffectState is the engine's per-effect bookkeeping record.
type EffectState struct {
	ID          string `json:"id"`
	EffectOrder int    `json:"effectOrder"`
	Turn        int    `json:"turn,omitempty"`
	Layers      int    `json:"layers,omitempty"`
}

func effectState(id string) EffectState {
	return EffectState{ID: id}
}

// Snapshot is a complete battle record as exchanged with the engine.
type Snapshot struct {
	SentRequests               bool         `json:"sentRequests"`
	DebugMode                  bool         `json:"debugMode"`
	ForceRandomChance          *bool        `json:"forceRandomChance"`
	StrictChoices              bool         `json:"strictChoices"`
	FormatData                 EffectState  `json:"formatData"`
	FormatID                   string       `json:"formatid"`
	GameType                   string       `json:"gameType"`
	ActivePerHalf              int          `json:"activePerHalf"`
	PRNGSeed                   string       `json:"prngSeed"`
	PRNG                       any          `json:"prng"`
	Rated                      bool         `json:"rated"`
	ReportExactHP              bool         `json:"reportExactHP"`
	ReportPercentages          bool         `json:"reportPercentages"`
	SupportCancel              bool         `json:"supportCancel"`
	FaintQueue                 []any        `json:"faintQueue"`
	InputLog                   []string     `json:"inputLog"`
	MessageLog                 []string     `json:"messageLog"`
	Log                        []string     `json:"log"`
	SentLogPos                 int          `json:"sentLogPos"`
	SentEnd                    bool         `json:"sentEnd"`
	RequestState               string       `json:"requestState"`
	Turn                       int          `json:"turn"`
	MidTurn                    bool         `json:"midTurn"`
	Started                    bool         `json:"started"`
	Ended                      bool         `json:"ended"`
	Effect                     EffectState  `json:"effect"`
	EffectState                EffectState  `json:"effectState"`
	Event                      EffectState  `json:"event"`
	Events                     any          `json:"events"`
	EventDepth                 int          `json:"eventDepth"`
	ActiveMove                 any          `json:"activeMove"`
	ActivePokemon              any          `json:"activePokemon"`
	ActiveTarget               any          `json:"activeTarget"`
	LastMove                   any          `json:"lastMove"`
	LastMoveLine               int          `json:"lastMoveLine"`
	LastSuccessfulMoveThisTurn any          `json:"lastSuccessfulMoveThisTurn"`
	LastDamage                 int          `json:"lastDamage"`
	EffectOrder                int          `json:"effectOrder"`
	QuickClawRoll              bool         `json:"quickClawRoll"`
	SpeedOrder                 []int        `json:"speedOrder"`
	Field                      Field        `json:"field"`
	Sides                      [2]SideState `json:"sides"`
	Hints                      []string     `json:"hints"`
	Queue                      []any        `json:"queue"`
}

// Field holds weather, terrain and the other field-wide effects.
type Field struct {
	Weather       string                 `json:"weather"`
	WeatherState  EffectState            `json:"weatherState"`
	Terrain       string                 `json:"terrain"`
	TerrainState  EffectState            `json:"terrainState"`
	PseudoWeather map[string]EffectState `json:"pseudoWeather"`
}

// SideState is one side record.
type SideState struct {
	Foe              string                   `json:"foe"`
	AllySide         any                      `json:"allySide"`
	LastSelectedMove string                   `json:"lastSelectedMove"`
	ID               string                   `json:"id"`
	N                int                      `json:"n"`
	Name             string                   `json:"name"`
	Avatar           string                   `json:"avatar"`
	PokemonLeft      int                      `json:"pokemonLeft"`
	Active           []*string                `json:"active"`
	FaintedLastTurn  any                      `json:"faintedLastTurn"`
	FaintedThisTurn  any                      `json:"faintedThisTurn"`
	TotalFainted     int                      `json:"totalFainted"`
	ZMoveUsed        bool                     `json:"zMoveUsed"`
	DynamaxUsed      bool                     `json:"dynamaxUsed"`
	SideConditions   map[string]EffectState   `json:"sideConditions"`
	SlotConditions   []map[string]EffectState `json:"slotConditions"`
	LastMove         any                      `json:"lastMove"`
	Pokemon          []PokemonState           `json:"pokemon"`
	Team             string                   `json:"team"`
	Choice           Choice                   `json:"choice"`
	ActiveRequest    *game.Request            `json:"activeRequest"`
}

// Choice is the side's in-progress choice; always empty at a decision point.
type Choice struct {
	CantUndo           bool   `json:"cantUndo"`
	Error              string `json:"error"`
	Actions            []any  `json:"actions"`
	ForcedSwitchesLeft int    `json:"forcedSwitchesLeft"`
	ForcedPassesLeft   int    `json:"forcedPassesLeft"`
	SwitchIns          []any  `json:"switchIns"`
	ZMove              bool   `json:"zMove"`
	Mega               bool   `json:"mega"`
	Ultra              bool   `json:"ultra"`
	Dynamax            bool   `json:"dynamax"`
	Terastallize       bool   `json:"terastallize"`
}

// Boosts are stat stages.
type Boosts struct {
	Atk      int `json:"atk"`
	Def      int `json:"def"`
	Spa      int `json:"spa"`
	Spd      int `json:"spd"`
	Spe      int `json:"spe"`
	Accuracy int `json:"accuracy"`
	Evasion  int `json:"evasion"`
}

// MoveSlotState is one of the four fixed move slots.
type MoveSlotState struct {
	Move           string    `json:"move"`
	ID             string    `json:"id"`
	PP             int       `json:"pp"`
	MaxPP          int       `json:"maxpp"`
	Target         string    `json:"target"`
	Disabled       game.Flag `json:"disabled"`
	DisabledSource string    `json:"disabledSource"`
	Used           bool      `json:"used"`
}

// PokemonSet is the team-builder view of a combatant.
type PokemonSet struct {
	Name     string         `json:"name"`
	Species  string         `json:"species"`
	Gender   string         `json:"gender"`
	Shiny    bool           `json:"shiny"`
	Level    int            `json:"level"`
	Moves    []string       `json:"moves"`
	Ability  string         `json:"ability"`
	EVs      map[string]int `json:"evs"`
	IVs      map[string]int `json:"ivs"`
	Item     string         `json:"item"`
	TeraType string         `json:"teraType"`
}

// PokemonState is one combatant record.
type PokemonState struct {
	M                            map[string]any         `json:"m"`
	BaseSpecies                  string                 `json:"baseSpecies"`
	Species                      string                 `json:"species"`
	SpeciesState                 EffectState            `json:"speciesState"`
	Gender                       string                 `json:"gender"`
	DynamaxLevel                 int                    `json:"dynamaxLevel"`
	Gigantamax                   bool                   `json:"gigantamax"`
	MoveSlots                    []MoveSlotState        `json:"moveSlots"`
	Position                     int                    `json:"position"`
	Details                      string                 `json:"details"`
	Status                       string                 `json:"status"`
	StatusState                  EffectState            `json:"statusState"`
	Volatiles                    map[string]EffectState `json:"volatiles"`
	HPType                       string                 `json:"hpType"`
	HPPower                      int                    `json:"hpPower"`
	BaseHPType                   string                 `json:"baseHpType"`
	BaseHPPower                  int                    `json:"baseHpPower"`
	BaseStoredStats              map[string]int         `json:"baseStoredStats"`
	StoredStats                  map[string]int         `json:"storedStats"`
	Boosts                       Boosts                 `json:"boosts"`
	BaseAbility                  string                 `json:"baseAbility"`
	Ability                      string                 `json:"ability"`
	AbilityState                 EffectState            `json:"abilityState"`
	Item                         string                 `json:"item"`
	ItemState                    EffectState            `json:"itemState"`
	LastItem                     string                 `json:"lastItem"`
	UsedItemThisTurn             bool                   `json:"usedItemThisTurn"`
	AteBerry                     bool                   `json:"ateBerry"`
	Trapped                      game.Flag              `json:"trapped"`
	MaybeTrapped                 bool                   `json:"maybeTrapped"`
	MaybeDisabled                bool                   `json:"maybeDisabled"`
	MaybeLocked                  game.Flag              `json:"maybeLocked"`
	Illusion                     any                    `json:"illusion"`
	Transformed                  bool                   `json:"transformed"`
	Fainted                      bool                   `json:"fainted"`
	FaintQueued                  bool                   `json:"faintQueued"`
	SubFainted                   any                    `json:"subFainted"`
	FormeRegression              bool                   `json:"formeRegression"`
	Types                        []string               `json:"types"`
	BaseTypes                    []string               `json:"baseTypes"`
	AddedType                    string                 `json:"addedType"`
	KnownType                    bool                   `json:"knownType"`
	ApparentType                 string                 `json:"apparentType"`
	TeraType                     string                 `json:"teraType"`
	SwitchFlag                   bool                   `json:"switchFlag"`
	ForceSwitchFlag              bool                   `json:"forceSwitchFlag"`
	SkipBeforeSwitchOutEventFlag bool                   `json:"skipBeforeSwitchOutEventFlag"`
	DraggedIn                    any                    `json:"draggedIn"`
	NewlySwitched                bool                   `json:"newlySwitched"`
	BeingCalledBack              bool                   `json:"beingCalledBack"`
	LastMove                     any                    `json:"lastMove"`
	LastMoveUsed                 any                    `json:"lastMoveUsed"`
	MoveThisTurn                 any                    `json:"moveThisTurn"`
	StatsRaisedThisTurn          bool                   `json:"statsRaisedThisTurn"`
	StatsLoweredThisTurn         bool                   `json:"statsLoweredThisTurn"`
	HurtThisTurn                 any                    `json:"hurtThisTurn"`
	LastDamage                   int                    `json:"lastDamage"`
	AttackedBy                   []any                  `json:"attackedBy"`
	TimesAttacked                int                    `json:"timesAttacked"`
	IsActive                     bool                   `json:"isActive"`
	ActiveTurns                  int                    `json:"activeTurns"`
	ActiveMoveActions            int                    `json:"activeMoveActions"`
	PreviouslySwitchedIn         int                    `json:"previouslySwitchedIn"`
	TruantTurn                   bool                   `json:"truantTurn"`
	BondTriggered                bool                   `json:"bondTriggered"`
	SwordBoost                   bool                   `json:"swordBoost"`
	ShieldBoost                  bool                   `json:"shieldBoost"`
	SyrupTriggered               bool                   `json:"syrupTriggered"`
	StellarBoostedTypes          []string               `json:"stellarBoostedTypes"`
	IsStarted                    bool                   `json:"isStarted"`
	DuringMove                   bool                   `json:"duringMove"`
	WeightHG                     int                    `json:"weighthg"`
	Speed                        int                    `json:"speed"`
	CanMegaEvo                   any                    `json:"canMegaEvo"`
	CanUltraBurst                any                    `json:"canUltraBurst"`
	CanGigantamax                any                    `json:"canGigantamax"`
	CanTerastallize              any                    `json:"canTerastallize"`
	MaxHP                        int                    `json:"maxhp"`
	BaseMaxHP                    int                    `json:"baseMaxhp"`
	HP                           int                    `json:"hp"`
	Set                          PokemonSet             `json:"set"`
}
