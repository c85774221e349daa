package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"

	"vgcbench/engine"
	"vgcbench/game"
)

// fakeEngine plays one-turn battles: the controlled side wins when p1
// chooses winning, otherwise the opponent wins.
type fakeEngine struct {
	written []string
	out     []string
	closed  bool

	state   string
	owes    map[string]bool
	choices map[string]string
	players int

	winning string
	crash   bool
}

func (f *fakeEngine) emit(req *game.Request) {
	data, err := json.Marshal(req)
	if err != nil {
		panic(err)
	}
	f.owes[req.SideID()] = !req.Wait
	f.out = append(f.out, "sideupdate", req.SideID(), "|request|"+string(data))
}

func (f *fakeEngine) WriteLine(line string) error {
	if f.closed {
		return io.ErrClosedPipe
	}
	f.written = append(f.written, line)
	switch {
	case strings.HasPrefix(line, ">player "):
		f.players++
		if f.players == 2 {
			f.out = append(f.out, "update", "|init|battle")
			f.emit(activeRequest(game.P1))
			f.emit(activeRequest(game.P2))
		}
	case strings.HasPrefix(line, ">eval JSON.stringify"):
		f.out = append(f.out, "update", "||<<< '"+f.state+"'")
	case strings.HasPrefix(line, ">eval (() =>"):
		f.restore(line)
	case strings.HasPrefix(line, ">p1 "), strings.HasPrefix(line, ">p2 "):
		side := line[1:3]
		f.choices[side] = line[4:]
		f.owes[side] = false
		for _, owed := range f.owes {
			if owed {
				return nil
			}
		}
		f.resolve()
	}
	return nil
}

func (f *fakeEngine) restore(line string) {
	start := strings.Index(line, `Buffer.from("`) + len(`Buffer.from("`)
	end := strings.Index(line[start:], `"`)
	payload, err := base64.StdEncoding.DecodeString(line[start : start+end])
	if err != nil {
		panic(err)
	}
	f.state = string(payload)
	f.out = append(f.out, "update", "||<<< undefined")

	var restored struct {
		Sides []struct {
			ID            string        `json:"id"`
			ActiveRequest *game.Request `json:"activeRequest"`
		} `json:"sides"`
	}
	if err := json.Unmarshal(payload, &restored); err != nil {
		panic(err)
	}
	for _, side := range restored.Sides {
		if side.ActiveRequest != nil {
			f.emit(side.ActiveRequest)
		} else {
			f.emit(activeRequest(side.ID))
		}
	}
}

func (f *fakeEngine) resolve() {
	choice := f.choices[game.P1]
	f.choices = map[string]string{}
	f.out = append(f.out, "update", "|move|p1a: A|Splash|p1a: A")
	if f.crash {
		f.out = append(f.out, "|bigerror|The simulator crashed")
		return
	}
	f.state = `{"turn":2,"ended":true,"sides":[{"id":"p1","pokemon":[]},{"id":"p2","pokemon":[]}]}`
	if choice == f.winning {
		f.out = append(f.out, "|win|"+engine.DefaultNames[game.P1])
	} else {
		f.out = append(f.out, "|win|"+engine.DefaultNames[game.P2])
	}
}

func (f *fakeEngine) ReadLine() (string, error) {
	if f.closed || len(f.out) == 0 {
		return "", io.EOF
	}
	line := f.out[0]
	f.out = f.out[1:]
	return line, nil
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func (f *fakeEngine) sent(prefix string) int {
	count := 0
	for _, l := range f.written {
		if strings.HasPrefix(l, prefix) {
			count++
		}
	}
	return count
}

// dialer hands out fake engines and remembers them.
type dialer struct {
	mu      sync.Mutex
	engines []*fakeEngine
	winning string
	crash   bool
	fail    bool
}

func (d *dialer) dial(ctx context.Context) (engine.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.fail {
		return nil, errors.New("no engine installed")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	f := &fakeEngine{
		owes:    map[string]bool{},
		choices: map[string]string{},
		winning: d.winning,
		crash:   d.crash,
	}
	d.engines = append(d.engines, f)
	return f, nil
}

func (d *dialer) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.engines)
}

func activeRequest(role string) *game.Request {
	return &game.Request{
		Side: game.RequestSide{ID: role, Pokemon: []game.RequestPokemon{
			{Ident: role + ": A", Condition: "100/100", Active: true},
		}},
		Active: []game.ActiveSlot{{Moves: []game.RequestMove{
			{Move: "Protect", ID: "protect", Target: "self", PP: 10, MaxPP: 10},
			{Move: "Splash", ID: "splash", Target: "self", PP: 10, MaxPP: 10},
		}}},
	}
}

func side(role, species string) *game.Side {
	mon := &game.Pokemon{
		Species: species,
		Name:    species,
		HP:      100,
		MaxHP:   100,
		Active:  true,
		Moves: []game.MoveSlot{
			{ID: "protect", PP: 10, MaxPP: 10, Target: "self"},
			{ID: "splash", PP: 10, MaxPP: 10, Target: "self"},
		},
	}
	s := &game.Side{
		Role:          role,
		Name:          role + " trainer",
		Team:          []*game.Pokemon{mon},
		ActiveIdx:     []int{0},
		ActiveRequest: activeRequest(role),
	}
	s.Link()
	return s
}

func battle(tag string) *game.Battle {
	return &game.Battle{
		Tag:    tag,
		Format: "gen9vgc2024regg",
		Turn:   3,
		Sides:  [2]*game.Side{side(game.P1, "Magikarp"), side(game.P2, "Feebas")},
	}
}
