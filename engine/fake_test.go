package engine

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"vgcbench/game"
)

// fakeShowdown imitates a simulate-battle stream. Output is queued
// synchronously in response to each written line.
type fakeShowdown struct {
	written []string
	out     []string
	closed  bool

	state   string
	owes    map[string]bool
	choices map[string]string
	players int

	// turn produces the output after every owing side has chosen. The
	// default resolves the turn and issues fresh requests.
	turn func(choices map[string]string) []string
	// failEval makes every eval report an error.
	failEval bool
}

func newFake() *fakeShowdown {
	return &fakeShowdown{
		owes:    map[string]bool{},
		choices: map[string]string{},
	}
}

func requestFor(side string, wait bool) string {
	req := game.Request{
		Side: game.RequestSide{ID: side, Name: side, Pokemon: []game.RequestPokemon{
			{Ident: side + ": A", Condition: "100/100", Active: true},
			{Ident: side + ": B", Condition: "100/100", Active: true},
		}},
		Wait: wait,
	}
	if !wait {
		slot := game.ActiveSlot{Moves: []game.RequestMove{{Move: "Protect", ID: "protect", Target: "self", PP: 10, MaxPP: 10}}}
		req.Active = []game.ActiveSlot{slot, slot}
	}
	return requestLine(&req)
}

func requestLine(req *game.Request) string {
	data, err := json.Marshal(req)
	if err != nil {
		panic(err)
	}
	return "|request|" + string(data)
}

func stateJSON(turn, p1HP, p2HP int) string {
	return fmt.Sprintf(`{"turn":%d,"sides":[{"id":"p1","pokemon":[{"hp":%d,"maxhp":100}]},{"id":"p2","pokemon":[{"hp":%d,"maxhp":100}]}]}`,
		turn, p1HP, p2HP)
}

func (f *fakeShowdown) emitRequests(lines ...string) {
	for _, line := range lines {
		msg := Classify(line)
		req, err := game.ParseRequest([]byte(msg.Body()))
		if err != nil {
			panic(err)
		}
		f.owes[req.SideID()] = !req.Wait
		f.out = append(f.out, "sideupdate", req.SideID(), line)
	}
}

func (f *fakeShowdown) WriteLine(line string) error {
	if f.closed {
		return io.ErrClosedPipe
	}
	f.written = append(f.written, line)
	switch {
	case strings.HasPrefix(line, ">start "):
	case strings.HasPrefix(line, ">player "):
		f.players++
		if f.players == 2 {
			f.out = append(f.out, "update", "|init|battle", "|t:|1")
			f.emitRequests(requestFor(game.P1, false), requestFor(game.P2, false))
		}
	case strings.HasPrefix(line, ">eval JSON.stringify"):
		if f.failEval {
			f.out = append(f.out, "||>>> "+line[6:], "||<<< error: battle is not defined")
			return nil
		}
		f.out = append(f.out, "update", "||>>> "+line[6:], "||<<< '"+f.state+"'")
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
		f.choices = map[string]string{}
	}
	return nil
}

func (f *fakeShowdown) restore(line string) {
	start := strings.Index(line, `Buffer.from("`) + len(`Buffer.from("`)
	end := strings.Index(line[start:], `"`)
	payload, err := base64.StdEncoding.DecodeString(line[start : start+end])
	if err != nil {
		panic(err)
	}
	f.state = string(payload)
	f.out = append(f.out, "update", "||>>> (restore)", "||<<< undefined")

	var restored struct {
		Sides []struct {
			ID            string        `json:"id"`
			ActiveRequest *game.Request `json:"activeRequest"`
		} `json:"sides"`
	}
	if err := json.Unmarshal(payload, &restored); err != nil || len(restored.Sides) != 2 {
		f.emitRequests(requestFor(game.P1, false), requestFor(game.P2, false))
		return
	}
	for _, side := range restored.Sides {
		if side.ActiveRequest != nil {
			f.emitRequests(requestLine(side.ActiveRequest))
		} else {
			f.emitRequests(requestFor(side.ID, false))
		}
	}
}

func (f *fakeShowdown) resolve() {
	if f.turn == nil {
		f.state = stateJSON(2, 80, 60)
		f.out = append(f.out, "update", "|move|p1a: A|Protect|p1a: A", "|turn|2")
		f.emitRequests(requestFor(game.P1, false), requestFor(game.P2, false))
		return
	}
	for _, line := range f.turn(f.choices) {
		if Classify(line).Kind == KindRequest {
			f.emitRequests(line)
			continue
		}
		f.out = append(f.out, line)
	}
}

func (f *fakeShowdown) ReadLine() (string, error) {
	if f.closed || len(f.out) == 0 {
		return "", io.EOF
	}
	line := f.out[0]
	f.out = f.out[1:]
	return line, nil
}

func (f *fakeShowdown) Close() error {
	f.closed = true
	return nil
}

func (f *fakeShowdown) sent(prefix string) []string {
	var lines []string
	for _, l := range f.written {
		if strings.HasPrefix(l, prefix) {
			lines = append(lines, l)
		}
	}
	return lines
}
