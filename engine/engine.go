// Package engine drives an external rules engine through its line protocol.
// A Process owns one engine for one (format, role, opposing role)
// configuration and moves it between arbitrary battle states.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"vgcbench/codec"
	"vgcbench/game"
)

// Default side names registered with the engine. Winner lines are matched
// against them, so they must differ.
var DefaultNames = map[string]string{
	game.P1: "Player 1",
	game.P2: "Player 2",
}

const readStateScript = ">eval JSON.stringify(battle && battle.toJSON())"

// Config identifies what an engine was started for.
type Config struct {
	Format  string
	Role    string
	OppRole string
	// Teams maps a role to its packed team.
	Teams map[string]string
	// Names maps a role to its registered name. Missing entries fall back
	// to DefaultNames.
	Names map[string]string
}

// Key identifies configurations that may share a process.
func (c Config) Key() string {
	return c.Format + "|" + c.Role + "|" + c.OppRole
}

// Name is the name role is registered under.
func (c Config) Name(role string) string {
	if n := c.Names[role]; n != "" {
		return n
	}
	return DefaultNames[role]
}

// Option configures a Process.
type Option func(*Process)

// WithNarrator sends narration to n instead of the debug log.
func WithNarrator(n Narrator) Option {
	return func(p *Process) {
		p.narrator = n
	}
}

// Process is a running engine. It is not safe for concurrent use.
type Process struct {
	conn     Conn
	cfg      Config
	narrator Narrator

	requests map[string]*game.Request
	// pending marks sides that owe the engine a choice.
	pending map[string]bool
	// current is the key of the state the engine holds.
	current string
	closed  bool
}

type outcome struct {
	terminal bool
	winner   string
}

// Start registers both sides on conn, waits for the opening requests and
// restores snapshot. The returned position is the restored state as the
// engine reports it. Cancelling ctx during startup closes conn.
func Start(ctx context.Context, conn Conn, cfg Config, snapshot codec.Snapshot, opts ...Option) (*Process, game.Position, error) {
	p := &Process{
		conn:     conn,
		cfg:      cfg,
		narrator: LogNarrator{Battle: cfg.Format},
		requests: map[string]*game.Request{},
		pending:  map[string]bool{},
	}
	for _, opt := range opts {
		opt(p)
	}

	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	defer stop()

	if err := p.handshake(); err != nil {
		return nil, game.Position{}, err
	}

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return nil, game.Position{}, errors.Wrap(err, "engine: encoding snapshot")
	}
	pos, err := p.Restore(payload)
	if err != nil {
		if ctx.Err() != nil {
			return nil, game.Position{}, errors.Wrap(ctx.Err(), "engine: startup")
		}
		return nil, game.Position{}, err
	}

	log.Info().Str("format", cfg.Format).Str("role", cfg.Role).Int("turn", snapshot.Turn).Msg("engine ready")
	return p, pos, nil
}

func (p *Process) handshake() error {
	start, err := json.Marshal(struct {
		FormatID string `json:"formatid"`
	}{p.cfg.Format})
	if err != nil {
		return errors.Wrap(err, "engine: encoding start")
	}
	if err := p.conn.WriteLine(">start " + string(start)); err != nil {
		return err
	}
	for _, role := range []string{game.P1, game.P2} {
		player, err := json.Marshal(struct {
			Name string `json:"name"`
			Team string `json:"team"`
		}{p.cfg.Name(role), p.cfg.Teams[role]})
		if err != nil {
			return errors.Wrap(err, "engine: encoding player")
		}
		if err := p.conn.WriteLine(fmt.Sprintf(">player %s %s", role, player)); err != nil {
			return err
		}
	}
	return p.AwaitRequests()
}

// Send writes one instruction line.
func (p *Process) Send(line string) error {
	if p.closed {
		return ErrClosed
	}
	return p.conn.WriteLine(line)
}

// AwaitRequests consumes output until each side has received a request.
func (p *Process) AwaitRequests() error {
	out, err := p.pump()
	if err != nil {
		return err
	}
	if out.terminal {
		return errors.Errorf("engine: battle concluded while awaiting requests (winner %q)", out.winner)
	}
	return nil
}

// Restore replaces the engine's battle with payload, an encoded snapshot,
// and returns the resulting position.
func (p *Process) Restore(payload []byte) (game.Position, error) {
	if p.closed {
		return game.Position{}, ErrClosed
	}
	p.reset()
	if err := codec.Restore(p, payload); err != nil {
		return game.Position{}, err
	}
	key, err := p.readState()
	if err != nil {
		return game.Position{}, err
	}
	p.current = key
	return p.position(key, outcome{}), nil
}

// Step plays one turn from the state identified by key. mine and theirs
// are the commands for the controlled and opposing side; either may be
// empty, and a command is only sent when its side owes a choice.
func (p *Process) Step(key, mine, theirs string) (game.Position, error) {
	if p.closed {
		return game.Position{}, ErrClosed
	}
	if key != p.current {
		if _, err := p.Restore([]byte(key)); err != nil {
			return game.Position{}, err
		}
	}

	var lines []string
	for _, c := range []struct{ role, cmd string }{{p.cfg.Role, mine}, {p.cfg.OppRole, theirs}} {
		if !p.pending[c.role] {
			continue
		}
		cmd := game.Canonical(c.cmd)
		if cmd == "" {
			return game.Position{}, errors.Errorf("engine: %s owes a choice but has no command", c.role)
		}
		lines = append(lines, ">"+c.role+" "+cmd)
	}
	if len(lines) == 0 {
		return game.Position{}, errors.New("engine: no side owes a choice")
	}
	// The engine holds the state only until a choice is written.
	p.current = ""
	for _, line := range lines {
		if err := p.conn.WriteLine(line); err != nil {
			return game.Position{}, err
		}
	}
	p.pending = map[string]bool{}

	p.requests = map[string]*game.Request{}
	out, err := p.pump()
	if err != nil {
		return game.Position{}, err
	}

	next, err := p.readState()
	if err != nil {
		return game.Position{}, err
	}
	p.current = next
	return p.position(next, out), nil
}

// Close terminates the engine and waits for it. A closed process refuses
// further use.
func (p *Process) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.conn.Close()
}

// Config returns the configuration the process was started with.
func (p *Process) Config() Config {
	return p.cfg
}

func (p *Process) reset() {
	p.requests = map[string]*game.Request{}
	p.pending = map[string]bool{}
	p.current = ""
}

func (p *Process) position(key string, out outcome) game.Position {
	pos := game.Position{
		Key:      key,
		Role:     p.cfg.Role,
		Terminal: out.terminal,
		Winner:   out.winner,
	}
	if out.terminal {
		pos.Reward = p.reward(out.winner)
	} else {
		pos.Mine = p.requests[p.cfg.Role]
		pos.Theirs = p.requests[p.cfg.OppRole]
	}

	snap, err := codec.Decode(key)
	if err != nil {
		log.Warn().Err(err).Msg("engine record not decodable, hit points unknown")
		return pos
	}
	pos.MyHP = codec.HPFraction(snap, p.cfg.Role)
	pos.TheirHP = codec.HPFraction(snap, p.cfg.OppRole)
	pos.HPKnown = true
	return pos
}

func (p *Process) reward(winner string) float64 {
	switch winner {
	case "":
		return game.Tie
	case p.cfg.Name(p.cfg.Role):
		return game.Win
	default:
		return game.Loss
	}
}

func (p *Process) readLine() (Message, error) {
	line, err := p.conn.ReadLine()
	if err != nil {
		return Message{}, errors.Wrapf(ErrTerminated, "reading engine output: %v", err)
	}
	return Classify(line), nil
}

// pump dispatches output until both sides have a fresh request or the
// battle concludes.
func (p *Process) pump() (outcome, error) {
	seen := map[string]bool{}
	for {
		msg, err := p.readLine()
		if err != nil {
			return outcome{}, err
		}
		switch msg.Kind {
		case KindFraming:
		case KindRequest:
			side, err := p.noteRequest(msg)
			if err != nil {
				return outcome{}, err
			}
			if side == "" {
				continue
			}
			seen[side] = true
			if len(seen) == 2 {
				return outcome{}, nil
			}
		case KindWin:
			return outcome{terminal: true, winner: strings.Join(msg.Args, "|")}, nil
		case KindTie:
			return outcome{terminal: true}, nil
		case KindError, KindBigError:
			return outcome{}, &ProtocolError{Kind: msg.Kind, Line: msg.Raw}
		case KindEvalResult:
			if body := msg.Body(); strings.HasPrefix(body, "error") {
				return outcome{}, errors.Wrap(ErrEval, body)
			}
		default:
			p.narrator.Narrate(msg)
		}
	}
}

func (p *Process) noteRequest(msg Message) (string, error) {
	body := msg.Body()
	if body == "" {
		return "", nil
	}
	req, err := game.ParseRequest([]byte(body))
	if err != nil {
		return "", errors.Wrap(err, "engine: request")
	}
	side := req.SideID()
	if side == "" {
		return "", nil
	}
	p.requests[side] = req
	p.pending[side] = !req.Wait
	return side, nil
}

// readState asks the engine for its battle record and returns it in key
// form.
func (p *Process) readState() (string, error) {
	if err := p.conn.WriteLine(readStateScript); err != nil {
		return "", err
	}
	for {
		msg, err := p.readLine()
		if err != nil {
			return "", err
		}
		switch msg.Kind {
		case KindEvalResult:
			body := msg.Body()
			if strings.HasPrefix(body, "error") {
				return "", errors.Wrap(ErrEval, body)
			}
			raw := unquote(body)
			if raw == "null" || raw == "undefined" || raw == "" {
				return "", errors.Wrap(ErrEval, "no battle")
			}
			key, err := codec.Compact([]byte(raw))
			if err != nil {
				return "", errors.Wrap(ErrEval, err.Error())
			}
			return key, nil
		case KindError, KindBigError:
			return "", &ProtocolError{Kind: msg.Kind, Line: msg.Raw}
		case KindRequest:
			if _, err := p.noteRequest(msg); err != nil {
				return "", err
			}
		case KindFraming:
		default:
			p.narrator.Narrate(msg)
		}
	}
}

// unquote strips the quotes the engine puts around string eval results.
func unquote(s string) string {
	if strings.HasPrefix(s, `"`) {
		var decoded string
		if err := json.Unmarshal([]byte(s), &decoded); err == nil {
			return decoded
		}
	}
	if len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
