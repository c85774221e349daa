package engine

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"vgcbench/codec"
	"vgcbench/game"
)

func testConfig() Config {
	return Config{
		Format:  "gen9vgc2024regg",
		Role:    game.P1,
		OppRole: game.P2,
		Teams:   map[string]string{game.P1: "TEAM1", game.P2: "TEAM2"},
	}
}

func testSnapshot() codec.Snapshot {
	b := &game.Battle{
		Format: "gen9vgc2024regg",
		Turn:   1,
		Sides: [2]*game.Side{
			{Role: game.P1, Name: "Player 1", Team: []*game.Pokemon{{Species: "Pikachu", HP: 50, MaxHP: 100, Active: true}}},
			{Role: game.P2, Name: "Player 2", Team: []*game.Pokemon{{Species: "Eevee", HP: 100, MaxHP: 100, Active: true}}},
		},
	}
	return codec.Serialize(b)
}

func start(t *testing.T, f *fakeShowdown, opts ...Option) (*Process, game.Position) {
	t.Helper()
	p, pos, err := Start(context.Background(), f, testConfig(), testSnapshot(), opts...)
	require.NoError(t, err)
	return p, pos
}

func TestClassify(t *testing.T) {
	cases := []struct {
		line string
		kind Kind
		tag  string
	}{
		{"update", KindFraming, "update"},
		{"sideupdate", KindFraming, "sideupdate"},
		{"p2", KindFraming, "p2"},
		{"end", KindFraming, "end"},
		{"|", KindEmpty, ""},
		{"||Battle started", KindEmpty, ""},
		{"|t:|1700000000", KindIgnorable, "t:"},
		{"|upkeep", KindIgnorable, "upkeep"},
		{`|request|{"side":{"id":"p1"}}`, KindRequest, "request"},
		{"|win|Player 1", KindWin, "win"},
		{"|tie", KindTie, "tie"},
		{"|error|[Invalid choice] Can't move", KindError, "error"},
		{"|bigerror|Unexpected crash", KindBigError, "bigerror"},
		{"||<<< 42", KindEvalResult, ""},
		{"|move|p1a: Pikachu|Thunderbolt|p2a: Eevee", KindNarration, "move"},
		{"something the engine printed", KindNarration, ""},
	}
	for _, c := range cases {
		t.Run(c.line, func(t *testing.T) {
			msg := Classify(c.line)

			require.Equal(t, c.kind, msg.Kind)
			require.Equal(t, c.tag, msg.Tag)
			require.Equal(t, c.line, msg.Raw)
		})
	}

	t.Run("request body keeps separators", func(t *testing.T) {
		msg := Classify(`|request|{"side":{"id":"p1","name":"a|b"}}`)

		require.Equal(t, `{"side":{"id":"p1","name":"a|b"}}`, msg.Body())
	})

	t.Run("eval body", func(t *testing.T) {
		require.Equal(t, "'{}'", Classify("||<<< '{}'").Body())
	})
}

func TestStart(t *testing.T) {
	f := newFake()

	p, pos := start(t, f)
	defer p.Close()

	require.Equal(t, []string{
		`>start {"formatid":"gen9vgc2024regg"}`,
		`>player p1 {"name":"Player 1","team":"TEAM1"}`,
		`>player p2 {"name":"Player 2","team":"TEAM2"}`,
	}, f.written[:3])
	require.Len(t, f.sent(">eval (() =>"), 1, "one restore instruction")
	require.Len(t, f.sent(readStateScript), 1)

	require.False(t, pos.Terminal)
	require.Equal(t, game.P1, pos.Role)
	require.NotNil(t, pos.Mine)
	require.NotNil(t, pos.Theirs)
	require.Equal(t, game.P2, pos.Theirs.SideID())
	require.True(t, pos.HPKnown)
	require.InDelta(t, 0.5, pos.MyHP, 1e-9)
	require.InDelta(t, 1.0, pos.TheirHP, 1e-9)

	want, err := codec.Key(testSnapshot())
	require.NoError(t, err)
	require.Equal(t, want, pos.Key)
}

func TestPositionHealth(t *testing.T) {
	p := &Process{cfg: testConfig()}

	t.Run("read from the engine record", func(t *testing.T) {
		pos := p.position(stateJSON(2, 80, 60), outcome{})

		require.True(t, pos.HPKnown)
		require.InDelta(t, 0.8, pos.MyHP, 1e-9)
		require.Greater(t, game.EvaluateHP(pos), 0.0)
	})

	t.Run("an unreadable record leaves health unknown", func(t *testing.T) {
		pos := p.position(`[1,2]`, outcome{})

		require.False(t, pos.HPKnown)
		require.Zero(t, game.EvaluateHP(pos))
	})
}

func TestStep(t *testing.T) {
	t.Run("writes one stripped command per side and returns the next position", func(t *testing.T) {
		f := newFake()
		p, root := start(t, f)

		pos, err := p.Step(root.Key, "/choose move 1, move 1", "default")

		require.NoError(t, err)
		require.Equal(t, []string{">p1 move 1, move 1"}, f.sent(">p1"))
		require.Equal(t, []string{">p2 default"}, f.sent(">p2"))
		require.False(t, pos.Terminal)
		require.Equal(t, stateJSON(2, 80, 60), pos.Key)
		require.NotNil(t, pos.Mine)
		require.InDelta(t, 0.8, pos.MyHP, 1e-9)
		require.InDelta(t, 0.6, pos.TheirHP, 1e-9)
		require.Len(t, f.sent(">eval (() =>"), 1, "no restore when the engine already holds the state")
	})

	t.Run("restores first when the engine holds another state", func(t *testing.T) {
		f := newFake()
		p, root := start(t, f)
		_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")
		require.NoError(t, err)

		_, err = p.Step(root.Key, "move 1, move 1", "move 1, move 1")

		require.NoError(t, err)
		require.Len(t, f.sent(">eval (() =>"), 2)
	})

	t.Run("terminal rewards follow the winner", func(t *testing.T) {
		for _, c := range []struct {
			line   string
			reward float64
		}{
			{"|win|Player 1", game.Win},
			{"|win|Player 2", game.Loss},
			{"|tie", game.Tie},
		} {
			f := newFake()
			f.turn = func(map[string]string) []string {
				f.state = stateJSON(5, 10, 0)
				return []string{"update", "|faint|p2a: Eevee", c.line}
			}
			p, root := start(t, f)

			pos, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")

			require.NoError(t, err, c.line)
			require.True(t, pos.Terminal, c.line)
			require.Equal(t, c.reward, pos.Reward, c.line)
			require.Nil(t, pos.Mine)
			require.Empty(t, pos.MyOrders())
		}
	})

	t.Run("a waiting side is not sent a command", func(t *testing.T) {
		f := newFake()
		f.turn = func(map[string]string) []string {
			return []string{"update", "|faint|p1a: A", requestFor(game.P1, false), requestFor(game.P2, true)}
		}
		p, root := start(t, f)
		next, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")
		require.NoError(t, err)
		require.Empty(t, next.TheirOrders())

		_, err = p.Step(next.Key, "move 1, move 1", "default")

		require.NoError(t, err)
		require.Len(t, f.sent(">p1"), 2)
		require.Len(t, f.sent(">p2"), 1)
	})

	t.Run("an owed choice without a command is refused before writing", func(t *testing.T) {
		f := newFake()
		p, root := start(t, f)

		_, err := p.Step(root.Key, "move 1, move 1", "")

		require.Error(t, err)
		require.Empty(t, f.sent(">p1"))
	})
}

func TestProtocolErrors(t *testing.T) {
	t.Run("bigerror raises and is not narrated", func(t *testing.T) {
		f := newFake()
		f.turn = func(map[string]string) []string {
			return []string{"update", "|move|p1a: A|Protect|p1a: A", "|bigerror|The simulator crashed"}
		}
		rec := &Recorder{}
		p, root := start(t, f, WithNarrator(rec))

		_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")

		var pe *ProtocolError
		require.True(t, errors.As(err, &pe))
		require.Equal(t, KindBigError, pe.Kind)
		require.True(t, IsProtocolError(err))
		require.Contains(t, rec.Lines(), "|move|p1a: A|Protect|p1a: A")
		require.NotContains(t, rec.Lines(), "|bigerror|The simulator crashed")
	})

	t.Run("error raises", func(t *testing.T) {
		f := newFake()
		f.turn = func(map[string]string) []string {
			return []string{"sideupdate", "p1", "|error|[Invalid choice] Can't move: Protect is disabled"}
		}
		p, root := start(t, f)

		_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")

		require.True(t, IsProtocolError(err))
	})

	t.Run("a failed eval is reported", func(t *testing.T) {
		f := newFake()
		f.failEval = true

		_, _, err := Start(context.Background(), f, testConfig(), testSnapshot())

		require.True(t, errors.Is(err, ErrEval))
	})

	t.Run("an ended stream is reported", func(t *testing.T) {
		f := newFake()
		f.turn = func(map[string]string) []string {
			return []string{"update", "|move|p1a: A|Protect|p1a: A"}
		}
		p, root := start(t, f)

		_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")

		require.True(t, errors.Is(err, ErrTerminated))
	})

	t.Run("a closed process refuses use", func(t *testing.T) {
		f := newFake()
		p, root := start(t, f)
		require.NoError(t, p.Close())
		require.NoError(t, p.Close())

		_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")

		require.True(t, errors.Is(err, ErrClosed))
		require.True(t, f.closed)
	})
}

func TestNarration(t *testing.T) {
	f := newFake()
	rec := &Recorder{}
	p, root := start(t, f, WithNarrator(rec))

	_, err := p.Step(root.Key, "move 1, move 1", "move 1, move 1")
	require.NoError(t, err)

	lines := rec.Lines()
	require.Contains(t, lines, "|move|p1a: A|Protect|p1a: A")
	require.Contains(t, lines, "|turn|2")
	require.Contains(t, lines, "|t:|1", "ignorable lines are still forwarded")
	for _, m := range rec.Messages() {
		require.False(t, m.Kind.Structural(), m.Raw)
	}
}

// A snapshot restored into a fresh engine and queried again yields the
// same joint orders it was serialized with.
func TestRestoredLegality(t *testing.T) {
	mine := &game.Request{
		Side: game.RequestSide{ID: game.P1, Pokemon: []game.RequestPokemon{
			{Ident: "p1: A", Condition: "100/100", Active: true},
			{Ident: "p1: B", Condition: "100/100", Active: true},
			{Ident: "p1: C", Condition: "100/100"},
		}},
		Active: []game.ActiveSlot{
			{Moves: []game.RequestMove{{ID: "tackle", Target: "normal", PP: 5, MaxPP: 5}}, CanTerastallize: "Fire"},
			{Moves: []game.RequestMove{{ID: "protect", Target: "self", PP: 5, MaxPP: 5}}},
		},
	}
	theirs := &game.Request{
		Side:        game.RequestSide{ID: game.P2, Pokemon: mine.Side.Pokemon},
		ForceSwitch: []bool{true, false},
	}
	b := &game.Battle{
		Format: "gen9vgc2024regg",
		Turn:   4,
		Sides: [2]*game.Side{
			{Role: game.P1, Team: []*game.Pokemon{{Species: "A", Active: true}, {Species: "B", Active: true}, {Species: "C"}}, ActiveRequest: mine},
			{Role: game.P2, Team: []*game.Pokemon{{Species: "D", Active: true}}, ActiveRequest: theirs},
		},
	}

	p, pos, err := Start(context.Background(), newFake(), testConfig(), codec.Serialize(b))
	require.NoError(t, err)

	require.ElementsMatch(t, game.LegalJointOrders(mine), pos.MyOrders())
	require.ElementsMatch(t, game.LegalJointOrders(theirs), pos.TheirOrders())
	require.NoError(t, p.Close())
}
