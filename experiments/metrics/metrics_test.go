package metrics

import (
	"encoding/csv"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func records() []MoveRecord {
	planned := func(agent int, d time.Duration, sims int) MoveRecord {
		return MoveRecord{Agent: agent, MoveMetric: MoveMetric{
			Battle:  "battle-1",
			Turn:    3,
			Role:    "p1",
			Order:   "move 1 1, move 2 2",
			Planned: true,
			SearchMetric: SearchMetric{
				Duration:     d,
				Simulations:  sims,
				Cutoff:       50,
				Exploration:  math.Sqrt2,
				Evaluator:    "terminal",
				FullPlayouts: sims / 2,
				EngineSteps:  sims * 3,
				RootChildren: 4,
				RootVisits:   sims,
			},
		}}
	}
	return []MoveRecord{
		planned(2, 30*time.Millisecond, 20),
		planned(1, 10*time.Millisecond, 10),
		planned(1, 20*time.Millisecond, 30),
		{Agent: 1, MoveMetric: MoveMetric{Battle: "battle-2", Order: "default", Fallback: "team preview"}},
	}
}

func TestCollector(t *testing.T) {
	t.Run("counts search events", func(t *testing.T) {
		c := NewCollector()
		c.Start(50, 1.5, "hp")
		c.AddSimulation()
		c.AddSimulation()
		c.AddFullPlayout()
		c.AddDeadEnd()
		c.AddEngineStep()
		c.SetRoot(3, 2)

		m := c.Complete()

		require.Equal(t, 2, m.Simulations)
		require.Equal(t, 1, m.FullPlayouts)
		require.Equal(t, 1, m.DeadEnds)
		require.Equal(t, 1, m.EngineSteps)
		require.Equal(t, 3, m.RootChildren)
		require.Equal(t, 2, m.RootVisits)
		require.Equal(t, 50, m.Cutoff)
		require.Equal(t, "hp", m.Evaluator)
	})

	t.Run("each collector keeps its own counts", func(t *testing.T) {
		first, second := NewCollector(), NewCollector()
		first.AddSimulation()
		first.AddEngineStep()
		second.AddSimulation()

		require.Equal(t, 1, first.Complete().EngineSteps)
		require.Zero(t, second.Complete().EngineSteps)
		require.Equal(t, 1, second.Complete().Simulations)
	})

	t.Run("dummy collector records nothing", func(t *testing.T) {
		c := NewDummyCollector()
		c.Start(50, 1.5, "hp")
		c.AddSimulation()

		require.Equal(t, SearchMetric{}, c.Complete())
	})
}

func TestSummarize(t *testing.T) {
	summaries := Summarize(records())

	require.Len(t, summaries, 2)
	first := summaries[0]
	require.Equal(t, 1, first.Agent)
	require.Equal(t, 3, first.Moves)
	require.Equal(t, 2, first.Planned)
	require.Equal(t, 1, first.Fallbacks)
	require.InDelta(t, 15.0, first.MeanDurationMS, 1e-9)
	require.InDelta(t, 20.0, first.MeanSimulations, 1e-9)
	require.Equal(t, 2, summaries[1].Agent)
	require.InDelta(t, 30.0, summaries[1].MedianDurationMS, 1e-9)
}

func TestWriter(t *testing.T) {
	w, err := NewWriter(t.TempDir(), "evaluators")
	require.NoError(t, err)

	t.Run("move records csv", func(t *testing.T) {
		require.NoError(t, w.WriteMoveRecords(records()))

		f, err := os.Open(filepath.Join(w.Dir(), "move_records.csv"))
		require.NoError(t, err)
		defer f.Close()
		rows, err := csv.NewReader(f).ReadAll()
		require.NoError(t, err)

		require.Len(t, rows, 5)
		require.Equal(t, "agent", rows[0][0])
		require.Equal(t, "move 1 1, move 2 2", rows[1][4])
	})

	t.Run("move records parquet", func(t *testing.T) {
		require.NoError(t, w.WriteMoveRecordsParquet(records()))

		got, err := ReadMoveRecordsParquet(filepath.Join(w.Dir(), "move_records.parquet"))
		require.NoError(t, err)

		require.Len(t, got, 4)
		require.Equal(t, 2, got[0].Agent)
		require.Equal(t, 20, got[0].Simulations)
		require.Equal(t, 30*time.Millisecond, got[0].Duration)
		require.Equal(t, "team preview", got[3].Fallback)
		require.False(t, got[3].Planned)
	})

	t.Run("configs and summaries", func(t *testing.T) {
		require.NoError(t, w.WriteAgentConfigs([]AgentConfig{{ID: 1, Simulations: 100, Cutoff: 50, Exploration: math.Sqrt2, Evaluator: "terminal"}}))
		require.NoError(t, w.WriteSummaries(Summarize(records())))

		require.FileExists(t, filepath.Join(w.Dir(), "agent_configs.csv"))
		require.FileExists(t, filepath.Join(w.Dir(), "summaries.csv"))
	})
}
