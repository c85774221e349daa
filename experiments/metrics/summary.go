package metrics

import (
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Summary aggregates the move records of one agent.
type Summary struct {
	Agent            int
	Moves            int
	Planned          int
	Fallbacks        int
	MeanDurationMS   float64
	StdDevDurationMS float64
	MedianDurationMS float64
	MeanSimulations  float64
	MeanFullPlayouts float64
}

// Summarize groups records by agent, in ascending agent order. Timing and
// search statistics only cover planned moves.
func Summarize(records []MoveRecord) []Summary {
	byAgent := map[int][]MoveRecord{}
	for _, r := range records {
		byAgent[r.Agent] = append(byAgent[r.Agent], r)
	}
	agents := make([]int, 0, len(byAgent))
	for id := range byAgent {
		agents = append(agents, id)
	}
	sort.Ints(agents)

	summaries := make([]Summary, 0, len(agents))
	for _, id := range agents {
		s := Summary{Agent: id, Moves: len(byAgent[id])}
		var durations, simulations, playouts []float64
		for _, r := range byAgent[id] {
			if !r.Planned {
				s.Fallbacks++
				continue
			}
			s.Planned++
			durations = append(durations, float64(r.Duration)/float64(time.Millisecond))
			simulations = append(simulations, float64(r.Simulations))
			playouts = append(playouts, float64(r.FullPlayouts))
		}
		if len(durations) > 0 {
			s.MeanDurationMS, s.StdDevDurationMS = stat.MeanStdDev(durations, nil)
			sort.Float64s(durations)
			s.MedianDurationMS = stat.Quantile(0.5, stat.Empirical, durations, nil)
			s.MeanSimulations = stat.Mean(simulations, nil)
			s.MeanFullPlayouts = stat.Mean(playouts, nil)
		}
		summaries = append(summaries, s)
	}
	return summaries
}
