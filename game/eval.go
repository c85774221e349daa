package game

// EvaluateTerminal applies the finished-battle reward to any position: a
// decided battle scores its reward and an undecided one scores 0.
func EvaluateTerminal(p Position) float64 {
	if !p.Terminal {
		return Tie
	}
	return p.Reward
}

// EvaluateHP scores an undecided position by how much health each side has
// left, relative to each other. Decided positions score their reward and
// positions with unknown health score 0.
func EvaluateHP(p Position) float64 {
	if p.Terminal {
		return p.Reward
	}
	if !p.HPKnown {
		return Tie
	}
	return normalize(p.MyHP, p.TheirHP)
}

// normalize normalizes value relative to otherValue to a score between -1 and 1
func normalize(value float64, otherValue float64) float64 {
	total := value + otherValue
	if total == 0 {
		return 0
	}
	return (value - otherValue) / total
}
