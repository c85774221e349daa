package game

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	undecided := Position{MyHP: 0.75, TheirHP: 0.25, HPKnown: true}
	won := Position{Terminal: true, Reward: Win, MyHP: 0.1, TheirHP: 0}

	require.Equal(t, Tie, EvaluateTerminal(undecided))
	require.Equal(t, Win, EvaluateTerminal(won))

	require.InDelta(t, 0.5, EvaluateHP(undecided), 1e-9)
	require.Equal(t, Win, EvaluateHP(won))
	require.Zero(t, EvaluateHP(Position{HPKnown: true}), "no hit points on either side")
	require.Zero(t, EvaluateHP(Position{MyHP: 0.9, TheirHP: 0.1}), "unread health is not scored")
}
