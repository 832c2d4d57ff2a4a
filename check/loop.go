package check

import (
	"context"

	"github.com/reusee/minion/brain"
)

// Loop drives a Checker/Improver pair to convergence (spec §4.7): it runs
// at most MaxRounds improve rounds, terminating early when the score
// reaches AcceptanceThreshold or fails to improve across two consecutive
// rounds.
type Loop struct {
	Checker             Checker
	Improver            Improver
	MaxRounds           int     // defaults to 3
	AcceptanceThreshold float64 // defaults to 0.9
}

// Outcome is the final state Loop.Run reaches.
type Outcome struct {
	Candidate *brain.AgentResponse
	Score     float64
	Feedback  string
	Rounds    int
	Accepted  bool
}

// Run checks candidate, and if it falls short of AcceptanceThreshold,
// repeatedly improves and rechecks it until acceptance, stagnation across
// two consecutive rounds, or MaxRounds is reached.
func (l Loop) Run(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse, b *brain.Brain) (Outcome, error) {
	maxRounds := l.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 3
	}
	threshold := l.AcceptanceThreshold
	if threshold <= 0 {
		threshold = 0.9
	}

	score, feedback, err := l.Checker.Check(ctx, in, candidate)
	if err != nil {
		return Outcome{}, err
	}
	if score >= threshold {
		return Outcome{Candidate: candidate, Score: score, Feedback: feedback, Accepted: true}, nil
	}

	prevScore := score
	stagnant := 0
	for round := 0; round < maxRounds; round++ {
		improved, err := l.Improver.Improve(ctx, in, candidate, feedback, b)
		if err != nil {
			return Outcome{}, err
		}
		candidate = improved

		score, feedback, err = l.Checker.Check(ctx, in, candidate)
		if err != nil {
			return Outcome{}, err
		}
		if score >= threshold {
			return Outcome{Candidate: candidate, Score: score, Feedback: feedback, Rounds: round + 1, Accepted: true}, nil
		}
		if score <= prevScore {
			stagnant++
		} else {
			stagnant = 0
		}
		prevScore = score
		if stagnant >= 2 {
			if b != nil && b.Logger != nil {
				b.Logger.InfoContext(ctx, "check: loop stopped on stagnation", "round", round+1, "score", score)
			}
			return Outcome{Candidate: candidate, Score: score, Feedback: feedback, Rounds: round + 1}, nil
		}
	}

	return Outcome{Candidate: candidate, Score: score, Feedback: feedback, Rounds: maxRounds}, nil
}
