// Package check implements the Check/Improve loop (spec §4.7): a Checker
// scores a candidate answer and returns feedback; an Improver produces a
// new candidate from that feedback; Loop.Run drives the two to
// convergence. Grounded on the teacher/original_source's
// main/check.py (CheckMinion's XML-critic shape, generalized from Jinja2 +
// an XML response format into a Go regex-based extractor) and
// main/improve.py (FeedbackMinion).
package check

import (
	"context"

	"github.com/reusee/minion/brain"
)

// Checker scores a candidate input/answer pair, returning a score in
// [0, 1] and human-readable feedback for the Improver to act on.
type Checker interface {
	Check(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse) (score float64, feedback string, err error)
}

// Improver produces a new candidate from the original input, the failing
// candidate, and the Checker's feedback — spec §4.7's FeedbackMinion.
type Improver interface {
	Improve(ctx context.Context, in *brain.Input, candidate *brain.AgentResponse, feedback string, b *brain.Brain) (*brain.AgentResponse, error)
}

// Tolerance controls how CheckMinion-family checkers compare values:
// numeric comparisons allow Numeric absolute difference; string
// comparisons trim whitespace and are case-sensitive unless CaseInsensitive
// is set. Mirrors spec §4.7's closing sentence verbatim.
type Tolerance struct {
	Numeric         float64
	CaseInsensitive bool
}

// DefaultTolerance is used when a checker is not given one explicitly.
var DefaultTolerance = Tolerance{Numeric: 1e-6}
