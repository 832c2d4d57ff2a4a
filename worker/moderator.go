package worker

import (
	"context"

	"github.com/reusee/minion/brain"
)

func init() {
	brain.RegisterWorker("moderator", func() brain.Worker { return &Moderator{} })
}

// Moderator is the top-level worker (spec §4.6's "moderator" row): it
// decides whether to honor an explicit Input.Route, delegate to the
// "route" meta-worker, or run a configured ensemble, and owns the single
// retry budget for the AgentResponse it ultimately returns.
type Moderator struct {
	// EnsembleRoute, when set and Input.Route is empty, is used instead of
	// "route" — e.g. a caller that always wants self-consistency voting
	// rather than LLM-chosen routing.
	EnsembleRoute string
	MaxRetries    int // defaults to 1 (no retry)
}

func (m *Moderator) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	retries := m.MaxRetries
	if retries <= 0 {
		retries = 1
	}

	routeName := in.Route
	if routeName == "" {
		routeName = m.EnsembleRoute
	}
	if routeName == "" {
		routeName = "route"
	}

	var last *brain.AgentResponse
	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		sub, err := b.Workers.New(routeName)
		if err != nil {
			return nil, err
		}
		resp, err := sub.Execute(ctx, in, b)
		if err != nil {
			if b.Logger != nil {
				b.Logger.WarnContext(ctx, "moderator: attempt failed", "route", routeName, "attempt", attempt, "error", err)
			}
			lastErr = err
			continue
		}
		last = resp
		if resp.Terminated {
			return resp, nil
		}
	}
	if last != nil {
		return last, nil
	}
	return nil, lastErr
}
