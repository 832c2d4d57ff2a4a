package worker

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/reusee/minion/brain"
	"github.com/reusee/minion/syncs"
	"go.starlark.net/starlark"
	"golang.org/x/sync/errgroup"
)

func init() {
	brain.RegisterWorker("ensemble", func() brain.Worker { return &Ensemble{} })
}

// EnsembleMember names one sub-worker copy to run, mirroring the teacher's
// generators.GeneratorArgs-per-member shape generalized to a route name.
type EnsembleMember struct {
	Route  string
	Model  string
	Weight float64 // used only by the "weighted" strategy
}

// Ensemble runs a configured set of sub-workers (possibly several copies of
// the same route) concurrently and aggregates their candidates with a
// named strategy, per spec §4.6's "ensemble" row. Grounded on
// main/ensemble_logic.py's vote-then-aggregate shape (original_source).
type Ensemble struct {
	Members  []EnsembleMember
	Strategy string // "majority" (default), "weighted", or "best"
	// WeightExpr, when set, is a Starlark expression evaluated per
	// candidate to produce its weight for the "weighted" strategy — an
	// optional scripted alternative to EnsembleMember.Weight, reusing the
	// same go.starlark.net dependency the interpreter package depends on.
	WeightExpr string
	// MaxConcurrency bounds how many members run at once; 0 means
	// unbounded. Grounded on the teacher's syncs.Semaphore
	// (syncs/semaphore.go), a plain buffered-channel semaphore.
	MaxConcurrency int
}

func (e *Ensemble) Execute(ctx context.Context, in *brain.Input, b *brain.Brain) (*brain.AgentResponse, error) {
	if len(e.Members) == 0 {
		return nil, fmt.Errorf("worker: ensemble has no members configured")
	}

	var sem syncs.Semaphore
	if e.MaxConcurrency > 0 {
		sem = syncs.NewSemaphore(e.MaxConcurrency)
	}

	responses := make([]*brain.AgentResponse, len(e.Members))
	group, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for i, member := range e.Members {
		i, member := i, member
		group.Go(func() error {
			if sem != nil {
				sem.Acquire()
				defer sem.Release()
			}
			sub, err := b.Workers.New(member.Route)
			if err != nil {
				return nil
			}
			resp, err := sub.Execute(gctx, in, b)
			if err != nil {
				return nil
			}
			mu.Lock()
			responses[i] = resp
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	var valid []*brain.AgentResponse
	var weights []float64
	for i, r := range responses {
		if r == nil {
			continue
		}
		valid = append(valid, r)
		weights = append(weights, e.weightFor(e.Members[i], r))
	}
	if len(valid) == 0 {
		return &brain.AgentResponse{Terminated: false, Truncated: true}, nil
	}

	switch e.Strategy {
	case "best":
		return e.pickBest(valid), nil
	case "weighted":
		return e.pickWeighted(valid, weights), nil
	default:
		return e.pickMajority(valid), nil
	}
}

func (e *Ensemble) weightFor(member EnsembleMember, resp *brain.AgentResponse) float64 {
	if e.WeightExpr == "" {
		if member.Weight != 0 {
			return member.Weight
		}
		return 1
	}
	thread := &starlark.Thread{Name: "ensemble-weight"}
	globals := starlark.StringDict{"score": starlark.Float(resp.Score)}
	v, err := starlark.EvalOptions(nil, thread, "weight", e.WeightExpr, globals)
	if err != nil {
		return 1
	}
	f, ok := starlark.AsFloat(v)
	if !ok {
		return 1
	}
	return f
}

func (e *Ensemble) pickBest(valid []*brain.AgentResponse) *brain.AgentResponse {
	best := valid[0]
	for _, r := range valid[1:] {
		if r.Score > best.Score {
			best = r
		}
	}
	return best
}

func (e *Ensemble) pickMajority(valid []*brain.AgentResponse) *brain.AgentResponse {
	votes := map[string]int{}
	for _, r := range valid {
		votes[r.Answer]++
	}
	best := valid[0]
	bestVotes := -1
	for _, r := range valid {
		v := votes[r.Answer]
		if v > bestVotes || (v == bestVotes && r.Score > best.Score) {
			best, bestVotes = r, v
		}
	}
	merged := *best
	merged.Metadata = map[string]any{"votes": votes[best.Answer], "members": len(valid)}
	return &merged
}

func (e *Ensemble) pickWeighted(valid []*brain.AgentResponse, weights []float64) *brain.AgentResponse {
	totals := map[string]float64{}
	for i, r := range valid {
		totals[r.Answer] += weights[i]
	}
	answers := make([]string, 0, len(totals))
	for a := range totals {
		answers = append(answers, a)
	}
	sort.Strings(answers) // deterministic tie order before comparing totals
	bestAnswer := answers[0]
	for _, a := range answers[1:] {
		if totals[a] > totals[bestAnswer] {
			bestAnswer = a
		}
	}
	for _, r := range valid {
		if r.Answer == bestAnswer {
			merged := *r
			merged.Metadata = map[string]any{"weighted_total": totals[bestAnswer], "members": len(valid)}
			return &merged
		}
	}
	return valid[0]
}
