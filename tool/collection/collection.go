// Package collection provides Collection adapters that populate a
// tool.Registry from an external source: an MCP server or a filesystem
// skills directory. Both are "external collaborators" per the interpreter
// package's import-allowlist boundary — neither owns process execution
// directly, they only describe tools for the registry to call.
package collection

import (
	"context"

	"github.com/reusee/minion/tool"
)

// Collection is a pluggable source of tools that must be set up before use
// and torn down when the owning Agent closes.
type Collection interface {
	Setup(ctx context.Context) error
	Close() error
	Tools() []tool.Descriptor
}

// Health distinguishes a Collection that failed setup from one working
// normally, per the ignore_setup_errors option: a failed Collection is
// marked Unhealthy rather than aborting Agent.Setup.
type Health int

const (
	HealthOK Health = iota
	HealthUnhealthy
)

// Guarded wraps a Collection so that a Setup failure, when
// ignoreSetupErrors is true, marks it Unhealthy instead of propagating the
// error — the collection simply contributes no tools.
type Guarded struct {
	Collection
	ignoreSetupErrors bool
	health            Health
	setupErr          error
}

func NewGuarded(c Collection, ignoreSetupErrors bool) *Guarded {
	return &Guarded{Collection: c, ignoreSetupErrors: ignoreSetupErrors}
}

func (g *Guarded) Setup(ctx context.Context) error {
	err := g.Collection.Setup(ctx)
	if err == nil {
		g.health = HealthOK
		return nil
	}
	g.setupErr = err
	g.health = HealthUnhealthy
	if g.ignoreSetupErrors {
		return nil
	}
	return err
}

func (g *Guarded) Health() Health {
	return g.health
}

func (g *Guarded) SetupError() error {
	return g.setupErr
}

func (g *Guarded) Tools() []tool.Descriptor {
	if g.health == HealthUnhealthy {
		return nil
	}
	return g.Collection.Tools()
}
