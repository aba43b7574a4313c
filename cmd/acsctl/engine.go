// Package main provides acsctl, the operator CLI. Each invocation wires its
// own copy of the engine (C1-C8) in-process rather than dialing a running
// acsd over a network transport: §1 places that transport out of scope, and
// several admin commands are most naturally run directly against local
// storage rather than through a daemon client. Pointing Postgres at the
// same DSN a live acsd uses makes acsctl's
// view consistent with that daemon's; leaving it empty gives a throwaway
// in-memory engine, useful for a one-off demo but invisible to any other
// process.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"acs/internal/audit"
	"acs/internal/cache"
	"acs/internal/command"
	"acs/internal/config"
	"acs/internal/eval"
	"acs/internal/frontend"
	"acs/internal/graph"
	"acs/internal/handlers"
	"acs/internal/repository"
	"acs/internal/repository/postgres"
	"acs/internal/resilience"
)

// engine bundles the embedded components acsctl drives directly, plus the
// frontend.Gateway every subcommand submits its envelope through.
type engine struct {
	gateway  repository.Gateway
	buffer   *command.Buffer
	frontend *frontend.Gateway
}

// openEngine loads persisted state, wires C1-C8 in dependency order, and
// starts the command buffer. Callers must call close when done so the
// buffer drains and the repository gateway releases its connections.
// signingID, when non-nil, is the identity root.go already loaded for
// signing the CLI's own outgoing envelopes; in this single-process model
// it doubles as the one key the engine trusts for inbound verification,
// since there is no other submitter an invocation could receive an
// envelope from.
func openEngine(ctx context.Context, cfg *config.AcsctlConfig, signingID *frontend.SigningIdentity) (*engine, error) {
	var gw repository.Gateway
	var err error
	if cfg.Postgres.DSN == "" {
		gw = repository.NewMemory()
	} else {
		gw, err = postgres.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres repository gateway: %w", err)
		}
	}

	g := graph.New()
	auditLog := audit.NewLog(cfg.TenantID)

	snapshot, records, err := gw.Load(ctx)
	if err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("load persisted state: %w", err)
	}
	restoreSnapshot(g, snapshot)
	auditLog.Restore(records)

	evaluator := eval.New(g)
	c := cache.New(10000)
	service := handlers.New(g, evaluator, c, auditLog, gw)

	buf := command.New(1000)
	service.Register(buf)

	super := resilience.NewSupervisor(resilience.Config{
		Breaker:     resilience.BreakerConfig{WindowSize: 10, OpenAt: 0.25, Cooldown: 30 * time.Second},
		DLQSize:     100,
		SampleFloor: 10,
	}, prometheus.NewRegistry())
	buf.Use(super.Wrap)
	buf.Start(ctx)

	gateway := &frontend.Gateway{Service: service, Buffer: buf}
	if signingID != nil {
		name := cfg.Identity.Name
		gateway.TrustedKeys = func(submittedBy string) (ed25519.PublicKey, bool) {
			if submittedBy != name {
				return nil, false
			}
			return signingID.PublicKey, true
		}
	}

	return &engine{gateway: gw, buffer: buf, frontend: gateway}, nil
}

func (e *engine) close() error {
	e.buffer.Stop()
	return e.gateway.Close()
}

func restoreSnapshot(g *graph.Graph, snapshot *repository.Snapshot) {
	for _, u := range snapshot.Users {
		g.RestoreUser(u)
	}
	for _, grp := range snapshot.Groups {
		g.RestoreGroup(grp)
	}
	for _, r := range snapshot.Roles {
		g.RestoreRole(r)
	}
	for _, res := range snapshot.Resources {
		g.RestoreResource(res)
	}
	for _, p := range snapshot.Permissions {
		g.RestorePermission(p)
	}
	g.SetIDCounters(snapshot.NextEntityID, snapshot.NextResourceID, snapshot.NextPermissionID)
}
