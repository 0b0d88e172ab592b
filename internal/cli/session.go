package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/apptrecon/internal/audit"
	"github.com/roach88/apptrecon/internal/config"
	"github.com/roach88/apptrecon/internal/queryir"
	"github.com/roach88/apptrecon/internal/reconcile"
	"github.com/roach88/apptrecon/internal/store"
)

// session is the state of one command run: resolved config, an open
// store and a run-scoped logger. Close releases the store.
type session struct {
	cfg   config.Config
	store store.Store
	log   *audit.Logger
	runID string
	ref   *time.Location
}

func (o *RootOptions) openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	ref, err := cfg.Location()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	st, err := o.openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runID := o.runID()
	return &session{
		cfg:   cfg,
		store: st,
		log:   o.logger(cmd, runID).With(audit.Fields{"table": cfg.Store.Table, "driver": cfg.Store.Driver}),
		runID: runID,
		ref:   ref,
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// fetch reads the table in a single round trip.
func (s *session) fetch(ctx context.Context, q queryir.Query, now time.Time) (reconcile.Snapshot, error) {
	s.log.Debug("fetch.started", audit.Fields{"filter": q.String()})
	records, err := s.store.FetchAll(ctx, s.cfg.Store.Table, q)
	if err != nil {
		return reconcile.Snapshot{}, WrapExitError(ExitCommandError, "failed to fetch appointments", err)
	}
	s.log.Event(audit.EventFetchCompleted, audit.Fields{"records": len(records), "filter": q.String()})
	return reconcile.Snapshot{Table: s.cfg.Store.Table, FetchedAt: now, Records: records}, nil
}

// plan fetches and computes the reconciliation plan.
func (s *session) plan(ctx context.Context, q queryir.Query, now time.Time) (reconcile.Plan, error) {
	snap, err := s.fetch(ctx, q, now)
	if err != nil {
		return reconcile.Plan{}, err
	}
	b, err := s.cfg.Builder(s.ref)
	if err != nil {
		return reconcile.Plan{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	p := reconcile.Build(snap, b)
	s.log.Event(audit.EventPlanComputed, audit.Fields{
		"total":       p.Total,
		"groups":      len(p.Groups),
		"to_delete":   len(p.ToDelete),
		"key_policy":  string(p.KeyPolicy),
		"fingerprint": p.Fingerprint,
	})
	return p, nil
}

// statusFilter narrows a fetch to one status when set.
func statusFilter(status string) queryir.Query {
	if status == "" {
		return queryir.Query{}
	}
	return queryir.Query{Filter: queryir.Eq("status", status)}
}
