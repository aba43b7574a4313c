// Package main provides the acsd daemon.
package main

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"acs/internal/audit"
	"acs/internal/cache"
	"acs/internal/command"
	"acs/internal/config"
	"acs/internal/eval"
	"acs/internal/frontend"
	"acs/internal/graph"
	"acs/internal/handlers"
	"acs/internal/logger"
	"acs/internal/repository"
	"acs/internal/repository/postgres"
	"acs/internal/resilience"
)

// Daemon manages acsd's components and their lifecycle: the entity graph
// and its supporting evaluator/cache (C1-C3), the command buffer and its
// registered handlers (C4/C5), the audit chain (C6), the repository
// gateway (C7), the resilience supervisor wrapping every command (C8),
// and the frontend gateway plus metrics/health HTTP listener that expose
// all of it to the outside world.
type Daemon struct {
	cfg       *config.AcsdConfig
	configDir string
	log       *logger.Logger
	auditLog  *logger.AuditLogger

	graph    *graph.Graph
	evalr    *eval.Evaluator
	cache    *cache.Cache
	auditLg  *audit.Log
	gateway  repository.Gateway
	buffer   *command.Buffer
	service  *handlers.Service
	super    *resilience.Supervisor
	frontend *frontend.Gateway

	registry   *prometheus.Registry
	httpServer *http.Server

	mu        sync.Mutex
	running   bool
	startedAt time.Time
}

// NewDaemon creates a new daemon instance wired to cfg, but starts none of
// its components yet.
func NewDaemon(cfg *config.AcsdConfig, configDir string, log *logger.Logger, auditLog *logger.AuditLogger) *Daemon {
	return &Daemon{
		cfg:       cfg,
		configDir: configDir,
		log:       log,
		auditLog:  auditLog,
	}
}

// Start initializes every component in dependency order: repository ->
// entity graph/audit chain restore -> evaluator/cache -> command buffer +
// handlers -> resilience supervisor -> frontend gateway -> metrics/health
// listener.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.log.Info("starting daemon components")

	if err := d.writePIDFile(); err != nil {
		d.log.Warn("failed to write PID file", "error", err, "path", d.cfg.Server.PIDFile)
	}

	gateway, err := d.openGateway(ctx)
	if err != nil {
		return fmt.Errorf("failed to open repository gateway: %w", err)
	}
	d.gateway = gateway

	g := graph.New()
	auditLog := audit.NewLog(d.cfg.TenantID, audit.WithPreservedChangeTypes(d.cfg.Retention.PreserveChangeTypes...))

	snapshot, records, err := gateway.Load(ctx)
	if err != nil {
		_ = gateway.Close()
		return fmt.Errorf("failed to load persisted state: %w", err)
	}
	restoreSnapshot(g, snapshot)
	auditLog.Restore(records)
	d.log.Info("restored persisted state",
		"users", len(snapshot.Users), "groups", len(snapshot.Groups),
		"roles", len(snapshot.Roles), "resources", len(snapshot.Resources),
		"permissions", len(snapshot.Permissions), "audit_records", len(records),
	)

	d.graph = g
	d.auditLg = auditLog
	d.evalr = eval.New(g)
	d.cache = cache.New(d.cfg.Cache.MaxEntries)
	d.service = handlers.New(d.graph, d.evalr, d.cache, d.auditLg, d.gateway)

	d.buffer = command.New(d.cfg.Buffer.SoftCap)
	d.service.Register(d.buffer)

	d.registry = prometheus.NewRegistry()
	d.super = resilience.NewSupervisor(resilience.Config{
		Breaker: resilience.BreakerConfig{
			WindowSize: d.cfg.Circuit.Window,
			OpenAt:     d.cfg.Circuit.OpenAt,
			Cooldown:   d.cfg.Circuit.Cooldown,
		},
		DLQSize:     1000,
		SampleFloor: d.cfg.Monitor.SampleFloor,
	}, d.registry)
	d.buffer.Use(d.super.Wrap)
	d.buffer.Start(ctx)

	d.frontend = &frontend.Gateway{Service: d.service, Buffer: d.buffer}
	if d.cfg.Identity.KeyPath != "" {
		d.frontend.TrustedKeys = d.loadTrustedKeys()
	}

	if err := d.startMetricsServer(); err != nil {
		d.buffer.Stop()
		_ = d.gateway.Close()
		return fmt.Errorf("failed to start metrics listener: %w", err)
	}

	d.running = true
	d.startedAt = time.Now()
	d.log.Info("daemon started successfully")
	return nil
}

// Stop drains the command buffer, stops the metrics listener, and closes
// the repository gateway, in the reverse of Start's order.
func (d *Daemon) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}
	d.log.Info("stopping daemon components")

	var errs []error
	if d.httpServer != nil {
		if err := d.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics listener: %w", err))
		}
	}
	if d.buffer != nil {
		d.buffer.Stop()
	}
	if d.gateway != nil {
		if err := d.gateway.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository gateway: %w", err))
		}
	}
	if err := d.removePIDFile(); err != nil {
		d.log.Warn("failed to remove PID file", "error", err)
	}

	d.running = false
	if len(errs) > 0 {
		d.log.Error("daemon stopped with errors", "errors", errs)
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	d.log.Info("daemon stopped successfully")
	return nil
}

// Frontend returns the command gateway other components (a transport this
// repository does not implement, per §1) would dispatch envelopes
// through.
func (d *Daemon) Frontend() *frontend.Gateway { return d.frontend }

// openGateway selects the Postgres-backed gateway when a DSN is
// configured, falling back to the in-memory gateway otherwise — the same
// default a test harness uses, so a fresh install runs without any
// external dependency until an operator points it at Postgres.
func (d *Daemon) openGateway(ctx context.Context) (repository.Gateway, error) {
	if d.cfg.Postgres.DSN == "" {
		d.log.Info("no postgres DSN configured, using in-memory repository gateway")
		return repository.NewMemory(), nil
	}
	d.log.Info("connecting to postgres repository gateway")
	return postgres.Open(ctx, d.cfg.Postgres.DSN)
}

// restoreSnapshot replays a loaded Snapshot into a fresh graph, in
// dependency order: entities and resources first, relations and
// permissions only make sense once the nodes they reference exist.
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

// startMetricsServer exposes /metrics (the resilience supervisor's
// Prometheus collectors) and /healthz (the health monitor's aggregate
// status) on cfg.Server's listen address. This is the one HTTP surface
// acsd exposes on its own; the command/query transport itself is out of
// scope (§1) and left to whatever embeds internal/frontend.Gateway.
func (d *Daemon) startMetricsServer() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", d.handleHealthz)

	d.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", d.cfg.Server.Host, d.cfg.Server.Port),
		Handler: mux,
	}
	ln, err := net.Listen("tcp", d.httpServer.Addr)
	if err != nil {
		return err
	}
	go func() {
		if err := d.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			d.log.Error("metrics listener stopped", "error", err)
		}
	}()
	d.log.Info("metrics listener started", "addr", d.httpServer.Addr)
	return nil
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := d.super.Health().Overall()
	w.Header().Set("Content-Type", "text/plain")
	if status == resilience.Critical {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	fmt.Fprintln(w, status.String())
}

// loadTrustedKeys resolves acsd's own identity key into a single-entry
// TrustedKeys lookup: today every signed envelope is expected to come
// from the operator identity named in config, verified against that one
// key. A multi-submitter deployment would back this with a directory
// instead; nothing in SPEC_FULL.md calls for one yet.
func (d *Daemon) loadTrustedKeys() frontend.TrustedKeys {
	id, err := frontend.LoadSigningIdentity(d.cfg.Identity.KeyPath)
	if err != nil {
		d.log.Warn("failed to load signing identity, envelope signatures will never verify", "error", err, "path", d.cfg.Identity.KeyPath)
		return nil
	}
	name := d.cfg.Identity.Name
	return func(submittedBy string) (ed25519.PublicKey, bool) {
		if submittedBy != name {
			return nil, false
		}
		return id.PublicKey, true
	}
}

func (d *Daemon) writePIDFile() error {
	if d.cfg.Server.PIDFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(d.cfg.Server.PIDFile), 0755); err != nil {
		return fmt.Errorf("failed to create PID file directory: %w", err)
	}
	return os.WriteFile(d.cfg.Server.PIDFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

func (d *Daemon) removePIDFile() error {
	if d.cfg.Server.PIDFile == "" {
		return nil
	}
	if err := os.Remove(d.cfg.Server.PIDFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// IsRunning reports whether Start has completed without a matching Stop.
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}

// StartedAt returns when the daemon started.
func (d *Daemon) StartedAt() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startedAt
}
