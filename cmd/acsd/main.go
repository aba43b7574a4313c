package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"acs/internal/config"
	"acs/internal/logger"
	"acs/internal/version"
)

var (
	cfgFile     string
	showVersion bool
)

func init() {
	flag.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/acsd/config.yaml)")
	flag.BoolVar(&showVersion, "version", false, "show version")
}

func main() {
	flag.Parse()

	if showVersion {
		info := version.Get()
		fmt.Printf("acsd %s\n", info.String())
		fmt.Println(info.Full())
		os.Exit(0)
	}

	if cfgFile == "" {
		path, created, err := config.GenerateConfigIfNotExists(config.AppAcsd, "yaml")
		if err == nil && created {
			stdlog.Printf("Created default config at: %s", path)
		}
	}

	cfg, err := config.LoadAcsd(cfgFile)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}

	configDir, err := config.UserConfigDir(config.AppAcsd)
	if err != nil {
		stdlog.Fatalf("Failed to get config directory: %v", err)
	}

	cfg.Server.DataDir = expandPath(cfg.Server.DataDir)
	if err := os.MkdirAll(cfg.Server.DataDir, 0755); err != nil {
		stdlog.Fatalf("Failed to create data directory %q: %v", cfg.Server.DataDir, err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		stdlog.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = log.Close() }()

	operationalAuditPath := filepath.Join(cfg.Server.DataDir, "acsd-operations.log")
	auditLog, err := logger.NewAuditLogger(operationalAuditPath, cfg.Log.MaxAgeDays)
	if err != nil {
		log.Warn("failed to initialize operational audit logger", "error", err)
		auditLog = nil
	} else {
		defer func() { _ = auditLog.Close() }()
	}

	cc := logger.NewDaemonContext("acsd")
	ctx := logger.WithCommandContext(context.Background(), cc)
	ctx = logger.WithLogger(ctx, log)

	log.Info("starting acsd",
		"tenant_id", cfg.TenantID,
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"data_dir", cfg.Server.DataDir,
		"config_dir", configDir,
		"request_id", cc.RequestID,
	)

	if auditLog != nil {
		auditLog.Log(ctx, logger.AuditEvent{
			Action:   logger.AuditActionCommand,
			Actor:    cc.User,
			Resource: "acsd",
			Outcome:  logger.AuditOutcomeSuccess,
			Metadata: map[string]any{"event": "startup", "host": cfg.Server.Host, "port": cfg.Server.Port},
		})
	}

	daemon := NewDaemon(cfg, configDir, log, auditLog)
	if err := daemon.Start(ctx); err != nil {
		log.Error("failed to start daemon", "error", err)
		if auditLog != nil {
			auditLog.Log(ctx, logger.AuditEvent{
				Action:   logger.AuditActionCommand,
				Actor:    cc.User,
				Resource: "acsd",
				Outcome:  logger.AuditOutcomeFailure,
				Metadata: map[string]any{"event": "startup_failed", "error": err.Error()},
			})
		}
		os.Exit(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig.String(), "request_id", cc.RequestID)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := daemon.Stop(shutdownCtx); err != nil {
		log.Error("error during shutdown", "error", err)
	}

	if auditLog != nil {
		auditLog.Log(ctx, logger.AuditEvent{
			Action:   logger.AuditActionCommand,
			Actor:    cc.User,
			Resource: "acsd",
			Outcome:  logger.AuditOutcomeSuccess,
			Metadata: map[string]any{"event": "shutdown", "signal": sig.String()},
		})
	}

	log.Info("acsd stopped", "request_id", cc.RequestID)
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + path[1:]
}
