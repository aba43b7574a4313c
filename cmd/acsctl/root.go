package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"acs/internal/config"
	"acs/internal/frontend"
)

var (
	cfgFile      string
	outputFormat string
	identityName string

	cfg *config.AcsctlConfig
	eng *engine
	id  *frontend.SigningIdentity
	out *outputWriter
)

var rootCmd = &cobra.Command{
	Use:   "acsctl",
	Short: "Operator CLI for the Access Control Service",
	Long: `acsctl drives an embedded Access Control Service engine directly:
every subcommand loads configuration, wires the entity graph, evaluator,
cache, audit chain, and command buffer in-process, runs one operation, and
tears the engine back down. Point the config file's postgres.dsn at the
same database a running acsd uses to operate against its live state;
leave it unset for a disposable in-memory engine.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		loaded, err := config.LoadAcsctl(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		if outputFormat != "" {
			cfg.Output.Format = outputFormat
		}
		if identityName != "" {
			cfg.Identity.Name = identityName
		}
		out = newOutputWriter(cfg.Output.Format)

		if cfg.Identity.KeyPath != "" {
			loadedID, err := frontend.LoadSigningIdentity(cfg.Identity.KeyPath)
			if err != nil {
				return fmt.Errorf("load signing identity: %w", err)
			}
			id = loadedID
		}

		e, err := openEngine(context.Background(), cfg, id)
		if err != nil {
			return fmt.Errorf("open engine: %w", err)
		}
		eng = e
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if eng == nil {
			return nil
		}
		return eng.close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/acsctl/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format: text, json, yaml, table (overrides config)")
	rootCmd.PersistentFlags().StringVar(&identityName, "identity", "", "submitter name stamped on envelopes (overrides config)")

	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newGroupCmd())
	rootCmd.AddCommand(newRoleCmd())
	rootCmd.AddCommand(newResourceCmd())
	rootCmd.AddCommand(newPermissionCmd())
	rootCmd.AddCommand(newEvaluateCmd())
	rootCmd.AddCommand(newAuditCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newVersionCmd())
}

// Execute runs the root command. Called once from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
