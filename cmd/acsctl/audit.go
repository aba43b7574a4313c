package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"acs/internal/audit"
	"acs/internal/command"
	"acs/internal/handlers"
)

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "audit", Short: "Query and maintain the tamper-evident audit chain"}
	cmd.AddCommand(newAuditQueryCmd())
	cmd.AddCommand(newAuditVerifyCmd())
	cmd.AddCommand(newAuditPurgeCmd())
	cmd.AddCommand(newAuditExportCmd())
	return cmd
}

func auditFilterFlags(c *cobra.Command, from, to, entityType, entityID, changedBy, changeTypePrefix *string) {
	c.Flags().StringVar(from, "from", "", "only records changed at or after this RFC3339 timestamp")
	c.Flags().StringVar(to, "to", "", "only records changed at or before this RFC3339 timestamp")
	c.Flags().StringVar(entityType, "entity-type", "", "filter by entity type: user, group, role, resource, permission, system")
	c.Flags().StringVar(entityID, "entity-id", "", "filter by entity id")
	c.Flags().StringVar(changedBy, "changed-by", "", "filter by submitter")
	c.Flags().StringVar(changeTypePrefix, "change-type-prefix", "", "filter by change type prefix, e.g. SECURITY:")
}

func buildFilter(from, to, entityType, entityID, changedBy, changeTypePrefix string) (audit.Filter, error) {
	f := audit.Filter{
		EntityType:       audit.EntityType(entityType),
		EntityID:         entityID,
		ChangedBy:        changedBy,
		ChangeTypePrefix: changeTypePrefix,
	}
	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return f, fmt.Errorf("parse --from: %w", err)
		}
		f.From = t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return f, fmt.Errorf("parse --to: %w", err)
		}
		f.To = t
	}
	return f, nil
}

func newAuditQueryCmd() *cobra.Command {
	var from, to, entityType, entityID, changedBy, changeTypePrefix string
	var limit, offset int
	c := &cobra.Command{
		Use:   "query",
		Short: "Query audit records",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(from, to, entityType, entityID, changedBy, changeTypePrefix)
			if err != nil {
				return err
			}
			resp := submit(cmd.Context(), eng, command.KindAuditQuery, handlers.AuditQueryPayload{Filter: filter, Limit: limit, Offset: offset})
			return render(out, resp)
		},
	}
	auditFilterFlags(c, &from, &to, &entityType, &entityID, &changedBy, &changeTypePrefix)
	c.Flags().IntVar(&limit, "limit", 0, "maximum records to return, 0 for no limit")
	c.Flags().IntVar(&offset, "offset", 0, "records to skip, newest first")
	return c
}

// violationReport is a JSON/YAML/table-friendly view of audit.Violation:
// Violation.Err is an error interface with unexported fields, so it
// marshals to an empty object unless flattened to a string first.
type violationReport struct {
	RecordID int64  `json:"record_id" yaml:"record_id"`
	Err      string `json:"error" yaml:"error"`
}

func newAuditVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Walk the whole audit chain and report any tampering",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindAuditVerify, struct{}{})
			if !resp.Success {
				return render(out, resp)
			}
			violations, _ := resp.Value.([]audit.Violation)
			if len(violations) == 0 {
				out.success("audit chain is intact")
				return nil
			}
			reports := make([]violationReport, len(violations))
			for i, v := range violations {
				reports[i] = violationReport{RecordID: v.RecordID, Err: v.Err.Error()}
			}
			return out.write(reports)
		},
	}
}

func newAuditPurgeCmd() *cobra.Command {
	var retentionDays int
	c := &cobra.Command{
		Use:   "purge",
		Short: "Remove audit records older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindAuditPurge, handlers.AuditPurgePayload{RetentionDays: retentionDays})
			return render(out, resp)
		},
	}
	c.Flags().IntVar(&retentionDays, "retention-days", 0, "records with a change date older than this many days are purged")
	c.MarkFlagRequired("retention-days")
	return c
}

func newAuditExportCmd() *cobra.Command {
	var from, to, entityType, entityID, changedBy, changeTypePrefix string
	var format, compression, outputPath string
	c := &cobra.Command{
		Use:   "export",
		Short: "Stream the audit chain to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := buildFilter(from, to, entityType, entityID, changedBy, changeTypePrefix)
			if err != nil {
				return err
			}
			w := os.Stdout
			if outputPath != "" && outputPath != "-" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			// ExportAudit is called directly rather than through submit/Dispatch:
			// a stream writer has no JSON envelope form, and Dispatch rejects
			// KindAuditExport for exactly that reason.
			if err := eng.frontend.ExportAudit(cmd.Context(), w, audit.ExportFormat(format), audit.ExportCompression(compression), filter); err != nil {
				return err
			}
			if w != os.Stdout {
				out.success(fmt.Sprintf("exported to %s", outputPath))
			}
			return nil
		},
	}
	auditFilterFlags(c, &from, &to, &entityType, &entityID, &changedBy, &changeTypePrefix)
	c.Flags().StringVar(&format, "format", string(audit.ExportCSV), "export format: csv, json")
	c.Flags().StringVar(&compression, "compression", string(audit.CompressionNone), "compression: gzip, zstd, or empty for none")
	c.Flags().StringVar(&outputPath, "output", "-", "output file path, - for stdout")
	return c
}
