package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"acs/internal/domain"
)

// outputWriter renders a value according to cfg.Output.Format: json and
// yaml marshal the value directly, table prints it through tabwriter
// when it knows how to, and text falls back to fmt's default formatting
// for anything else.
type outputWriter struct {
	format string
	out    io.Writer
}

func newOutputWriter(format string) *outputWriter {
	if format == "" {
		format = "text"
	}
	return &outputWriter{format: format, out: os.Stdout}
}

func (o *outputWriter) write(data any) error {
	switch o.format {
	case "json":
		return o.writeJSON(data)
	case "yaml":
		return o.writeYAML(data)
	case "table":
		return o.writeTable(data)
	default:
		return o.writeText(data)
	}
}

func (o *outputWriter) writeJSON(data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Fprintln(o.out, string(b))
	return nil
}

func (o *outputWriter) writeYAML(data any) error {
	b, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	fmt.Fprint(o.out, string(b))
	return nil
}

// writeTable renders a slice as a tab-aligned table when it can find field
// names to use as a header, falling back to writeText otherwise.
func (o *outputWriter) writeTable(data any) error {
	rows, header, ok := tableRows(data)
	if !ok {
		return o.writeText(data)
	}
	tw := tabwriter.NewWriter(o.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	for _, row := range rows {
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func (o *outputWriter) writeText(data any) error {
	fmt.Fprintln(o.out, data)
	return nil
}

func (o *outputWriter) success(msg string) {
	fmt.Fprintln(o.out, "OK:", msg)
}

// tableRows knows the header and row layout for the result shapes acsctl's
// list/query commands actually return. Anything else falls back to
// writeText rather than guessing at columns via reflection.
func tableRows(data any) (rows []string, header string, ok bool) {
	switch v := data.(type) {
	case []*domain.User:
		header = "ID\tNAME\tEMAIL\tSTATUS"
		for _, u := range v {
			rows = append(rows, fmt.Sprintf("%d\t%s\t%s\t%s", u.ID, u.Name, u.Email, u.Status))
		}
		return rows, header, true
	case []*domain.Group:
		header = "ID\tNAME\tMEMBERS\tROLES"
		for _, g := range v {
			rows = append(rows, fmt.Sprintf("%d\t%s\t%d\t%d", g.ID, g.Name, len(g.MemberUserIDs), len(g.RoleIDs)))
		}
		return rows, header, true
	case []*domain.Role:
		header = "ID\tNAME\tMEMBERS\tGROUPS"
		for _, r := range v {
			rows = append(rows, fmt.Sprintf("%d\t%s\t%d\t%d", r.ID, r.Name, len(r.MemberUserIDs), len(r.GroupIDs)))
		}
		return rows, header, true
	case []*domain.Resource:
		header = "ID\tURI\tTYPE\tPARENT"
		for _, res := range v {
			parent := "-"
			if res.ParentID != nil {
				parent = fmt.Sprintf("%d", *res.ParentID)
			}
			rows = append(rows, fmt.Sprintf("%d\t%s\t%s\t%s", res.ID, res.URI, res.ResourceType, parent))
		}
		return rows, header, true
	case []*domain.Permission:
		header = "ID\tENTITY\tRESOURCE\tVERB\tSCHEME\tEFFECT"
		for _, p := range v {
			rows = append(rows, fmt.Sprintf("%d\t%d\t%d\t%s\t%s\t%s", p.ID, p.EntityID, p.ResourceID, p.Verb, p.Scheme, effect(p)))
		}
		return rows, header, true
	default:
		return nil, "", false
	}
}

func effect(p *domain.Permission) string {
	if p.Deny {
		return "deny"
	}
	return "grant"
}
