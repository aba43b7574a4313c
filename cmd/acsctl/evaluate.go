package main

import (
	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "evaluate", Short: "Answer access decision questions"}
	cmd.AddCommand(newEvaluateCheckCmd())
	cmd.AddCommand(newEvaluateExplainCmd())
	cmd.AddCommand(newEvaluateEntityCmd())
	return cmd
}

func evaluateFlags(c *cobra.Command, entityID *int64, uri, verb, scheme *string) {
	c.Flags().Int64Var(entityID, "entity", 0, "subject entity id")
	c.Flags().StringVar(uri, "uri", "", "resource URI being accessed")
	c.Flags().StringVar(verb, "verb", "", "verb: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
	c.Flags().StringVar(scheme, "scheme", "", "scheme the request is scoped to")
	c.MarkFlagRequired("entity")
	c.MarkFlagRequired("uri")
	c.MarkFlagRequired("verb")
}

func newEvaluateCheckCmd() *cobra.Command {
	var entityID int64
	var uri, verb, scheme string
	c := &cobra.Command{
		Use:   "check",
		Short: "Check whether access is allowed (boolean only, cache-backed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.CheckPermissionPayload{EntityID: domain.EntityID(entityID), URI: uri, Verb: domain.Verb(verb), Scheme: scheme}
			resp := submit(cmd.Context(), eng, command.KindCheckPermission, payload)
			return render(out, resp)
		},
	}
	evaluateFlags(c, &entityID, &uri, &verb, &scheme)
	return c
}

func newEvaluateExplainCmd() *cobra.Command {
	var entityID int64
	var uri, verb, scheme string
	c := &cobra.Command{
		Use:   "explain",
		Short: "Evaluate access and explain which permission decided it",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.EvaluatePermissionPayload{EntityID: domain.EntityID(entityID), URI: uri, Verb: domain.Verb(verb), Scheme: scheme}
			resp := submit(cmd.Context(), eng, command.KindEvaluatePermission, payload)
			return render(out, resp)
		},
	}
	evaluateFlags(c, &entityID, &uri, &verb, &scheme)
	return c
}

func newEvaluateEntityCmd() *cobra.Command {
	var entityID int64
	c := &cobra.Command{
		Use:   "entity-permissions",
		Short: "List the direct and inherited permissions bearing on an entity",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindGetEntityPermissions, handlers.GetEntityPermissionsPayload{EntityID: domain.EntityID(entityID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&entityID, "entity", 0, "subject entity id")
	c.MarkFlagRequired("entity")
	return c
}
