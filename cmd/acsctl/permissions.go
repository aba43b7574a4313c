package main

import (
	"context"

	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newPermissionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "permission", Short: "Manage permission grants and denies"}
	cmd.AddCommand(newPermissionGrantCmd())
	cmd.AddCommand(newPermissionDenyCmd())
	cmd.AddCommand(newPermissionRemoveCmd())
	cmd.AddCommand(newPermissionListCmd())
	return cmd
}

func permissionFlags(c *cobra.Command, entityID, resourceID *int64, verb, scheme *string) {
	c.Flags().Int64Var(entityID, "entity", 0, "subject entity id (user, group, or role)")
	c.Flags().Int64Var(resourceID, "resource", 0, "resource id")
	c.Flags().StringVar(verb, "verb", "", "verb: GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS")
	c.Flags().StringVar(scheme, "scheme", "", "scheme the permission is scoped to")
	c.MarkFlagRequired("entity")
	c.MarkFlagRequired("resource")
	c.MarkFlagRequired("verb")
}

func newPermissionGrantCmd() *cobra.Command {
	var entityID, resourceID int64
	var verb, scheme string
	c := &cobra.Command{
		Use:   "grant",
		Short: "Grant a permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.GrantPermissionPayload{
				EntityID: domain.EntityID(entityID), ResourceID: domain.ResourceID(resourceID),
				Verb: domain.Verb(verb), Scheme: scheme,
			}
			resp := submit(context.Background(), eng, command.KindGrantPermission, payload)
			return render(out, resp)
		},
	}
	permissionFlags(c, &entityID, &resourceID, &verb, &scheme)
	return c
}

func newPermissionDenyCmd() *cobra.Command {
	var entityID, resourceID int64
	var verb, scheme string
	c := &cobra.Command{
		Use:   "deny",
		Short: "Deny a permission",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.DenyPermissionPayload{
				EntityID: domain.EntityID(entityID), ResourceID: domain.ResourceID(resourceID),
				Verb: domain.Verb(verb), Scheme: scheme,
			}
			resp := submit(context.Background(), eng, command.KindDenyPermission, payload)
			return render(out, resp)
		},
	}
	permissionFlags(c, &entityID, &resourceID, &verb, &scheme)
	return c
}

func newPermissionRemoveCmd() *cobra.Command {
	var entityID, resourceID int64
	var verb, scheme string
	c := &cobra.Command{
		Use:   "remove",
		Short: "Remove a permission tuple, grant or deny",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.RemovePermissionPayload{
				EntityID: domain.EntityID(entityID), ResourceID: domain.ResourceID(resourceID),
				Verb: domain.Verb(verb), Scheme: scheme,
			}
			resp := submit(context.Background(), eng, command.KindRemovePermission, payload)
			return render(out, resp)
		},
	}
	permissionFlags(c, &entityID, &resourceID, &verb, &scheme)
	return c
}

func newPermissionListCmd() *cobra.Command {
	var entityID int64
	c := &cobra.Command{
		Use:   "list",
		Short: "List an entity's direct and inherited permissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindGetEntityPermissions, handlers.GetEntityPermissionsPayload{EntityID: domain.EntityID(entityID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&entityID, "entity", 0, "subject entity id")
	c.MarkFlagRequired("entity")
	return c
}
