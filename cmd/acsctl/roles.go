package main

import (
	"context"

	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newRoleCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "role", Short: "Manage roles"}
	cmd.AddCommand(newRoleCreateCmd())
	cmd.AddCommand(newRoleUpdateCmd())
	cmd.AddCommand(newRoleDeleteCmd())
	cmd.AddCommand(newRoleGetCmd())
	cmd.AddCommand(newRoleListCmd())
	cmd.AddCommand(newRoleAssignUserCmd())
	cmd.AddCommand(newRoleUnassignUserCmd())
	return cmd
}

func newRoleCreateCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindCreateRole, handlers.CreateRolePayload{Name: name})
			return render(out, resp)
		},
	}
	c.Flags().StringVar(&name, "name", "", "role name")
	c.MarkFlagRequired("name")
	return c
}

func newRoleUpdateCmd() *cobra.Command {
	var idFlag int64
	var name string
	c := &cobra.Command{
		Use:   "update",
		Short: "Update a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.UpdateRolePayload{ID: domain.EntityID(idFlag)}
			if cmd.Flags().Changed("name") {
				payload.Name = &name
			}
			resp := submit(context.Background(), eng, command.KindUpdateRole, payload)
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "role id")
	c.Flags().StringVar(&name, "name", "", "new name")
	c.MarkFlagRequired("id")
	return c
}

func newRoleDeleteCmd() *cobra.Command {
	var idFlag int64
	var force bool
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindDeleteRole, handlers.DeleteRolePayload{ID: domain.EntityID(idFlag), Force: force})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "role id")
	c.Flags().BoolVar(&force, "force", false, "delete even if the role has members or group attachments")
	c.MarkFlagRequired("id")
	return c
}

func newRoleGetCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "get",
		Short: "Get a role by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindGetEntity, handlers.GetEntityPayload{Kind: domain.KindRole, ID: domain.EntityID(idFlag)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "role id")
	c.MarkFlagRequired("id")
	return c
}

func newRoleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List roles",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindListEntities, handlers.ListEntitiesPayload{Kind: domain.KindRole})
			return render(out, resp)
		},
	}
}

func newRoleAssignUserCmd() *cobra.Command {
	var roleID, userID int64
	c := &cobra.Command{
		Use:   "assign-user",
		Short: "Assign a user to a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindAssignUserToRole, handlers.AssignUserToRolePayload{RoleID: domain.EntityID(roleID), UserID: domain.EntityID(userID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&roleID, "role", 0, "role id")
	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.MarkFlagRequired("role")
	c.MarkFlagRequired("user")
	return c
}

func newRoleUnassignUserCmd() *cobra.Command {
	var roleID, userID int64
	c := &cobra.Command{
		Use:   "unassign-user",
		Short: "Unassign a user from a role",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindUnassignUserFromRole, handlers.UnassignUserFromRolePayload{RoleID: domain.EntityID(roleID), UserID: domain.EntityID(userID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&roleID, "role", 0, "role id")
	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.MarkFlagRequired("role")
	c.MarkFlagRequired("user")
	return c
}
