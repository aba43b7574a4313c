package main

import (
	"context"

	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newGroupCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "group", Short: "Manage groups"}
	cmd.AddCommand(newGroupCreateCmd())
	cmd.AddCommand(newGroupUpdateCmd())
	cmd.AddCommand(newGroupDeleteCmd())
	cmd.AddCommand(newGroupGetCmd())
	cmd.AddCommand(newGroupListCmd())
	cmd.AddCommand(newGroupAddUserCmd())
	cmd.AddCommand(newGroupRemoveUserCmd())
	cmd.AddCommand(newGroupAddRoleCmd())
	cmd.AddCommand(newGroupRemoveRoleCmd())
	cmd.AddCommand(newGroupAddGroupCmd())
	cmd.AddCommand(newGroupRemoveGroupCmd())
	return cmd
}

func newGroupCreateCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindCreateGroup, handlers.CreateGroupPayload{Name: name})
			return render(out, resp)
		},
	}
	c.Flags().StringVar(&name, "name", "", "group name")
	c.MarkFlagRequired("name")
	return c
}

func newGroupUpdateCmd() *cobra.Command {
	var idFlag int64
	var name string
	c := &cobra.Command{
		Use:   "update",
		Short: "Update a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.UpdateGroupPayload{ID: domain.EntityID(idFlag)}
			if cmd.Flags().Changed("name") {
				payload.Name = &name
			}
			resp := submit(context.Background(), eng, command.KindUpdateGroup, payload)
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "group id")
	c.Flags().StringVar(&name, "name", "", "new name")
	c.MarkFlagRequired("id")
	return c
}

func newGroupDeleteCmd() *cobra.Command {
	var idFlag int64
	var force bool
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindDeleteGroup, handlers.DeleteGroupPayload{ID: domain.EntityID(idFlag), Force: force})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "group id")
	c.Flags().BoolVar(&force, "force", false, "delete even if the group has members or children")
	c.MarkFlagRequired("id")
	return c
}

func newGroupGetCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "get",
		Short: "Get a group by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindGetEntity, handlers.GetEntityPayload{Kind: domain.KindGroup, ID: domain.EntityID(idFlag)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "group id")
	c.MarkFlagRequired("id")
	return c
}

func newGroupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindListEntities, handlers.ListEntitiesPayload{Kind: domain.KindGroup})
			return render(out, resp)
		},
	}
}

func newGroupAddUserCmd() *cobra.Command {
	var groupID, userID int64
	c := &cobra.Command{
		Use:   "add-user",
		Short: "Add a user to a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindAddUserToGroup, handlers.AddUserToGroupPayload{GroupID: domain.EntityID(groupID), UserID: domain.EntityID(userID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&groupID, "group", 0, "group id")
	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.MarkFlagRequired("group")
	c.MarkFlagRequired("user")
	return c
}

func newGroupRemoveUserCmd() *cobra.Command {
	var groupID, userID int64
	c := &cobra.Command{
		Use:   "remove-user",
		Short: "Remove a user from a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindRemoveUserFromGroup, handlers.RemoveUserFromGroupPayload{GroupID: domain.EntityID(groupID), UserID: domain.EntityID(userID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&groupID, "group", 0, "group id")
	c.Flags().Int64Var(&userID, "user", 0, "user id")
	c.MarkFlagRequired("group")
	c.MarkFlagRequired("user")
	return c
}

func newGroupAddRoleCmd() *cobra.Command {
	var groupID, roleID int64
	c := &cobra.Command{
		Use:   "add-role",
		Short: "Add a role to a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindAddRoleToGroup, handlers.AddRoleToGroupPayload{GroupID: domain.EntityID(groupID), RoleID: domain.EntityID(roleID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&groupID, "group", 0, "group id")
	c.Flags().Int64Var(&roleID, "role", 0, "role id")
	c.MarkFlagRequired("group")
	c.MarkFlagRequired("role")
	return c
}

func newGroupRemoveRoleCmd() *cobra.Command {
	var groupID, roleID int64
	c := &cobra.Command{
		Use:   "remove-role",
		Short: "Remove a role from a group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindRemoveRoleFromGroup, handlers.RemoveRoleFromGroupPayload{GroupID: domain.EntityID(groupID), RoleID: domain.EntityID(roleID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&groupID, "group", 0, "group id")
	c.Flags().Int64Var(&roleID, "role", 0, "role id")
	c.MarkFlagRequired("group")
	c.MarkFlagRequired("role")
	return c
}

func newGroupAddGroupCmd() *cobra.Command {
	var parentID, childID int64
	c := &cobra.Command{
		Use:   "add-group",
		Short: "Make a group a child of another group",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindAddGroupToGroup, handlers.AddGroupToGroupPayload{ParentID: domain.EntityID(parentID), ChildID: domain.EntityID(childID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&parentID, "parent", 0, "parent group id")
	c.Flags().Int64Var(&childID, "child", 0, "child group id")
	c.MarkFlagRequired("parent")
	c.MarkFlagRequired("child")
	return c
}

func newGroupRemoveGroupCmd() *cobra.Command {
	var parentID, childID int64
	c := &cobra.Command{
		Use:   "remove-group",
		Short: "Remove a child group from its parent",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindRemoveGroupFromGroup, handlers.RemoveGroupFromGroupPayload{ParentID: domain.EntityID(parentID), ChildID: domain.EntityID(childID)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&parentID, "parent", 0, "parent group id")
	c.Flags().Int64Var(&childID, "child", 0, "child group id")
	c.MarkFlagRequired("parent")
	c.MarkFlagRequired("child")
	return c
}
