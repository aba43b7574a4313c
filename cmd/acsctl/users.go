package main

import (
	"context"

	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Manage users"}
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeleteCmd())
	cmd.AddCommand(newUserGetCmd())
	cmd.AddCommand(newUserListCmd())
	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindCreateUser, handlers.CreateUserPayload{Name: name})
			return render(out, resp)
		},
	}
	c.Flags().StringVar(&name, "name", "", "user name")
	c.MarkFlagRequired("name")
	return c
}

func newUserUpdateCmd() *cobra.Command {
	var idFlag int64
	var name, email, status string
	c := &cobra.Command{
		Use:   "update",
		Short: "Update a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.UpdateUserPayload{ID: domain.EntityID(idFlag)}
			if cmd.Flags().Changed("name") {
				payload.Name = &name
			}
			if cmd.Flags().Changed("email") {
				payload.Email = &email
			}
			if cmd.Flags().Changed("status") {
				s := domain.UserStatus(status)
				payload.Status = &s
			}
			resp := submit(context.Background(), eng, command.KindUpdateUser, payload)
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "user id")
	c.Flags().StringVar(&name, "name", "", "new name")
	c.Flags().StringVar(&email, "email", "", "new email")
	c.Flags().StringVar(&status, "status", "", "new status (active, deleted)")
	c.MarkFlagRequired("id")
	return c
}

func newUserDeleteCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindDeleteUser, handlers.DeleteUserPayload{ID: domain.EntityID(idFlag)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "user id")
	c.MarkFlagRequired("id")
	return c
}

func newUserGetCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "get",
		Short: "Get a user by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindGetEntity, handlers.GetEntityPayload{Kind: domain.KindUser, ID: domain.EntityID(idFlag)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "user id")
	c.MarkFlagRequired("id")
	return c
}

func newUserListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(cmd.Context(), eng, command.KindListEntities, handlers.ListEntitiesPayload{Kind: domain.KindUser})
			return render(out, resp)
		},
	}
}
