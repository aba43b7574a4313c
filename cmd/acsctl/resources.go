package main

import (
	"context"

	"github.com/spf13/cobra"

	"acs/internal/command"
	"acs/internal/domain"
	"acs/internal/handlers"
)

func newResourceCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "resource", Short: "Manage resources"}
	cmd.AddCommand(newResourceCreateCmd())
	cmd.AddCommand(newResourceUpdateCmd())
	cmd.AddCommand(newResourceDeleteCmd())
	cmd.AddCommand(newResourceGetCmd())
	cmd.AddCommand(newResourceListCmd())
	return cmd
}

func newResourceCreateCmd() *cobra.Command {
	var uri, resourceType string
	var parentID int64
	c := &cobra.Command{
		Use:   "create",
		Short: "Create a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.CreateResourcePayload{URI: uri, ResourceType: resourceType}
			if cmd.Flags().Changed("parent") {
				p := domain.ResourceID(parentID)
				payload.ParentID = &p
			}
			resp := submit(context.Background(), eng, command.KindCreateResource, payload)
			return render(out, resp)
		},
	}
	c.Flags().StringVar(&uri, "uri", "", "resource URI pattern")
	c.Flags().StringVar(&resourceType, "type", "", "resource type")
	c.Flags().Int64Var(&parentID, "parent", 0, "parent resource id")
	c.MarkFlagRequired("uri")
	c.MarkFlagRequired("type")
	return c
}

func newResourceUpdateCmd() *cobra.Command {
	var idFlag int64
	var resourceType string
	c := &cobra.Command{
		Use:   "update",
		Short: "Update a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := handlers.UpdateResourcePayload{ID: domain.ResourceID(idFlag)}
			if cmd.Flags().Changed("type") {
				payload.ResourceType = &resourceType
			}
			resp := submit(context.Background(), eng, command.KindUpdateResource, payload)
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "resource id")
	c.Flags().StringVar(&resourceType, "type", "", "new resource type")
	c.MarkFlagRequired("id")
	return c
}

func newResourceDeleteCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "delete",
		Short: "Delete a resource",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp := submit(context.Background(), eng, command.KindDeleteResource, handlers.DeleteResourcePayload{ID: domain.ResourceID(idFlag)})
			return render(out, resp)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "resource id")
	c.MarkFlagRequired("id")
	return c
}

// newResourceGetCmd and newResourceListCmd read the resource catalog
// directly off the embedded graph rather than through submit/Dispatch: the
// resource catalog sits outside the shared EntityID space (I1) that
// KindGetEntity/KindListEntities cover, so there is no envelope-addressable
// query kind for it, just as there would be none for a remote frontend.
func newResourceGetCmd() *cobra.Command {
	var idFlag int64
	c := &cobra.Command{
		Use:   "get",
		Short: "Get a resource by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := eng.frontend.Service.Graph.GetResource(domain.ResourceID(idFlag))
			if err != nil {
				return err
			}
			return out.write(res)
		},
	}
	c.Flags().Int64Var(&idFlag, "id", 0, "resource id")
	c.MarkFlagRequired("id")
	return c
}

func newResourceListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return out.write(eng.frontend.Service.Graph.ListResources())
		},
	}
}
