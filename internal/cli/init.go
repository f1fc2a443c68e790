package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/store"
)

// InitOptions holds flags for the init command.
type InitOptions struct {
	*RootOptions
	Workspace string
	Project   string
	User      string
	Services  []string
	Plan      string
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &InitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a database with a workspace and project",
		Long: `Initialize a slipway database, creating a workspace, a member user,
a project with its project-configuration resource, and optionally
one or more service resources.

Example:
  slipway init --db ./slipway.db --workspace acme --project storefront \
    --user jane --service orders --service billing`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "workspace name (required)")
	cmd.Flags().StringVar(&opts.Project, "project", "", "project name (required)")
	cmd.Flags().StringVar(&opts.User, "user", "", "member user id (required)")
	cmd.Flags().StringArrayVar(&opts.Services, "service", nil, "service resource name (repeatable)")
	cmd.Flags().StringVar(&opts.Plan, "plan", "", "subscription plan for the workspace")
	_ = cmd.MarkFlagRequired("workspace")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runInit(opts *InitOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	newID := func() string { return uuid.Must(uuid.NewV7()).String() }

	ws, err := st.CreateWorkspace(ctx, newID(), opts.Workspace)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create workspace", err)
	}
	if err := st.AddWorkspaceUser(ctx, ws.ID, opts.User); err != nil {
		return WrapExitError(ExitCommandError, "failed to add workspace user", err)
	}
	if opts.Plan != "" {
		if err := st.SetSubscription(ctx, ws.ID, opts.Plan); err != nil {
			return WrapExitError(ExitCommandError, "failed to set subscription", err)
		}
	}

	project, err := st.CreateProject(ctx, newID(), ws.ID, opts.Project)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to create project", err)
	}
	if _, err := st.CreateResource(ctx, newID(), project.ID, "project configuration", model.ResourceTypeProjectConfiguration); err != nil {
		return WrapExitError(ExitCommandError, "failed to create project configuration", err)
	}
	for _, name := range opts.Services {
		if _, err := st.CreateResource(ctx, newID(), project.ID, name, model.ResourceTypeService); err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to create service %q", name), err)
		}
	}

	resources, err := st.ListProjectResources(ctx, project.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list resources", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "workspace %s (%s)\n", ws.Name, ws.ID)
	fmt.Fprintf(out, "project   %s (%s)\n", project.Name, project.ID)
	fmt.Fprintf(out, "user      %s\n", opts.User)
	fmt.Fprintln(out, "resources:")
	for _, r := range resources {
		fmt.Fprintf(out, "  %-22s %s (%s)\n", r.ResourceType, r.Name, r.ID)
	}
	return nil
}
