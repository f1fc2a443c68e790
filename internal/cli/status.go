package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slipway/internal/commit"
	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/tracker"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Project string
	User    string
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show pending changes grouped by resource",
		Long: `Show the user's uncommitted changes in a project, grouped by the
resource that owns each changed origin.

Example:
  slipway status --db ./slipway.db --project proj-1 --user jane`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.User, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

// statusReport is the structured payload for json/yaml output.
type statusReport struct {
	ProjectID string           `json:"project_id" yaml:"project_id"`
	UserID    string           `json:"user_id" yaml:"user_id"`
	Resources []resourceReport `json:"resources" yaml:"resources"`
	Total     int              `json:"total" yaml:"total"`
}

type resourceReport struct {
	ResourceID   string                `json:"resource_id" yaml:"resource_id"`
	ResourceName string                `json:"resource_name" yaml:"resource_name"`
	Changes      []model.ChangedOrigin `json:"changes" yaml:"changes"`
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	coord, st, err := openCoordinator(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	changes, resources, err := coord.PendingChanges(ctx, opts.Project, opts.User)
	if err != nil {
		return mapWorkflowError(err)
	}

	names := make(map[string]string, len(resources))
	for _, r := range resources {
		names[r.ID] = r.Name
	}

	report := statusReport{
		ProjectID: opts.Project,
		UserID:    opts.User,
		Total:     len(changes),
	}
	for _, g := range tracker.GroupByResource(changes) {
		report.Resources = append(report.Resources, resourceReport{
			ResourceID:   g.ResourceID,
			ResourceName: names[g.ResourceID],
			Changes:      g.Changes,
		})
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format != "text" {
		return formatter.Success(report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Pending changes for %s in %s:\n", report.UserID, report.ProjectID)
	if report.Total == 0 {
		fmt.Fprintln(out, "  (none)")
		return nil
	}
	for _, res := range report.Resources {
		fmt.Fprintf(out, "\n  %s (%s)\n", res.ResourceName, res.ResourceID)
		for _, ch := range res.Changes {
			fmt.Fprintf(out, "    %-6s %-6s %s\n", ch.OriginType, ch.ChangeType, ch.OriginID)
		}
	}
	fmt.Fprintf(out, "\n%d pending change(s)\n", report.Total)
	return nil
}

// mapWorkflowError converts coordinator errors into ExitErrors with stable
// codes and the right exit status.
func mapWorkflowError(err error) error {
	switch {
	case errors.Is(err, commit.ErrAccessOrNotFound):
		return WrapExitError(ExitFailure, "invalid user or project", err)
	case errors.Is(err, commit.ErrNoPendingChanges):
		return WrapExitError(ExitFailure, "no pending changes", err)
	case commit.IsLimitExceeded(err):
		return WrapExitError(ExitFailure, "plan limit exceeded", err)
	case commit.IsPartialCommit(err):
		return WrapExitError(ExitFailure, "commit persisted but not fully applied", err)
	default:
		return WrapExitError(ExitCommandError, "operation failed", err)
	}
}
