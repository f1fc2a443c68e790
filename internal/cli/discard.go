package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slipway/internal/commit"
)

// DiscardOptions holds flags for the discard command.
type DiscardOptions struct {
	*RootOptions
	Project string
	User    string
}

// NewDiscardCommand creates the discard command.
func NewDiscardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiscardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "discard",
		Short: "Discard pending changes",
		Long: `Revert every origin the user has changed in the project to its last
committed state and release the locks. Fails when there is nothing
to discard.

Example:
  slipway discard --db ./slipway.db --project proj-1 --user jane`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscard(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.User, "user", "", "user id (required)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runDiscard(opts *DiscardOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	coord, st, err := openCoordinator(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	err = coord.DiscardPendingChanges(ctx, commit.DiscardArgs{
		ProjectID: opts.Project,
		UserID:    opts.User,
	})
	if err != nil {
		return mapWorkflowError(err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format != "text" {
		return formatter.Success(map[string]bool{"discarded": true})
	}

	fmt.Fprintln(cmd.OutOrStdout(), "pending changes discarded")
	return nil
}
