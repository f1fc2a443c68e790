package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/slipway/internal/commit"
)

// CommitOptions holds flags for the commit command.
type CommitOptions struct {
	*RootOptions
	Project     string
	User        string
	Message     string
	SkipPublish bool
}

// NewCommitCommand creates the commit command.
func NewCommitCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CommitOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit pending changes and dispatch builds",
		Long: `Freeze the user's pending changes into an immutable commit. Every
changed origin gets a version bound to the commit and its lock is
released; one build is dispatched per service resource.

Example:
  slipway commit --db ./slipway.db --project proj-1 --user jane -m "add order entity"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommit(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.User, "user", "", "user id (required)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "commit message (required)")
	cmd.Flags().BoolVar(&opts.SkipPublish, "skip-publish", false, "dispatch builds without publishing")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("message")

	return cmd
}

// commitReport is the structured payload for json/yaml output.
type commitReport struct {
	CommitID string `json:"commit_id" yaml:"commit_id"`
	Message  string `json:"message" yaml:"message"`
	Versions int    `json:"versions" yaml:"versions"`
	Builds   int    `json:"builds" yaml:"builds"`
}

func runCommit(opts *CommitOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	coord, st, err := openCoordinator(opts.RootOptions)
	if err != nil {
		return err
	}
	defer st.Close()

	cm, err := coord.Commit(ctx, commit.CommitArgs{
		ProjectID: opts.Project,
		UserID:    opts.User,
		Message:   opts.Message,
	}, opts.SkipPublish)
	if err != nil {
		return mapWorkflowError(err)
	}

	versions, err := st.ListVersionsForCommit(ctx, cm.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list versions", err)
	}
	builds, err := st.ListBuildsForCommit(ctx, cm.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list builds", err)
	}

	report := commitReport{
		CommitID: cm.ID,
		Message:  cm.Message,
		Versions: len(versions),
		Builds:   len(builds),
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format != "text" {
		return formatter.Success(report)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "committed %s: %d version(s), %d build(s) dispatched\n",
		report.CommitID, report.Versions, report.Builds)
	return nil
}
