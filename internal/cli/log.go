package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/slipway/internal/model"
	"github.com/roach88/slipway/internal/store"
)

// LogOptions holds flags for the log command.
type LogOptions struct {
	*RootOptions
	Project string
	Commit  string
}

// NewLogCommand creates the log command.
func NewLogCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LogOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "log",
		Short: "Show commit history",
		Long: `List a project's commits, newest first, or show one commit with its
versions and dispatched builds.

Example:
  slipway log --db ./slipway.db --project proj-1
  slipway log --db ./slipway.db --project proj-1 --commit 0198c5e2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLog(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Project, "project", "", "project id (required)")
	cmd.Flags().StringVar(&opts.Commit, "commit", "", "show one commit in detail")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// commitDetail is the structured payload for a single commit.
type commitDetail struct {
	Commit   model.Commit    `json:"commit" yaml:"commit"`
	Versions []model.Version `json:"versions" yaml:"versions"`
	Builds   []model.Build   `json:"builds" yaml:"builds"`
}

func runLog(opts *LogOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Commit != "" {
		return runLogCommit(opts, cmd, st)
	}

	commits, err := st.ListCommits(ctx, opts.Project)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list commits", err)
	}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format != "text" {
		return formatter.Success(commits)
	}

	out := cmd.OutOrStdout()
	if len(commits) == 0 {
		fmt.Fprintln(out, "(no commits)")
		return nil
	}
	for _, c := range commits {
		fmt.Fprintf(out, "%s  %s  %s\n", c.ID, c.CreatedAt.UTC().Format(time.RFC3339), c.Message)
	}
	return nil
}

func runLogCommit(opts *LogOptions, cmd *cobra.Command, st *store.Store) error {
	ctx := cmd.Context()

	cm, err := st.FindCommit(ctx, opts.Commit)
	if err != nil {
		return WrapExitError(ExitFailure, "commit not found", err)
	}
	versions, err := st.ListVersionsForCommit(ctx, cm.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list versions", err)
	}
	builds, err := st.ListBuildsForCommit(ctx, cm.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list builds", err)
	}

	detail := commitDetail{Commit: *cm, Versions: versions, Builds: builds}

	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}
	if opts.Format != "text" {
		return formatter.Success(detail)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "commit  %s\n", cm.ID)
	fmt.Fprintf(out, "user    %s\n", cm.UserID)
	fmt.Fprintf(out, "date    %s\n", cm.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "message %s\n", cm.Message)
	if len(versions) > 0 {
		fmt.Fprintln(out, "\nversions:")
		for _, v := range versions {
			fmt.Fprintf(out, "  %-6s %s v%d (%s)\n", v.OriginType, v.Name, v.VersionNumber, v.OriginID)
		}
	}
	if len(builds) > 0 {
		fmt.Fprintln(out, "\nbuilds:")
		for _, b := range builds {
			fmt.Fprintf(out, "  %s %s\n", b.ResourceID, b.Status)
		}
	}
	return nil
}
