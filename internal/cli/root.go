// Package cli implements the slipway command line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/slipway/internal/billing"
	"github.com/roach88/slipway/internal/build"
	"github.com/roach88/slipway/internal/commit"
	"github.com/roach88/slipway/internal/store"
	"github.com/roach88/slipway/internal/tracker"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "text" | "json" | "yaml"
	ConfigFile string
	Database   string

	config *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the slipway CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "slipway",
		Short: "slipway - commit and discard pending design changes",
		Long: `slipway tracks per-user pending edits to entities and blocks,
freezes them into immutable commits that dispatch build jobs,
and discards uncommitted edits back to the last committed state.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if err := opts.loadConfig(); err != nil {
				return err
			}

			logLevel := slog.LevelWarn
			if opts.Verbose {
				logLevel = slog.LevelDebug
			}
			handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})
			slog.SetDefault(slog.New(handler))
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "path to config file (default ./slipway.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")

	// Add subcommands
	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))
	cmd.AddCommand(NewCommitCommand(opts))
	cmd.AddCommand(NewDiscardCommand(opts))
	cmd.AddCommand(NewLogCommand(opts))

	return cmd
}

// loadConfig reads slipway.yaml (or --config) plus SLIPWAY_* environment
// variables into opts.config. A missing config file is not an error; the
// defaults apply.
func (o *RootOptions) loadConfig() error {
	v := viper.New()
	v.SetDefault("database", "slipway.db")
	v.SetDefault("billing.enabled", false)
	v.SetDefault("billing.plans", "")
	v.SetEnvPrefix("SLIPWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if o.ConfigFile != "" {
		v.SetConfigFile(o.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", o.ConfigFile, err)
		}
	} else {
		v.SetConfigName("slipway")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if o.Database == "" {
		o.Database = v.GetString("database")
	}
	o.config = v
	return nil
}

// openCoordinator opens the store and wires the commit coordinator from
// config. The returned closer releases the store.
func openCoordinator(opts *RootOptions) (*commit.Coordinator, *store.Store, error) {
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	billingEnabled := opts.config.GetBool("billing.enabled")
	var gate billing.Gate = billing.Disabled{}
	if billingEnabled {
		catalog, err := loadCatalog(opts.config.GetString("billing.plans"))
		if err != nil {
			st.Close()
			return nil, nil, WrapExitError(ExitCommandError, "failed to load plan catalog", err)
		}
		gate = billing.NewPlanGate(st, catalog)
	}

	coord := commit.New(commit.Config{
		Store:          st,
		Tracker:        tracker.New(st),
		Gate:           gate,
		Dispatcher:     build.NewStoreDispatcher(st),
		Logger:         slog.Default(),
		BillingEnabled: billingEnabled,
	})
	return coord, st, nil
}

func loadCatalog(path string) (billing.Catalog, error) {
	if path == "" {
		return billing.DefaultCatalog()
	}
	return billing.LoadCatalog(path)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
