// =============================================================================
// Trip Import - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (tripimport)
//   ├── previewCmd (tripimport preview)
//   ├── importCmd  (tripimport import)
//   ├── serveCmd   (tripimport serve)
//   └── versionCmd (tripimport version)
//
// The root command loads the configuration and builds the logger before any
// subcommand runs.
//
// =============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ginjaninja78/fleet-trip-import/internal/config"
	"github.com/ginjaninja78/fleet-trip-import/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose switches the logger to debug level.
var verbose bool

// appConfig and logger are set up by the root command before a subcommand
// runs.
var (
	appConfig *config.Config
	logger    *zap.Logger
)

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "tripimport",
	Short: "Fleet trip bulk import - load trip spreadsheets into the fleet backend",
	Long: `tripimport reads trip spreadsheets (CSV, XLSX or XLS), maps their columns
onto the fleet trip model, validates every row and submits the valid trips,
their expenses and vehicles in a single bulk request.

Example Usage:
  tripimport preview trips.xlsx                  # Inspect how a file will be imported
  tripimport import trips.xlsx --dry-run         # Write the payload without sending it
  tripimport import ./exports --archive          # Import every file in a directory
  tripimport serve                               # Serve the import flow over HTTP`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initApp(cmd)
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},

	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main(). An interrupt
// cancels the command context, which stops the server and aborts in-flight
// requests.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"config.yaml",
		"Path to the configuration file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// initApp loads the configuration and creates the logger. An explicitly
// given --config file must exist; the default one is optional.
func initApp(cmd *cobra.Command) error {
	cfg, err := config.Load(cfgFile, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logger.Level = "debug"
	}

	l, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
		MaxSizeMB:  cfg.Logger.MaxSizeMB,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAgeDays: cfg.Logger.MaxAgeDays,
		Compress:   cfg.Logger.Compress,
	})
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}

	appConfig = cfg
	logger = l
	return nil
}
