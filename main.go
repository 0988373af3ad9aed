package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/ekaya-campus/pkg/config"
	"github.com/ekaya-inc/ekaya-campus/pkg/render"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// Global flags
	outputFlag string
	noColor    bool
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ekaya-campus",
	Short: "Explore universities and their programs, and keep a repository of favorites",
	Long: `ekaya-campus searches a generative content service for universities,
drills into their programs and keeps a repository of saved universities in
PostgreSQL.

Run without arguments to start the HTTP server.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored text output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	rootCmd.Version = Version

	rootCmd.AddCommand(serveCmd, migrateCmd, searchCmd, detailsCmd, programCmd, savedCmd, checkCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger for every command.
func setup(cmd *cobra.Command, args []string) error {
	if _, err := render.ParseFormat(outputFlag); err != nil {
		return err
	}

	var err error
	cfg, err = config.Load(Version)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err = newLogger(cfg, verbose)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// newLogger returns a development logger in the local environment and a
// JSON production logger elsewhere.
func newLogger(cfg *config.Config, verbose bool) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsLocal() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	return zcfg.Build(zap.Fields(zap.String("version", cfg.Version)))
}
