// Package commands provides the CLI commands for TheraMind.
package commands

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theramind/theramind/internal/analysis"
	"github.com/theramind/theramind/internal/config"
	"github.com/theramind/theramind/internal/counseling"
	"github.com/theramind/theramind/internal/logging"
	"github.com/theramind/theramind/internal/prompt"
	"github.com/theramind/theramind/internal/provider"
	"github.com/theramind/theramind/internal/storage"
	"github.com/theramind/theramind/pkg/types"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel   string
	logToFile  bool
	configHint string
)

var rootCmd = &cobra.Command{
	Use:   "theramind",
	Short: "TheraMind - multi-session AI counseling orchestrator",
	Long: `TheraMind orchestrates longitudinal counseling dialogues: per-turn
emotion, resistance, phase, and strategy analysis feeding a counselor
response, with therapy re-selection at session boundaries.

Run 'theramind chat' for an interactive session, or 'theramind serve'
to expose the HTTP API.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "INFO", "Log level (DEBUG|INFO|WARN|ERROR)")
	rootCmd.PersistentFlags().BoolVar(&logToFile, "log-to-file", false, "Write logs to a file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&configHint, "directory", "", "Directory holding theramind.json[c]")

	rootCmd.SetVersionTemplate(fmt.Sprintf("theramind %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordsCmd)
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(evaluateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// app bundles the wired counseling stack shared by all commands.
type app struct {
	cfg          *types.Config
	store        *storage.Store
	pipeline     *analysis.Pipeline
	orchestrator *counseling.Orchestrator
}

// bootstrap loads .env and configuration, then wires providers, prompts,
// pipeline, storage, and the orchestrator.
func bootstrap() (*app, error) {
	_ = godotenv.Load()

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(logLevel)
	logCfg.LogToFile = logToFile
	logging.Init(logCfg)

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}

	dir := configHint
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dir = cwd
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	registry, err := provider.InitializeProviders(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize providers: %w", err)
	}

	prompts := prompt.NewRegistry(cfg.PromptsDir)
	pipeline, err := analysis.NewPipeline(cfg, prompts, registry)
	if err != nil {
		return nil, err
	}

	store := storage.New(cfg.RecordsDir)
	return &app{
		cfg:          cfg,
		store:        store,
		pipeline:     pipeline,
		orchestrator: counseling.New(cfg, pipeline, store),
	}, nil
}
