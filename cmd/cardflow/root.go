package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/cli"
	"github.com/aretw0/cardflow/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cardflow",
	Short: "Cardflow turns chatbot card flows into conversation scripts",
	Long: `Cardflow edits, validates and simulates chatbot flows built from cards and
connections, and generates the conversation script an assistant follows.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to the configuration file (default \"cardflow.yaml\" when present)")
	rootCmd.PersistentFlags().String("env", ".env", "Path to a dotenv file with CARDFLOW_* overrides")
	rootCmd.PersistentFlags().String("store", "", "Store backend: memory, file, redis, sqlite or loam")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadConfig resolves the configuration and the logger for a command.
func loadConfig(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	envFile, _ := cmd.Flags().GetString("env")
	debug, _ := cmd.Flags().GetBool("debug")

	cfg, err := config.Load(path, envFile)
	if err != nil {
		return config.Config{}, nil, err
	}
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		cfg.Store.Backend = store
		if err := cfg.Validate(); err != nil {
			return config.Config{}, nil, err
		}
	}
	return cfg, cli.CreateLogger(cfg.LogLevel, debug), nil
}

// openEditor builds an editor over the configured store. The returned function
// releases both.
func openEditor(ctx context.Context, cmd *cobra.Command, opts ...cardflow.Option) (*cardflow.Editor, *slog.Logger, func(), error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	debug, _ := cmd.Flags().GetBool("debug")
	if debug {
		opts = append([]cardflow.Option{cardflow.WithLifecycleHooks(cli.DebugHooks(logger))}, opts...)
	}

	editor, backend, err := cli.NewEditor(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, nil, nil, err
	}
	release := func() {
		_ = editor.Close()
		if err := backend.Close(); err != nil {
			logger.Warn("failed to close store", "error", err)
		}
	}
	return editor, logger, release, nil
}
