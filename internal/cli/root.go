package cli

import (
	"context"
	"fmt"

	"atscore/internal/app"
	"atscore/internal/config"
	"atscore/internal/errors"

	"github.com/spf13/cobra"
)

// Define custom private types for context keys.
type configKeyType struct{}
type loggerKeyType struct{}

// Use variables of these types as the keys.
var configKey = configKeyType{}
var loggerKey = loggerKeyType{}

var configFile string

var rootCmd = &cobra.Command{
	Use:   "atscore",
	Short: "Score resumes against job descriptions the way an ATS does",
	Long: `atscore scores a structured resume against a structured job description
across skills, experience, education and format. Weights and score
distributions are calibrated against industry benchmark profiles, and every
score comes with a confidence interval and ranked recommendations.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadDependencies,
}

// Execute runs the CLI. Configuration and the logger are loaded once flags
// are parsed, so --config is honoured.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadDependencies attaches config and logger to the command context unless
// the caller already provided them.
func loadDependencies(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if _, ok := ctx.Value(configKey).(*config.Config); ok {
		return nil
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return errors.NewConfigError(errors.ErrCodeInvalidConfig, "failed to load configuration", err)
	}

	logger, err := errors.New(cfg.App.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if err := config.ApplyVaultSecrets(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Debug("Configuration loaded",
		"version", Version,
		"log_level", cfg.App.LogLevel,
		"benchmark_enabled", cfg.Benchmark.Enabled,
		"embedding_provider", cfg.Embedding.Provider)

	cmd.SetContext(withDependencies(ctx, cfg, logger))
	return nil
}

func withDependencies(ctx context.Context, cfg *config.Config, logger *errors.Logger) context.Context {
	ctx = context.WithValue(ctx, configKey, cfg)
	return context.WithValue(ctx, loggerKey, logger)
}

// getConfigFromContext is a helper function to get config from context
func getConfigFromContext(ctx context.Context) *config.Config {
	if cfg, ok := ctx.Value(configKey).(*config.Config); ok {
		return cfg
	}
	panic("config not found in context") // Should not happen if properly initialized
}

// getLoggerFromContext is a helper function to get logger from context
func getLoggerFromContext(ctx context.Context) *errors.Logger {
	if logger, ok := ctx.Value(loggerKey).(*errors.Logger); ok {
		return logger
	}
	panic("logger not found in context") // Should not happen if properly initialized
}

// newApp builds the scoring engine for a one-shot command. The caller
// closes it.
func newApp(cmd *cobra.Command) (*app.App, error) {
	ctx := cmd.Context()
	return app.New(ctx, getConfigFromContext(ctx), nil, getLoggerFromContext(ctx))
}

// closeApp releases engine resources, logging instead of failing the command
func closeApp(a *app.App, logger *errors.Logger) {
	if err := a.Close(); err != nil {
		logger.LogError(err, "Failed to release scoring engine resources")
	}
}

// outputFlags registers --output and --format on cmd
func outputFlags(cmd *cobra.Command, cc *commonFlags) {
	cmd.Flags().StringVarP(&cc.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cc.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text", "markdown"}, cobra.ShellCompDirectiveNoFileComp
	})
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./config.yaml, $HOME/.atscore/config.yaml, /etc/atscore/config.yaml)")

	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(canonicalizeCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}
