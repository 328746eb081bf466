// cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/autoentry/internal/config"
	"github.com/xkilldash9x/autoentry/internal/observability"
)

type contextKey string

const configKey contextKey = "appConfig"

// newRootCmd builds the command tree. Each call returns an independent tree so
// tests never share flag state.
func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:           "autoentry",
		Short:         "Autoentry fills competition entry forms and submits them after review.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			config.SetDefaults(v)

			if err := initializeConfig(v, cfgFile); err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			cfg, err := config.NewConfigFromViper(v)
			if err != nil {
				observability.InitializeLogger(config.NewDefaultConfig().Logger)
				return fmt.Errorf("failed to load or validate config: %w", err)
			}

			observability.InitializeLogger(cfg.Logger)
			observability.GetLogger().Debug("Starting autoentry", zap.String("version", Version))

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cmd.SetContext(context.WithValue(ctx, configKey, cfg))
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is ./config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(newFillCmd(defaultFillDeps()))
	rootCmd.AddCommand(newPreviewCmd())
	rootCmd.AddCommand(newRunCmd(defaultFillDeps()))
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// Execute runs the command tree with a signal-aware context and returns the
// first error. The error has already been printed.
func Execute(ctx context.Context) error {
	rootCmd := newRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	defer observability.Sync()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		}
		observability.GetLogger().Debug("Command execution failed", zap.Error(err))
	}
	return err
}

// initializeConfig reads the application config file and AUTOENTRY_ environment variables.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("AUTOENTRY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// getConfigFromContext returns the application config stored by the root pre-run.
func getConfigFromContext(ctx context.Context) (*config.Config, error) {
	if ctx == nil {
		return nil, errors.New("command context is not set")
	}
	cfg, ok := ctx.Value(configKey).(*config.Config)
	if !ok || cfg == nil {
		return nil, errors.New("application configuration not found in context")
	}
	return cfg, nil
}
