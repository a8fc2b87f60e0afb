// cmd/perfume-studio/root.go
package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"perfume-studio/internal/app"
	"perfume-studio/internal/common/config"
	"perfume-studio/internal/common/logger"
)

type globalFlags struct {
	configFile string
	logLevel   string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "perfume-studio",
		Short:         "Generate Hebrew marketing copy for niche perfumes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "config file (default is ./configs/config.yaml)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCommand(flags),
		newDescribeCommand(flags),
		newHistoryCommand(flags),
		newRegistryCommand(),
	)
	return root
}

func loadConfig(flags *globalFlags) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if flags.configFile != "" {
		cfg, err = config.LoadFromFile(flags.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	return cfg, nil
}

// bootstrap loads config, builds the logger and the shared object graph.
func bootstrap(ctx context.Context, flags *globalFlags) (*app.App, *zap.Logger, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, nil, err
	}

	zapLog, err := logger.Build(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	log := logger.NewZapAdapter(zapLog).With(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		_ = zapLog.Sync()
		return nil, nil, err
	}
	return a, zapLog, nil
}
