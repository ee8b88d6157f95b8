package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/reteval/internal/config"
)

// globalOptions are shared by every command that needs configuration.
type globalOptions struct {
	env        string
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "reteval",
		Short:         "Retrieval evaluation for instruction/input embedding pairs",
		Long:          "reteval embeds paired instructions and inputs, ranks every input for each instruction\nby cosine similarity and reports Top-K accuracy and mean reciprocal rank.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&opts.env, "env", config.GetEnv(), "configuration environment (config/<env>.yaml)")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "explicit config file, overrides --env lookup")

	root.AddCommand(
		newRunCmd(opts),
		newServeCmd(opts),
		newModelsCmd(),
		newVersionCmd(),
	)
	return root
}

// bootstrap loads configuration, lets the caller adjust it and builds the app.
func (o *globalOptions) bootstrap(ctx context.Context, adjust func(*config.Config)) (*app, error) {
	cfg, err := loadConfig(o.env, o.configPath)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(&cfg)
		if err := cfg.Validate(); err != nil {
			return nil, err //nolint:wrapcheck // validation errors name the field
		}
	}
	return newApp(ctx, o.env, cfg)
}
