package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/carolinavmo/PMR-atlas/internal/app"
	"github.com/carolinavmo/PMR-atlas/internal/config"
	"github.com/carolinavmo/PMR-atlas/pkg/logger"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "pmrctl",
		Short:        "pmrctl runs maintenance tasks against a PMR Atlas deployment",
		Long:         "pmrctl reads the same environment (and .env file) as the API server and connects to its MongoDB and Redis.",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().String("log-level", "", "override LOG_LEVEL")
	return cmd
}

func Execute(command *cobra.Command) {
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}

// connect loads the server configuration and builds the application
// dependencies; the caller must Close the returned App.
func connect(cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	logger.Configure(level, cfg.Log.Format)
	return app.Build(cmd.Context(), cfg)
}

func closeApp(a *app.App) {
	if err := a.Close(context.Background()); err != nil {
		logger.Warnf("close backends: %v", err)
	}
}
