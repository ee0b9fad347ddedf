// Command ravencore drives terminal sessions without a window: it can attach
// the current TTY to a shell or run a command and dump the resulting screen.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/javanhut/ravencore/config"
	"github.com/javanhut/ravencore/logging"
	"github.com/javanhut/ravencore/metrics"
)

type globalFlags struct {
	configPath string
	logLevel   string
}

// env is what every subcommand needs once flags are parsed.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (g *globalFlags) setup() (*env, error) {
	path := g.configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if g.logLevel != "" {
		cfg.Logging.Level = g.logLevel
	}

	reg := prometheus.NewRegistry()
	return &env{
		cfg:      cfg,
		logger:   logging.New(cfg.Logging),
		registry: reg,
		metrics:  metrics.New(reg),
	}, nil
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "ravencore",
		Short:         "Headless terminal sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/ravencore/config.toml)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "override the configured log level")

	cmd.AddCommand(runCmd(g), dumpCmd(g), fontsCmd())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "ravencore:", err)
		os.Exit(1)
	}
}
