package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cocotone/voicevox-juce-demo/internal/config"
	"github.com/cocotone/voicevox-juce-demo/internal/engine"
)

var (
	cfgFile   string
	activeCfg config.Config
)

func NewRootCmd() *cobra.Command {
	defaults := config.DefaultConfig()

	cmd := &cobra.Command{
		Use:   "voicevoxdemo",
		Short: "Voice synthesis demo command line",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load(config.LoadOptions{
				Cmd:        cmd,
				ConfigFile: cfgFile,
				Defaults:   defaults,
			})
			if err != nil {
				return err
			}
			activeCfg = loaded
			setupLogger(loaded.LogLevel)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Optional config file (yaml|toml|json)")
	config.RegisterFlags(cmd.PersistentFlags(), defaults)

	cmd.AddCommand(newSynthCmd())
	cmd.AddCommand(newVoicesCmd())

	return cmd
}

// setupLogger configures the process-wide slog default logger.
func setupLogger(levelStr string) {
	lvl, err := config.ParseLogLevel(levelStr)
	if err != nil {
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(h))
}

func requireConfig() (config.Config, error) {
	if activeCfg.Engine.Workers == 0 {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return activeCfg, nil
}

// newEngine builds an engine over the in-process demo backend. Wiring a
// real core is a matter of swapping the Backend here.
func newEngine(cfg config.Config) *engine.Engine {
	return engine.New(engine.NewMockBackend(),
		engine.WithWorkers(cfg.Engine.Workers),
		engine.WithRequestTimeout(time.Duration(cfg.Engine.RequestTimeoutSec)*time.Second),
		engine.WithShutdownGrace(time.Duration(cfg.Engine.ShutdownGraceMs)*time.Millisecond),
		engine.WithLogger(slog.Default()))
}
