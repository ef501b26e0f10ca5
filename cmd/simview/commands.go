package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/l1jgo/simsync/internal/config"
	"github.com/l1jgo/simsync/internal/persist"
)

const defaultConfigPath = "config/simsync.toml"

// loadConfig resolves the config path from --config, then SIMSYNC_CONFIG,
// then the default path. Only the default path may be missing.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = os.Getenv("SIMSYNC_CONFIG")
	}
	if path == "" {
		return config.LoadOrDefault(defaultConfigPath)
	}
	return config.Load(path)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the sandbox, in a window when the viewer is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cmd.Flags().Changed("viewer") {
				cfg.Viewer.Enabled, _ = cmd.Flags().GetBool("viewer")
			}
			if cmd.Flags().Changed("scene") {
				cfg.Scenes.Initial, _ = cmd.Flags().GetInt("scene")
			}
			return run(cfg)
		},
	}
	cmd.Flags().Bool("viewer", true, "Open the native viewer window")
	cmd.Flags().Int("scene", 0, "Initial scene index")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run headless and stream the scene graph over the websocket bridge",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			cfg.Viewer.Enabled = false
			cfg.Bridge.Enabled = true
			if bind, _ := cmd.Flags().GetString("bind"); bind != "" {
				cfg.Bridge.BindAddress = bind
			}
			return run(cfg)
		},
	}
	cmd.Flags().String("bind", "", "Bridge bind address (overrides config)")
	return cmd
}

func newScenesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List the available scenes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			scenes, closeFn, err := loadScenes(cfg.Scenes, zap.NewNop())
			if err != nil {
				return err
			}
			defer closeFn()

			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				titles := make([]string, len(scenes))
				for i, sc := range scenes {
					titles[i] = sc.Title
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]any{"scenes": titles})
			}
			for i, sc := range scenes {
				fmt.Printf("%2d  %s\n", i+1, sc.Title)
			}
			return nil
		},
	}
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

var errNoProfiling = errors.New("profiling driver not configured")

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Summarize recorded step profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Profiling.Driver == "" {
				return errNoProfiling
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sink, err := persist.OpenSink(ctx, cfg.Profiling.Driver, cfg.Profiling.DSN, cfg.Profiling.MaxConns, zap.NewNop())
			if err != nil {
				return fmt.Errorf("open profile sink: %w", err)
			}
			defer sink.Close()

			stats, err := sink.Summary(ctx)
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("no samples recorded")
				return nil
			}
			fmt.Printf("%-24s %8s %10s %10s\n", "phase", "samples", "avg ms", "max ms")
			for _, st := range stats {
				fmt.Printf("%-24s %8d %10.3f %10.3f\n", st.Phase, st.Count, st.AvgMs, st.MaxMs)
			}
			return nil
		},
	}
}
