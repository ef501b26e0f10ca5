package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func init() {
	// raylib must stay on the main OS thread.
	runtime.LockOSThread()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "simview",
		Short: "Physics sandbox with synchronized render graph and debug overlays",
		Long: `simview steps a physics world at a fixed rate, mirrors its bodies into a
retained scene graph and draws debug overlays (contacts, normals,
constraints, axes, bounding boxes).

Scenes come from built-in builders, YAML files and Lua scripts. The graph
can be viewed in a native window or streamed over a websocket bridge.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Config file (default $SIMSYNC_CONFIG or config/simsync.toml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newServeCmd(),
		newScenesCmd(),
		newProfileCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("simview version %s\n", version)
		},
	}
}
