package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jadeai/bthid/internal/daemonsvc"
	"github.com/jadeai/bthid/internal/unixapi"
)

func main() {
	ctx := context.Background()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the classic daemon's command tree: a root command
// carrying the shared flags, a PersistentPreRunE that assembles the object
// graph from them, and a run subcommand that blocks on it.
func NewRootCmd() *cobra.Command {
	params := daemonsvc.ClassicParams{
		ConfigPath: defaultConfigPath(),
		DataDir:    defaultDataDir(),
		SocketPath: unixapi.DefaultSocketPath,
	}

	var daemon *daemonsvc.ClassicDaemon

	rootCmd := &cobra.Command{
		Use:   "bthidd",
		Short: "Bluetooth HID daemon",
		Long:  `bthidd emulates a Bluetooth HID keyboard and mouse over a classic BR/EDR L2CAP transport, and exposes a local control socket for driving it.`,
	}
	rootCmd.PersistentFlags().StringVar(&params.ConfigPath, "config", params.ConfigPath, "device config file")
	rootCmd.PersistentFlags().StringVar(&params.DataDir, "data-dir", params.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&params.SocketPath, "socket", params.SocketPath, "control socket path")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		container, err := daemonsvc.BuildClassicContainer(params)
		if err != nil {
			return err
		}
		return container.Invoke(func(d *daemonsvc.ClassicDaemon) {
			daemon = d
		})
	}

	rootCmd.AddCommand(newRunCmd(&daemon))
	return rootCmd
}

func newRunCmd(daemon **daemonsvc.ClassicDaemon) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return (*daemon).Run(cmd.Context())
		},
	}
}

func defaultConfigPath() string {
	if v := os.Getenv("JADEAI_HID_CONFIG"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "bthid.yml"
	}
	return filepath.Join(dir, "jadeai-bthid", "config.yml")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "jadeai-bthid", "data")
}
