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
	"github.com/jadeai/bthid/internal/httpapi"
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

// NewRootCmd builds the BLE daemon's command tree, the HTTP-API sibling of
// bthidd's UNIX-socket command tree.
func NewRootCmd() *cobra.Command {
	params := daemonsvc.BLEParams{
		ConfigPath: defaultConfigPath(),
		DataDir:    defaultDataDir(),
		BindAddr:   httpapi.DefaultBindAddr,
	}

	var daemon *daemonsvc.BLEDaemon

	rootCmd := &cobra.Command{
		Use:   "bthid-ble",
		Short: "Bluetooth LE HID daemon",
		Long:  `bthid-ble emulates a Bluetooth LE HID keyboard and mouse over a GATT transport, and exposes an HTTP JSON API for driving it.`,
	}
	rootCmd.PersistentFlags().StringVar(&params.ConfigPath, "config", params.ConfigPath, "device config file")
	rootCmd.PersistentFlags().StringVar(&params.DataDir, "data-dir", params.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&params.BindAddr, "http-addr", params.BindAddr, "HTTP API bind address")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		container, err := daemonsvc.BuildBLEContainer(params)
		if err != nil {
			return err
		}
		return container.Invoke(func(d *daemonsvc.BLEDaemon) {
			daemon = d
		})
	}

	rootCmd.AddCommand(newRunCmd(&daemon))
	return rootCmd
}

func newRunCmd(daemon **daemonsvc.BLEDaemon) *cobra.Command {
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
		return "bthid-ble.yml"
	}
	return filepath.Join(dir, "jadeai-bthid", "ble-config.yml")
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, "jadeai-bthid", "ble-data")
}
