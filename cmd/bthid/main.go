package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jadeai/bthid/internal/unixapi"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the classic variant's CLI client: one subcommand per
// line-protocol command, each dialing the daemon's control socket fresh.
func NewRootCmd() *cobra.Command {
	var socketPath string
	root := &cobra.Command{
		Use:   "bthid",
		Short: "Control the Bluetooth HID daemon",
	}
	root.PersistentFlags().StringVar(&socketPath, "socket", unixapi.DefaultSocketPath, "control socket path")

	root.AddCommand(newTypeCmd(&socketPath))
	root.AddCommand(newMoveCmd(&socketPath))
	root.AddCommand(newClickCmd(&socketPath))
	root.AddCommand(newStatusCmd(&socketPath))
	root.AddCommand(newShutdownCmd(&socketPath))
	return root
}

func sendCommand(socketPath, line string) (string, error) {
	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		return "", fmt.Errorf("connect to %s: %w", socketPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(line + "\n")); err != nil {
		return "", fmt.Errorf("write command: %w", err)
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return strings.TrimRight(resp, "\n"), nil
}

func runCommand(socketPath, line string) error {
	resp, err := sendCommand(socketPath, line)
	if err != nil {
		return err
	}
	fmt.Println(resp)
	if strings.HasPrefix(resp, "ERR") {
		return fmt.Errorf("daemon returned an error")
	}
	return nil
}

func newTypeCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "type <text>",
		Short: "Type text through the HID keyboard",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(*socketPath, "TYPE "+strings.Join(args, " "))
		},
	}
}

func newMoveCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "move <dx> <dy> [wheel]",
		Short: "Move the HID mouse by a relative offset",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(*socketPath, "MOVE "+strings.Join(args, " "))
		},
	}
}

func newClickCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "click <left|right|middle|button1|button2|button3>",
		Short: "Click a HID mouse button",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(*socketPath, "CLICK "+args[0])
		},
	}
}

func newStatusCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the daemon's connection status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(*socketPath, "STATUS")
		},
	}
}

func newShutdownCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown",
		Short: "Shut down the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(*socketPath, "SHUTDOWN")
		},
	}
}
