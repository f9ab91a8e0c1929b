// Command karo-log-ctl talks to a running karo-logger daemon's control
// plane: list registered clients and push level changes (spec §4.9, §6).
package main

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/karo-systems/karo-logger/internal/config"
	"github.com/karo-systems/karo-logger/internal/message"
)

func main() {
	defaults, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var controlSocketPath string

	root := &cobra.Command{
		Use:   "karo-log-ctl",
		Short: "control-plane client for a running karo-logger daemon",
	}
	root.PersistentFlags().StringVar(&controlSocketPath, "control-socket", defaultControlSocket(defaults), "path to the daemon's control socket")

	root.AddCommand(listCmd(&controlSocketPath), setLogLevelCmd(&controlSocketPath))

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultControlSocket(defaults *config.FileDefaults) string {
	if defaults.ControlSocketPath != "" {
		return defaults.ControlSocketPath
	}
	if defaults.LogLocation != "" {
		return filepath.Join(filepath.Dir(defaults.LogLocation), "karo-ctl.sock")
	}
	return ""
}

func listCmd(socketPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list currently registered client services",
		RunE: func(cmd *cobra.Command, args []string) error {
			var names []string
			if err := call(*socketPath, message.EndpointClients, nil, &names); err != nil {
				return err
			}
			sort.Strings(names)
			for _, n := range names {
				fmt.Println(n)
			}
			return nil
		},
	}
}

func setLogLevelCmd(socketPath *string) *cobra.Command {
	var serviceName, level string
	cmd := &cobra.Command{
		Use:   "set-log-level",
		Short: "push a new log level to a registered client",
		RunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := config.ResolveLevel(level)
			if err != nil {
				return err
			}
			params := message.SetLogLevelParams{ServiceName: serviceName, Level: lvl}
			return call(*socketPath, message.EndpointSetLogLevel, params, nil)
		},
	}
	cmd.Flags().StringVar(&serviceName, "service-name", "", "target service name")
	cmd.Flags().StringVar(&level, "level", "", "new log level (trace|debug|info|warn|error)")
	cmd.MarkFlagRequired("service-name")
	cmd.MarkFlagRequired("level")
	return cmd
}

// call performs one request/response round trip over the control socket.
func call(socketPath, endpoint string, params, result any) error {
	if socketPath == "" {
		return fmt.Errorf("karo-log-ctl: no control socket configured (set --control-socket or log_location in the defaults file)")
	}
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return fmt.Errorf("karo-log-ctl: dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	id := uuid.NewString()
	env, err := message.NewCall(id, endpoint, params)
	if err != nil {
		return err
	}
	if err := message.WriteFrame(conn, env); err != nil {
		return fmt.Errorf("karo-log-ctl: write: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	resp, err := message.ReadFrame(conn)
	if err != nil {
		return fmt.Errorf("karo-log-ctl: read: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("karo-log-ctl: %s", resp.Error)
	}
	if result != nil && resp.Result != nil {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("karo-log-ctl: decode result: %w", err)
		}
	}
	return nil
}
