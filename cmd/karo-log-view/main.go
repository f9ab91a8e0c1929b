// Command karo-log-view presents a moving window over a live log file and
// its rotated siblings (spec §4.2-§4.4, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/karo-systems/karo-logger/internal/config"
	"github.com/karo-systems/karo-logger/internal/view"
)

// windowLines is the number of lines the viewer keeps in its moving
// window; the CLI contract (spec §6) names only --log-location and
// --follow, so this stays a fixed constant rather than another flag.
const windowLines = 200

func main() {
	defaults, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logLocation string
	var follow bool

	root := &cobra.Command{
		Use:   "karo-log-view",
		Short: "windowed viewer over a karo-logger live file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logLocation, follow)
		},
	}
	root.Flags().StringVar(&logLocation, "log-location", defaults.LogLocation, "path to the live log file")
	root.Flags().BoolVar(&follow, "follow", false, "re-render as the live file grows or rotates")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logLocation string, follow bool) error {
	if logLocation == "" {
		return fmt.Errorf("karo-log-view: --log-location is required")
	}

	v, err := view.Open(logLocation, windowLines, os.Stdout)
	if err != nil {
		return err
	}
	defer v.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
	}()

	keys, restore, err := view.ReadKeys(ctx, int(os.Stdin.Fd()))
	if err != nil {
		return fmt.Errorf("karo-log-view: %w", err)
	}
	defer restore()

	return v.Run(ctx, keys, follow)
}
