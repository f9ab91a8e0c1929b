// Command karo-logger is the per-host logging daemon (spec §4.6-§4.9, §6).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/karo-systems/karo-logger/internal/config"
	"github.com/karo-systems/karo-logger/internal/control"
	"github.com/karo-systems/karo-logger/internal/daemon"
)

func main() {
	defaults, err := config.Load(config.DefaultPath())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	var logLevel, logLocation string
	var numBytesRotate int64
	var keepNumFiles int

	root := &cobra.Command{
		Use:   "karo-logger",
		Short: "per-host logging daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(logLevel, logLocation, numBytesRotate, keepNumFiles, defaults)
		},
	}

	root.Flags().StringVar(&logLevel, "log-level", firstNonEmpty(defaults.LogLevel, "info"), "self-log level")
	root.Flags().StringVar(&logLocation, "log-location", firstNonEmpty(defaults.LogLocation, defaultLogLocation()), "path to the live log file")
	root.Flags().Int64Var(&numBytesRotate, "num-bytes-rotate", firstNonZero64(defaults.NumBytesRotate, 10<<20), "rotate once the live file reaches this many bytes")
	root.Flags().IntVar(&keepNumFiles, "keep-num-files", firstNonZeroInt(defaults.KeepNumFiles, 10), "number of rotated files to retain")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(logLevel, logLocation string, numBytesRotate int64, keepNumFiles int, defaults *config.FileDefaults) error {
	level, err := config.ResolveLevel(logLevel)
	if err != nil {
		return err
	}

	dir := filepath.Dir(logLocation)
	socketPath := firstNonEmpty(defaults.SocketPath, filepath.Join(dir, "karo.sock"))
	controlSocketPath := firstNonEmpty(defaults.ControlSocketPath, filepath.Join(dir, "karo-ctl.sock"))

	d, err := daemon.New(daemon.Config{
		SocketPath:  socketPath,
		LogPath:     logLocation,
		RotateBytes: numBytesRotate,
		KeepFiles:   keepNumFiles,
		Level:       level,
	})
	if err != nil {
		return err
	}

	ctlLn, err := control.Listen(controlSocketPath)
	if err != nil {
		return err
	}
	plane := control.New(controlSocketPath, d.Registry(), d.SelfLog())

	bootDiag, err := daemon.NewStdDiagnostics(os.Stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// errgroup supervises the dispatcher, the control-plane request
	// loop, and the rotation fan-out as one cancelable group: the first
	// to fail (or ctx canceling) tears down the other two.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return d.Run(gctx) })
	g.Go(func() error { return plane.Serve(ctlLn) })
	g.Go(func() error {
		plane.Run(d.Rotated(), gctx.Done())
		return nil
	})

	go func() {
		<-gctx.Done()
		ctlLn.Close()
	}()

	bootDiag.Infof("karo-logger: live file %s, rotate at %s, socket %s, control %s",
		logLocation, humanize.Bytes(uint64(numBytesRotate)), socketPath, controlSocketPath)

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func defaultLogLocation() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "karo-logger", "karo.log")
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func firstNonZero64(a, b int64) int64 {
	if a != 0 {
		return a
	}
	return b
}

func firstNonZeroInt(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}
