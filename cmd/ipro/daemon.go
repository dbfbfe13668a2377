package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/invoicepro/invoicepro/internal/bus"
	"github.com/invoicepro/invoicepro/internal/daemon"
	"github.com/invoicepro/invoicepro/internal/dashboard"
	syncengine "github.com/invoicepro/invoicepro/internal/sync"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the background sync daemon (foreground)",
	Long: `Start the sync daemon in foreground mode.

The daemon runs one sync immediately, then keeps syncing on a background
timer, when connectivity returns after an outage, and shortly after local
database writes. Preferences set with 'ipro sync prefs' control the timer.

With --dashboard (or dashboard.enabled in the config) a WebSocket server
broadcasts sync completions and settings changes to connected clients.`,
	Run: func(cmd *cobra.Command, args []string) {
		who := requireIdentity()

		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("dashboard") {
			cfg.Dashboard.Enabled, _ = cmd.Flags().GetBool("dashboard")
		}

		logger := daemonLogger(cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups, cfg.Log.MaxAgeDays)

		notifier := bus.New()
		st := openStore(cfg, notifier)
		defer st.Close()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		rm := openRemote(ctx, cfg)
		defer rm.Close()

		engine := syncengine.New(st, rm, notifier, logger)

		dcfg := &daemon.Config{
			ProbeInterval:    time.Duration(cfg.Daemon.ProbeIntervalSeconds) * time.Second,
			DebounceInterval: time.Duration(cfg.Daemon.DebounceIntervalSeconds) * time.Second,
			WatchStore:       cfg.Daemon.WatchStore,
			Logger:           logger,
		}
		d, err := daemon.New(who, engine, rm, st, st.Path(), dcfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating daemon: %v\n", err)
			os.Exit(1)
		}

		if cfg.Dashboard.Enabled {
			server := dashboard.NewServer(notifier, &dashboard.Config{
				Port:   cfg.Dashboard.Port,
				Logger: logger,
			})
			if err := server.Start(); err != nil {
				fmt.Fprintf(os.Stderr, "Error starting dashboard: %v\n", err)
				os.Exit(1)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
				}
			}()
			fmt.Printf("Dashboard: http://localhost:%d (ws://localhost:%d/ws)\n",
				cfg.Dashboard.Port, cfg.Dashboard.Port)
		}

		fmt.Printf("Sync daemon running for %s\n", who)
		fmt.Printf("   Database: %s\n", st.Path())
		fmt.Println("\nPress Ctrl+C to stop")

		if err := d.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Daemon stopped with error: %v\n", err)
			os.Exit(1)
		}
	},
}

// daemonLogger writes to stderr, or to a size-rotated file when one is
// configured.
func daemonLogger(file string, maxSizeMB, maxBackups, maxAgeDays int) *log.Logger {
	var out io.Writer = os.Stderr
	if file != "" {
		out = &lumberjack.Logger{
			Filename:   file,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
	}
	return log.New(out, "[ipro] ", log.LstdFlags)
}

func init() {
	daemonCmd.Flags().Bool("dashboard", false, "Serve the WebSocket dashboard")
	rootCmd.AddCommand(daemonCmd)
}
