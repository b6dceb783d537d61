package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cynerra/scanwatch/internal/monitor"
	"github.com/cynerra/scanwatch/internal/scheduler"
)

// NewWatchCmd creates the foreground watcher: adaptive list polling with
// status transitions printed as they happen. Intended for a spare terminal
// or a tmux pane while scans run.
func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch scans and report status changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			mon := monitor.NewMonitor(a.cache, a.notifications, scheduler.New(), a.cfg.ListInterval())

			events, cancelSub := a.cache.Subscribe()
			defer cancelSub()

			if err := mon.Start(cmd.Context()); err != nil {
				return err
			}
			defer mon.Stop()

			fmt.Println("Watching scans, ctrl-c to stop")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sigCh)

			for {
				select {
				case <-sigCh:
					return nil
				case <-cmd.Context().Done():
					return nil
				case ev := <-events:
					switch ev.Type {
					case monitor.EventTransition:
						t := ev.Transition
						fmt.Printf("%s: %s -> %s (%s)\n", t.ScanID, t.From, t.To, t.Target)
					case monitor.EventError:
						fmt.Fprintf(os.Stderr, "refresh failed: %s\n", ev.Err)
					}
				}
			}
		},
	}
}
