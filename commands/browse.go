package commands

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/cynerra/scanwatch/internal/monitor"
	"github.com/cynerra/scanwatch/internal/scheduler"
	"github.com/cynerra/scanwatch/internal/session"
	"github.com/cynerra/scanwatch/internal/tui/browse"
)

// NewBrowseCmd creates the interactive scan browser command.
func NewBrowseCmd() *cobra.Command {
	var noGuard bool

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Interactive scan and notification browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			sched := scheduler.New()
			mon := monitor.NewMonitor(a.cache, a.notifications, sched, a.cfg.ListInterval())

			var guard *session.Guard
			var model *browse.Model
			if noGuard {
				model = browse.NewModel(mon, nil)
			} else {
				// Sign-out here means leaving the TUI; there is no remote
				// session to tear down from the terminal.
				guard = session.NewGuard(a.store, sched, a.cfg.IdleTimeout(), func() error {
					if model != nil {
						model.ExpireSession()
					}
					return nil
				})
				model = browse.NewModel(mon, guard)
				guard.Start()
				defer guard.Shutdown()
			}

			if err := mon.Start(context.Background()); err != nil {
				return err
			}
			defer mon.Stop()

			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&noGuard, "no-idle-timeout", false, "Disable the idle session timeout")
	return cmd
}
