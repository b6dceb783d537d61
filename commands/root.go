// Package commands wires the CLI surface: one-shot scan operations, the
// foreground watcher and the interactive browser.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/cynerra/scanwatch/config"
	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/logging"
	"github.com/cynerra/scanwatch/internal/monitor"
	"github.com/cynerra/scanwatch/internal/notify"
	"github.com/cynerra/scanwatch/internal/storage/disk"
	"github.com/cynerra/scanwatch/internal/storage/interfaces"
	"github.com/cynerra/scanwatch/internal/storage/memory"
)

// NewRootCmd creates the root command for scanwatch.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scanwatch",
		Short:         "Background monitor for network security scans",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(NewScansCmd())
	rootCmd.AddCommand(NewNotificationsCmd())
	rootCmd.AddCommand(NewStatsCmd())
	rootCmd.AddCommand(NewWatchCmd())
	rootCmd.AddCommand(NewVersionCmd())

	tuiCmd := NewBrowseCmd()
	tuiCmd.Aliases = []string{"tui", "b"}
	rootCmd.AddCommand(tuiCmd)

	return rootCmd
}

// app bundles the shared wiring behind the long-running commands.
type app struct {
	cfg           *config.Config
	store         interfaces.KeyValueStore
	client        *api.Client
	cache         *monitor.Cache
	notifications *notify.Store
}

// newApp builds the client, state store, cache and notification store from
// configuration. A failed SQLite open degrades to in-memory state so the
// commands still work, just without persistence across runs.
func newApp() (*app, error) {
	cfg := config.Load()
	log := logging.NewLogger("cli")

	var store interfaces.KeyValueStore
	var err error
	if cfg.Storage.Path != "" {
		store, err = disk.NewSQLiteStoreWithPath(cfg.Storage.Path)
	} else {
		store, err = disk.NewSQLiteStore()
	}
	if err != nil {
		log.WithError(err).Warn("State database unavailable, using in-memory state")
		store = memory.NewStore()
	}

	client := api.NewClient(cfg.API.BaseURL)
	cache := monitor.NewCache(client, store)
	notifications := notify.NewStore(store, cfg.Notifications.MaxEntries)

	return &app{
		cfg:           cfg,
		store:         store,
		client:        client,
		cache:         cache,
		notifications: notifications,
	}, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
	}
}
