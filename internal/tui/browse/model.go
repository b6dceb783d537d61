// Package browse implements the interactive scan browser. It is a consumer
// of the monitor's event stream, not a second source of truth: every list it
// renders comes from the cache or the notification store.
package browse

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/monitor"
	"github.com/cynerra/scanwatch/internal/session"
)

type pane int

const (
	paneScans pane = iota
	paneNotifications
)

// cacheEventMsg wraps a monitor event for the bubbletea loop.
type cacheEventMsg monitor.Event

// notificationsChangedMsg signals that the notification store mutated.
type notificationsChangedMsg struct{}

// sessionExpiredMsg ends the program when the idle guard fires.
type sessionExpiredMsg struct{}

// Model is the bubbletea model for the browser.
type Model struct {
	mon   *monitor.Monitor
	guard *session.Guard

	events    <-chan monitor.Event
	cancelSub func()
	notifCh   chan struct{}
	expiredCh chan struct{}

	scans         []models.Scan
	notifications []models.Notification
	cursor        int
	activePane    pane
	lastErr       string
	refreshing    bool

	keys    KeyMap
	help    help.Model
	spinner spinner.Model
	width   int
	height  int
}

// NewModel builds the browser over a running monitor. guard may be nil; when
// set, every key press counts as qualifying activity and expiry quits the
// program.
func NewModel(mon *monitor.Monitor, guard *session.Guard) *Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	events, cancel := mon.Cache().Subscribe()

	m := &Model{
		mon:           mon,
		guard:         guard,
		events:        events,
		cancelSub:     cancel,
		notifCh:       make(chan struct{}, 1),
		expiredCh:     make(chan struct{}, 1),
		scans:         mon.Cache().Snapshot(),
		notifications: mon.Notifications().List(),
		keys:          NewKeyMap(),
		help:          help.New(),
		spinner:       sp,
	}

	mon.Notifications().OnChange(func() {
		select {
		case m.notifCh <- struct{}{}:
		default:
		}
	})

	return m
}

// ExpireSession is hooked into the guard's sign-out path by the caller so
// the TUI exits when the idle window passes.
func (m *Model) ExpireSession() {
	select {
	case m.expiredCh <- struct{}{}:
	default:
	}
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.waitForEvent(), m.waitForNotifications(), m.waitForExpiry(), m.spinner.Tick)
}

func (m *Model) waitForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return nil
		}
		return cacheEventMsg(ev)
	}
}

func (m *Model) waitForNotifications() tea.Cmd {
	return func() tea.Msg {
		<-m.notifCh
		return notificationsChangedMsg{}
	}
}

func (m *Model) waitForExpiry() tea.Cmd {
	return func() tea.Msg {
		<-m.expiredCh
		return sessionExpiredMsg{}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case cacheEventMsg:
		switch msg.Type {
		case monitor.EventSnapshot:
			m.scans = msg.Scans
			m.lastErr = ""
			m.refreshing = false
			m.clampCursor()
		case monitor.EventError:
			m.lastErr = msg.Err
			m.refreshing = false
		}
		return m, m.waitForEvent()

	case notificationsChangedMsg:
		m.notifications = m.mon.Notifications().List()
		m.clampCursor()
		return m, m.waitForNotifications()

	case sessionExpiredMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.guard != nil {
		m.guard.Touch()
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.cancelSub()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, m.keys.Down):
		if m.cursor < m.paneLen()-1 {
			m.cursor++
		}

	case key.Matches(msg, m.keys.TogglePane):
		if m.activePane == paneScans {
			m.activePane = paneNotifications
		} else {
			m.activePane = paneScans
		}
		m.clampCursor()

	case key.Matches(msg, m.keys.Refresh):
		m.refreshing = true
		return m, m.refreshCmd()

	case key.Matches(msg, m.keys.CancelScan):
		if scan, ok := m.selectedScan(); ok && scan.Status.IsActive() {
			return m, m.cancelCmd(scan.ID)
		}

	case key.Matches(msg, m.keys.DeleteScan):
		if scan, ok := m.selectedScan(); ok && scan.Status.IsTerminal() {
			return m, m.deleteCmd(scan.ID)
		}

	case key.Matches(msg, m.keys.MarkRead):
		if n, ok := m.selectedNotification(); ok {
			m.mon.Notifications().MarkRead(n.ID)
		}

	case key.Matches(msg, m.keys.MarkAllRead):
		m.mon.Notifications().MarkAllRead()

	case key.Matches(msg, m.keys.ClearAll):
		m.mon.Notifications().Clear()
	}

	return m, nil
}

func (m *Model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		// Results arrive through the event subscription.
		m.mon.Cache().Refresh(ctx, api.ListOptions{})
		return nil
	}
}

func (m *Model) cancelCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.mon.Cache().Cancel(ctx, id)
		return nil
	}
}

func (m *Model) deleteCmd(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		m.mon.Cache().Delete(ctx, id)
		return nil
	}
}

func (m *Model) paneLen() int {
	if m.activePane == paneScans {
		return len(m.scans)
	}
	return len(m.notifications)
}

func (m *Model) clampCursor() {
	if n := m.paneLen(); m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) selectedScan() (models.Scan, bool) {
	if m.activePane != paneScans || m.cursor >= len(m.scans) {
		return models.Scan{}, false
	}
	return m.scans[m.cursor], true
}

func (m *Model) selectedNotification() (models.Notification, bool) {
	if m.activePane != paneNotifications || m.cursor >= len(m.notifications) {
		return models.Notification{}, false
	}
	return m.notifications[m.cursor], true
}
