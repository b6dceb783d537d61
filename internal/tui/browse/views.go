package browse

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/utils"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	unreadStyle   = lipgloss.NewStyle().Bold(true)

	statusStyles = map[models.ScanStatus]lipgloss.Style{
		models.StatusPending:   lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		models.StatusRunning:   lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		models.StatusCompleted: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		models.StatusFailed:    lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		models.StatusCancelled: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}

	kindIcons = map[models.NotificationKind]string{
		models.KindSuccess: "✓",
		models.KindError:   "✗",
		models.KindWarning: "!",
		models.KindInfo:    "·",
	}
)

func renderStatus(s models.ScanStatus) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(string(s))
	}
	return string(s)
}

func (m *Model) View() string {
	var b strings.Builder

	header := titleStyle.Render("scanwatch")
	if m.refreshing {
		header += " " + m.spinner.View() + mutedStyle.Render("refreshing")
	}
	if unread := m.mon.Notifications().UnreadCount(); unread > 0 {
		header += "  " + unreadStyle.Render(fmt.Sprintf("(%d unread)", unread))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	b.WriteString(m.viewScans())
	b.WriteString("\n")
	b.WriteString(m.viewNotifications())
	b.WriteString("\n")

	if m.lastErr != "" {
		b.WriteString(errStyle.Render("backend unreachable: "+utils.TruncateStr(m.lastErr, 80)) + "\n")
	}

	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) viewScans() string {
	var b strings.Builder

	label := "Scans"
	if m.activePane == paneScans {
		label = "> " + label
	} else {
		label = "  " + label
	}
	b.WriteString(titleStyle.Render(label) + "\n")

	if len(m.scans) == 0 {
		b.WriteString(mutedStyle.Render("  no scans") + "\n")
		return b.String()
	}

	for i, scan := range m.scans {
		line := fmt.Sprintf("  %s  %s  %s  %s",
			utils.PadStr(utils.TruncateStr(scan.Target, 32), 32),
			utils.PadStr(renderStatus(scan.Status), 11),
			utils.PadStr(string(scan.Profile), 16),
			utils.FormatAge(scan.CreatedAt),
		)
		if scan.Status == models.StatusCompleted && scan.FindingsCount != nil {
			line += mutedStyle.Render(fmt.Sprintf("  %d findings", *scan.FindingsCount))
		}
		if m.activePane == paneScans && i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m *Model) viewNotifications() string {
	var b strings.Builder

	label := "Notifications"
	if m.activePane == paneNotifications {
		label = "> " + label
	} else {
		label = "  " + label
	}
	b.WriteString(titleStyle.Render(label) + "\n")

	if len(m.notifications) == 0 {
		b.WriteString(mutedStyle.Render("  no notifications") + "\n")
		return b.String()
	}

	for i, n := range m.notifications {
		icon := kindIcons[n.Kind]
		line := fmt.Sprintf("  %s %s", icon, utils.TruncateStr(n.Title, 60))
		if n.Message != "" {
			line += mutedStyle.Render("  " + utils.TruncateStr(n.Message, 40))
		}
		line += mutedStyle.Render("  " + utils.FormatAge(n.CreatedAt))
		if !n.Read {
			line = unreadStyle.Render(line)
		} else {
			line = mutedStyle.Render(line)
		}
		if m.activePane == paneNotifications && i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}
