package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cynerra/scanwatch/internal/utils"
)

// NewNotificationsCmd creates the notifications command group.
func NewNotificationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Short:   "View and manage scan notifications",
		Aliases: []string{"notif", "n"},
	}

	cmd.AddCommand(newNotificationsListCmd())
	cmd.AddCommand(newNotificationsReadCmd())
	cmd.AddCommand(newNotificationsClearCmd())

	return cmd
}

func newNotificationsListCmd() *cobra.Command {
	var unreadOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			items := a.notifications.List()
			if len(items) == 0 {
				fmt.Println("No notifications")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tKIND\tTITLE\tAGE\tREAD")
			for _, n := range items {
				if unreadOnly && n.Read {
					continue
				}
				read := ""
				if n.Read {
					read = "read"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					utils.TruncateStr(n.ID, 12),
					n.Kind,
					utils.TruncateStr(n.Title, 50),
					utils.FormatAge(n.CreatedAt),
					read,
				)
			}
			if err := w.Flush(); err != nil {
				return err
			}

			if unread := a.notifications.UnreadCount(); unread > 0 {
				fmt.Printf("\n%d unread\n", unread)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&unreadOnly, "unread", false, "Show only unread notifications")
	return cmd
}

func newNotificationsReadCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "read [notification-id]",
		Short: "Mark notifications as read",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if all {
				a.notifications.MarkAllRead()
				fmt.Println("All notifications marked read")
				return nil
			}
			if len(args) == 0 {
				return cmd.Help()
			}
			if !a.notifications.MarkRead(args[0]) {
				return fmt.Errorf("no notification with id %s", args[0])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Mark every notification read")
	return cmd
}

func newNotificationsClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			a.notifications.Clear()
			fmt.Println("Notifications cleared")
			return nil
		},
	}
}
