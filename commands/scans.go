package commands

import (
	"context"
	"fmt"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cynerra/scanwatch/internal/api"
	"github.com/cynerra/scanwatch/internal/models"
	"github.com/cynerra/scanwatch/internal/monitor"
	"github.com/cynerra/scanwatch/internal/scheduler"
	"github.com/cynerra/scanwatch/internal/utils"
	"github.com/cynerra/scanwatch/internal/werrors"
)

// NewScansCmd creates the scans command group.
func NewScansCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "scans",
		Short:   "List and manage scans",
		Aliases: []string{"scan", "s"},
	}

	cmd.AddCommand(newScansListCmd())
	cmd.AddCommand(newScansCreateCmd())
	cmd.AddCommand(newScansCancelCmd())
	cmd.AddCommand(newScansDeleteCmd())
	cmd.AddCommand(newScansProgressCmd())

	return cmd
}

func newScansListCmd() *cobra.Command {
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List scans",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			opts := api.ListOptions{Limit: limit}
			if status != "" {
				parsed, ok := models.ParseScanStatus(status)
				if !ok {
					return werrors.Newf(werrors.CodeInvalidInput, "unknown status %q", status)
				}
				opts.Status = parsed
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			scans, err := a.cache.Refresh(ctx, opts)
			if err != nil {
				return err
			}

			if len(scans) == 0 {
				fmt.Println("No scans")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTARGET\tPROFILE\tSTATUS\tAGE\tFINDINGS")
			for _, scan := range scans {
				findings := "-"
				if scan.FindingsCount != nil {
					findings = fmt.Sprintf("%d", *scan.FindingsCount)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					utils.TruncateStr(scan.ID, 12),
					utils.TruncateStr(scan.Target, 32),
					scan.Profile,
					scan.Status,
					utils.FormatAge(scan.CreatedAt),
					findings,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, completed, failed, cancelled)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of scans to return")
	return cmd
}

func newScansCreateCmd() *cobra.Command {
	var profile string
	var options string
	var skipValidate bool

	cmd := &cobra.Command{
		Use:   "create <targets>",
		Short: "Submit a new scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			target := args[0]

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if !skipValidate {
				result, err := a.client.ValidateTargets(ctx, target)
				if err != nil {
					return err
				}
				for _, warning := range result.Warnings {
					fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
				}
			}

			scan, err := a.cache.Create(ctx, api.CreateScanRequest{
				Target:        target,
				Profile:       models.ScanProfile(profile),
				CustomOptions: options,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Scan %s created (%s, %s)\n", scan.ID, scan.Target, scan.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&profile, "profile", string(models.ProfileQuick), "Scan profile (quick, full, service_detection, vuln_scan, udp_scan)")
	cmd.Flags().StringVar(&options, "options", "", "Custom scanner options")
	cmd.Flags().BoolVar(&skipValidate, "skip-validate", false, "Skip target validation")
	return cmd
}

func newScansCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <scan-id>",
		Short: "Cancel a pending or running scan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if _, err := a.cache.Cancel(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Scan %s cancelled\n", args[0])
			return nil
		},
	}
}

func newScansDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <scan-id>",
		Short: "Delete a scan and its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			if _, err := a.cache.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("Scan %s deleted\n", args[0])
			return nil
		},
	}
}

func newScansProgressCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "progress <scan-id>",
		Short: "Show scan progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			printProgress := func(p models.ScanProgress) {
				line := fmt.Sprintf("%s %s %d%%", p.ScanID, p.Status, p.Progress)
				if p.Message != "" {
					line += "  " + p.Message
				}
				fmt.Println(line)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			progress, err := a.client.GetProgress(ctx, args[0])
			cancel()
			if err != nil {
				return err
			}
			printProgress(*progress)

			if !follow || progress.Status.IsTerminal() {
				return nil
			}

			done := make(chan struct{})
			var once sync.Once
			poller := monitor.NewDetailPoller(a.client, scheduler.New(), a.cfg.DetailInterval(), func(p models.ScanProgress) {
				printProgress(p)
				if p.Status.IsTerminal() {
					once.Do(func() { close(done) })
				}
			})
			poller.Start(args[0])
			defer poller.StopAll()

			select {
			case <-done:
				return nil
			case <-cmd.Context().Done():
				return cmd.Context().Err()
			}
		},
	}

	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Poll until the scan finishes")
	return cmd
}
