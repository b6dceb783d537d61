package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewStatsCmd creates the statistics command.
func NewStatsCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate scan statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			stats, err := a.client.GetStats(ctx)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(stats, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}

			fmt.Printf("Total scans:      %d\n", stats.TotalScans)
			fmt.Printf("Completed:        %d\n", stats.ScansCompleted)
			fmt.Printf("Failed:           %d\n", stats.ScansFailed)
			fmt.Printf("Running:          %d\n", stats.ScansRunning)
			fmt.Printf("Vulnerabilities:  %d\n", stats.TotalVulnerabilities)
			fmt.Printf("Avg risk score:   %.1f\n", stats.AverageRiskScore)
			if stats.LastScanDate != nil {
				fmt.Printf("Last scan:        %s\n", stats.LastScanDate.Format(time.RFC3339))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
