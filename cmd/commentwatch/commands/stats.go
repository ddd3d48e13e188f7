package commands

import (
	"fmt"
	"os"

	"commentwatch/internal/engagement"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statsCmd)
}

var statsCmd = &cobra.Command{
	Use:   "stats <bvid>",
	Short: "Prints the engagement of a video and posts it to the webhook if one is configured.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.client.View(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		report := engagement.Compute(view, a.time.Now())
		renderReport(os.Stdout, report)

		if a.feishu != nil {
			err = a.feishu.Notify(cmd.Context(), report.Message())
			if err != nil {
				return fmt.Errorf("post stats: %w", err)
			}
		}
		return nil
	},
}
