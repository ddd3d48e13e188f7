package commands

import (
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watermarkCmd)
}

var watermarkCmd = &cobra.Command{
	Use:   "watermark <bvid>",
	Short: "Prints every completed run of a video.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ledger.Entries(args[0])
		if err != nil {
			return err
		}
		renderEntries(os.Stdout, entries)
		return nil
	},
}
