package commands

import (
	"os"

	"github.com/spf13/cobra"
)

var showLimit *int

func init() {
	showLimit = showCmd.Flags().Int("limit", 0, "Only print the last n rows, 0 prints everything.")
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <bvid> [--limit n]",
	Short: "Prints the persisted comments of a video.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		records, err := a.store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if *showLimit > 0 && len(records) > *showLimit {
			records = records[len(records)-*showLimit:]
		}
		renderRecords(os.Stdout, records, a.time.Location())
		return nil
	},
}
