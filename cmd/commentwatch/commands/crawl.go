package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var printRecords *bool

func init() {
	printRecords = crawlCmd.Flags().Bool("print", false, "Print the new comments as a table.")
	rootCmd.AddCommand(crawlCmd)
}

var crawlCmd = &cobra.Command{
	Use:   "crawl <bvid> [--print]",
	Short: "Fetches the comments of a video posted since the last run.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		postID := args[0]
		c, closeLog, err := a.crawlerFor(postID)
		if err != nil {
			return err
		}
		defer closeLog()

		result, err := c.Run(cmd.Context(), postID)
		if err != nil {
			return fmt.Errorf("crawl %s: %w", postID, err)
		}

		if *printRecords {
			renderRecords(os.Stdout, result.Records, a.time.Location())
		}
		fmt.Printf(
			"%s: %d new comments, %d keyword matches, %d rows in %s, watermark %s\n",
			postID,
			len(result.Records),
			len(result.Matches),
			result.TableSize,
			a.store.Location(postID),
			result.Committed.Readable,
		)
		return nil
	},
}
