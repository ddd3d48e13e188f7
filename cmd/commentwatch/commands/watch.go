package commands

import (
	"fmt"
	"time"

	"commentwatch/internal/components/chrono"
	"commentwatch/internal/components/telemetry"

	"github.com/spf13/cobra"
)

const report_watch_crawl = "watch.crawl"

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Crawls every configured video on the configured schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		posts := a.cfg.Watch.Posts
		if len(posts) == 0 {
			return fmt.Errorf("watch.posts is empty, there is nothing to watch")
		}

		crawlAll := func() {
			for _, postID := range posts {
				if cmd.Context().Err() != nil {
					return
				}
				c, closeLog, err := a.crawlerFor(postID)
				if err != nil {
					a.tel.ReportBroken(report_watch_crawl, err, postID)
					continue
				}
				// errors are already reported by the crawler
				c.Run(cmd.Context(), postID)
				closeLog()
			}
		}

		cron := chrono.NewStandardCron(a.tel, a.time.Location())
		err = cron.Cron(a.cfg.Watch.Schedule, crawlAll)
		if err != nil {
			return fmt.Errorf("schedule %q: %w", a.cfg.Watch.Schedule, err)
		}

		telemetry.InstrumentPerfStats(cmd.Context(), a.tel, time.Minute)
		crawlAll()
		cron.Start()
		a.tel.ReportDebug("watching", a.cfg.Watch.Schedule, posts)

		<-cmd.Context().Done()
		<-cron.Stop().Done()
		return nil
	},
}
