package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/newsbot360/newsbot/internal/app"
	"github.com/newsbot360/newsbot/internal/pacer"
)

// 单次执行正文抓取任务的命令行入口
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		feedID   uint
		minChars int
		delay    time.Duration
	)

	cmd := &cobra.Command{
		Use:           "scrape",
		Short:         "Scrape full text for articles of one feed that have none yet",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			env, err := app.Setup()
			if err != nil {
				return err
			}
			defer env.Close()

			// 命令行参数优先于环境变量
			if !cmd.Flags().Changed("feed-id") {
				feedID = env.Config.ScrapeFeedID
			}
			if cmd.Flags().Changed("min-chars") {
				env.Config.ScrapeMinChars = minChars
			}
			job := env.ScrapeJob(feedID)
			if cmd.Flags().Changed("delay") {
				job.Pacer = pacer.New(env.Config.ScrapePacing, delay)
			}

			sum, err := job.Run(ctx)
			if err != nil {
				env.Log.Error().Err(err).Msg("scrape job failed")
				return err
			}
			env.Log.Info().
				Int("scraped", sum.Scraped).
				Int("failed", sum.Failed).
				Interface("reasons", sum.Reasons).
				Msg("scrape job done")
			return nil
		},
	}
	cmd.Flags().UintVar(&feedID, "feed-id", 3, "feed whose articles are scraped (default from SCRAPE_FEED_ID)")
	cmd.Flags().IntVar(&minChars, "min-chars", 400, "minimum extracted characters for a page to count")
	cmd.Flags().DurationVar(&delay, "delay", time.Second, "pause between two page requests")
	return cmd
}
