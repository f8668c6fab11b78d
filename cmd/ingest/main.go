package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newsbot360/newsbot/internal/app"
)

// 单次执行订阅源任务的命令行入口，适合由外部 cron 触发
func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var addFeeds []string

	cmd := &cobra.Command{
		Use:           "ingest",
		Short:         "Fetch every configured feed and upsert its articles",
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

			for _, raw := range addFeeds {
				name, url, err := parseFeedFlag(raw)
				if err != nil {
					env.Log.Error().Err(err).Msg("invalid --add-feed")
					return err
				}
				f, err := env.Store.EnsureFeed(ctx, name, url)
				if err != nil {
					env.Log.Error().Err(err).Msg("ensure feed failed")
					return err
				}
				env.Log.Info().Uint("feed_id", f.ID).Str("feed", f.Name).Msg("feed registered")
			}

			if _, err := env.FeedJob().Run(ctx); err != nil {
				env.Log.Error().Err(err).Msg("feed job failed")
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&addFeeds, "add-feed", nil, "register a feed before running, as name=url (repeatable)")
	return cmd
}

func parseFeedFlag(raw string) (string, string, error) {
	name, url, ok := strings.Cut(raw, "=")
	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if !ok || name == "" || url == "" {
		return "", "", fmt.Errorf("expected name=url, got %q", raw)
	}
	return name, url, nil
}
