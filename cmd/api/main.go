package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/newsbot360/newsbot/internal/api"
	"github.com/newsbot360/newsbot/internal/app"
	"github.com/newsbot360/newsbot/internal/scheduler"
	"github.com/newsbot360/newsbot/internal/tools"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		schedule bool
		port     string
	)

	cmd := &cobra.Command{
		Use:           "api",
		Short:         "Serve the read API and tool endpoints, optionally running both jobs on cron",
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
			cfg, log := env.Config, env.Log
			if port == "" {
				port = cfg.AppPort
			}

			if schedule {
				s, err := newScheduler(env)
				if err != nil {
					log.Error().Err(err).Msg("init scheduler failed")
					return err
				}
				// 延迟执行首轮任务，避免与服务启动争抢资源
				s.StartupDelay = 15 * time.Second
				s.Start()
				defer s.Stop()
			}

			gin.SetMode(gin.ReleaseMode)
			r := api.NewEngine(log, cfg.BasicAuthUser, cfg.BasicAuthPass)
			news := tools.NewNewsSearcher(cfg.NewsAPIKey, cfg.NewsAPIURL, env.Store.Redis, log)
			sentiment := &tools.SentimentAnalyzer{Classifier: tools.NewHFClassifier(cfg.SentimentAPIURL, cfg.SentimentAPIToken)}
			api.NewServer(env.Store, news, sentiment, cfg.PDFRoot, log).RegisterRoutes(r)

			srv := &http.Server{Addr: ":" + port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("starting api server")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("server exit")
					return err
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			log.Info().Msg("shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().BoolVar(&schedule, "schedule", false, "run the feed and scrape jobs on FEED_CRON / SCRAPE_CRON")
	cmd.Flags().StringVar(&port, "port", "", "listen port (default APP_PORT)")
	return cmd
}

func newScheduler(env *app.Env) (*scheduler.Scheduler, error) {
	feedJob := env.FeedJob()
	scrapeJob := env.ScrapeJob(env.Config.ScrapeFeedID)
	return scheduler.New([]scheduler.Job{
		{
			Name: "feeds",
			Spec: env.Config.FeedCron,
			Run: func(ctx context.Context) error {
				_, err := feedJob.Run(ctx)
				return err
			},
		},
		{
			Name: "scrape",
			Spec: env.Config.ScrapeCron,
			Run: func(ctx context.Context) error {
				_, err := scrapeJob.Run(ctx)
				return err
			},
		},
	}, env.Log)
}
