package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/newsbot360/newsbot/internal/collector"
	"github.com/newsbot360/newsbot/internal/metrics"
	"github.com/newsbot360/newsbot/internal/processor"
	"github.com/newsbot360/newsbot/internal/storage"
)

type FeedSource interface {
	ListFeeds(ctx context.Context) ([]storage.Feed, error)
}

type ArticleSink interface {
	UpsertArticles(ctx context.Context, feedID uint, items []processor.ProcessedArticle) (int64, error)
}

// FeedSummary 汇总一次订阅源任务
type FeedSummary struct {
	Feeds    int
	Failed   int
	Empty    int
	Upserted int
	Inserted int64
}

// FeedJob 拉取所有订阅源并幂等写入文章
type FeedJob struct {
	Feeds   FeedSource
	Fetcher collector.Fetcher
	Sink    ArticleSink
	Log     zerolog.Logger
}

// Run 逐个处理订阅源；单个源失败只记录日志，不影响其余源。
// 只有读取订阅源列表失败才返回错误
func (j *FeedJob) Run(ctx context.Context) (FeedSummary, error) {
	log := j.Log.With().Str("job", "feeds").Str("run_id", uuid.NewString()).Logger()
	var sum FeedSummary

	feeds, err := j.Feeds.ListFeeds(ctx)
	if err != nil {
		metrics.JobRuns.WithLabelValues("feeds", "error").Inc()
		return sum, fmt.Errorf("feeds job: %w", err)
	}
	sum.Feeds = len(feeds)
	log.Info().Int("feeds", len(feeds)).Msg("start feed job")

	for _, f := range feeds {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		j.runFeed(ctx, log, f, &sum)
	}

	metrics.JobRuns.WithLabelValues("feeds", "ok").Inc()
	log.Info().
		Int("feeds", sum.Feeds).
		Int("failed", sum.Failed).
		Int("empty", sum.Empty).
		Int("upserted", sum.Upserted).
		Int64("inserted", sum.Inserted).
		Msg("feed job done")
	return sum, nil
}

func (j *FeedJob) runFeed(ctx context.Context, log zerolog.Logger, f storage.Feed, sum *FeedSummary) {
	flog := log.With().Str("feed", f.Name).Uint("feed_id", f.ID).Logger()

	entries, err := j.Fetcher.Fetch(ctx, f.URL)
	if err != nil {
		sum.Failed++
		metrics.FeedsProcessed.WithLabelValues("failed").Inc()
		flog.Warn().Err(err).Str("reason", "feed_fetch_failed").Msgf("[%s] FAIL", f.Name)
		return
	}

	items := processor.Normalize(entries)
	if len(items) == 0 {
		sum.Empty++
		metrics.FeedsProcessed.WithLabelValues("empty").Inc()
		flog.Info().Msgf("[%s] no items", f.Name)
		return
	}

	items = processor.Dedup(items)
	inserted, err := j.Sink.UpsertArticles(ctx, f.ID, items)
	if err != nil {
		sum.Failed++
		metrics.FeedsProcessed.WithLabelValues("failed").Inc()
		flog.Error().Err(err).Str("reason", "store_write_failed").Msgf("[%s] FAIL", f.Name)
		return
	}

	sum.Upserted += len(items)
	sum.Inserted += inserted
	metrics.FeedsProcessed.WithLabelValues("ok").Inc()
	metrics.ArticlesInserted.Add(float64(inserted))
	flog.Info().
		Int("fetched", len(entries)).
		Int64("inserted", inserted).
		Msgf("[%s] OK - %d items upserted", f.Name, len(items))
}
