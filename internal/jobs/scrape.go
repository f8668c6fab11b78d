package jobs

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/newsbot360/newsbot/internal/metrics"
	"github.com/newsbot360/newsbot/internal/pacer"
	"github.com/newsbot360/newsbot/internal/scraper"
	"github.com/newsbot360/newsbot/internal/storage"
)

const reasonTransport = "transport_error"

type PageScraper interface {
	Scrape(ctx context.Context, link string) (scraper.Result, error)
}

type TextSink interface {
	UpsertArticleTexts(ctx context.Context, texts []storage.ArticleText) (int64, error)
}

// ScrapeStore 同时提供候选集查询与正文写入
type ScrapeStore interface {
	ArticleSelector
	TextSink
}

// ScrapeSummary 汇总一次抓取任务；Reasons 记录失败原因计数
type ScrapeSummary struct {
	Total   int
	Already int
	Todo    int
	Scraped int
	Failed  int
	Written int64
	Reasons map[string]int
}

// ScrapeJob 对一个订阅源中尚未抓取正文的文章逐个抓取，最后一次性写入
type ScrapeJob struct {
	FeedID  uint
	Store   ScrapeStore
	Scraper PageScraper
	Pacer   pacer.Pacer
	Log     zerolog.Logger
}

// Run 候选集查询失败时返回 ErrSelection，且不发出任何网络请求。
// 单条失败只记录日志；context 取消时丢弃本轮累积结果
func (j *ScrapeJob) Run(ctx context.Context) (ScrapeSummary, error) {
	log := j.Log.With().Str("job", "scrape").Uint("feed_id", j.FeedID).Str("run_id", uuid.NewString()).Logger()
	sum := ScrapeSummary{Reasons: map[string]int{}}

	cand, err := LoadCandidates(ctx, j.Store, j.FeedID)
	if err != nil {
		metrics.JobRuns.WithLabelValues("scrape", "error").Inc()
		return sum, err
	}
	sum.Total, sum.Already, sum.Todo = cand.Total, cand.Already, len(cand.Todo)

	if cand.Total == 0 {
		log.Info().Msg("no articles for this feed")
		return sum, nil
	}
	log.Info().Msgf("Feed %d | total=%d | already=%d | todo=%d", j.FeedID, cand.Total, cand.Already, len(cand.Todo))
	if len(cand.Todo) == 0 {
		log.Info().Msg("nothing to scrape")
		return sum, nil
	}

	payload := make([]storage.ArticleText, 0, len(cand.Todo))
	n := len(cand.Todo)
	for i, a := range cand.Todo {
		if i > 0 && j.Pacer != nil {
			if err := j.Pacer.Wait(ctx); err != nil {
				return sum, fmt.Errorf("scrape job interrupted: %w", err)
			}
		}

		res, err := j.Scraper.Scrape(ctx, a.Link)
		switch {
		case err != nil:
			sum.Failed++
			sum.Reasons[reasonTransport]++
			metrics.ScrapeAttempts.WithLabelValues(reasonTransport).Inc()
			log.Warn().Err(err).Str("link", a.Link).Str("reason", reasonTransport).Msgf("[%d/%d] FAIL", i+1, n)
		case !res.OK():
			sum.Failed++
			sum.Reasons[res.Reason]++
			metrics.ScrapeAttempts.WithLabelValues(res.Reason).Inc()
			log.Warn().Str("link", a.Link).Str("reason", res.Reason).Msgf("[%d/%d] FAIL", i+1, n)
		default:
			sum.Scraped++
			metrics.ScrapeAttempts.WithLabelValues("ok").Inc()
			payload = append(payload, storage.ArticleText{
				ArticleID: a.ID,
				Link:      a.Link,
				Content:   res.Content,
			})
			log.Info().Str("link", a.Link).Msgf("[%d/%d] OK", i+1, n)
		}
	}

	if err := ctx.Err(); err != nil {
		return sum, fmt.Errorf("scrape job interrupted: %w", err)
	}

	if len(payload) == 0 {
		metrics.JobRuns.WithLabelValues("scrape", "ok").Inc()
		log.Info().Int("failed", sum.Failed).Msg("no valid content to insert")
		return sum, nil
	}

	written, err := j.Store.UpsertArticleTexts(ctx, payload)
	if err != nil {
		metrics.JobRuns.WithLabelValues("scrape", "error").Inc()
		return sum, fmt.Errorf("scrape job: %w", err)
	}
	sum.Written = written
	metrics.ArticleTextsWritten.Add(float64(len(payload)))
	metrics.JobRuns.WithLabelValues("scrape", "ok").Inc()
	log.Info().Int("rows", len(payload)).Int("failed", sum.Failed).Msgf("upsert done: %d rows", len(payload))
	return sum, nil
}
