package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "newsbot"

var (
	// FeedsProcessed 按结果统计处理过的订阅源：ok / failed / empty
	FeedsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feeds_processed_total",
		Help:      "Feeds processed by the ingest job, by result.",
	}, []string{"result"})

	ArticlesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "articles_inserted_total",
		Help:      "Article rows newly inserted by the ingest job.",
	})

	// ScrapeAttempts 的 reason 标签：ok、http_<code>、text_too_short_or_none、transport_error
	ScrapeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scrape_attempts_total",
		Help:      "Scrape attempts by outcome reason.",
	}, []string{"reason"})

	ArticleTextsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "article_texts_written_total",
		Help:      "Article text rows written by the scrape job.",
	})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_runs_total",
		Help:      "Job runs by job name and result.",
	}, []string{"job", "result"})
)
