// Package app 组装各个命令行入口共用的依赖
package app

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/newsbot360/newsbot/internal/collector"
	"github.com/newsbot360/newsbot/internal/config"
	"github.com/newsbot360/newsbot/internal/extract"
	"github.com/newsbot360/newsbot/internal/jobs"
	"github.com/newsbot360/newsbot/internal/logging"
	"github.com/newsbot360/newsbot/internal/pacer"
	"github.com/newsbot360/newsbot/internal/scraper"
	"github.com/newsbot360/newsbot/internal/storage"
)

// Env 是一次进程运行所需的配置、日志与存储
type Env struct {
	Config *config.Config
	Log    zerolog.Logger
	Store  *storage.Store
}

// Setup 读取配置并连接存储；缺少必填配置时返回的错误满足 errors.Is(err, config.ErrMissingConfig)
func Setup() (*Env, error) {
	cfg, err := config.Load()
	if err != nil {
		// 配置失败时还没有 level，先用默认 logger 记录
		l := logging.New("info", os.Stderr)
		l.Error().Err(err).Msg("load config failed")
		return nil, err
	}
	log := logging.New(cfg.LogLevel, os.Stderr)

	dsn, err := cfg.PostgresDSN()
	if err != nil {
		return nil, err
	}
	store, err := storage.NewStore(dsn, cfg.RedisAddr, log)
	if err != nil {
		log.Error().Err(err).Msg("init store failed")
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Env{Config: cfg, Log: log, Store: store}, nil
}

func (e *Env) Close() error {
	return e.Store.Close()
}

func (e *Env) FeedJob() *jobs.FeedJob {
	return &jobs.FeedJob{
		Feeds:   e.Store,
		Fetcher: collector.NewGofeedFetcher(e.Config.FeedTimeout, e.Config.ScrapeUserAgent),
		Sink:    e.Store,
		Log:     e.Log,
	}
}

func (e *Env) ScrapeJob(feedID uint) *jobs.ScrapeJob {
	sc := scraper.New(scraper.Options{
		UserAgent:  e.Config.ScrapeUserAgent,
		Timeout:    e.Config.ScrapeTimeout,
		MinChars:   e.Config.ScrapeMinChars,
		CutMarkers: e.Config.CutMarkers,
	}, extract.NewReadability())

	return &jobs.ScrapeJob{
		FeedID:  feedID,
		Store:   e.Store,
		Scraper: sc,
		Pacer:   pacer.New(e.Config.ScrapePacing, e.Config.ScrapeDelay),
		Log:     e.Log,
	}
}
