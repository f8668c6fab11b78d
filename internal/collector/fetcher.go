package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
)

const (
	feedClientTimeout = 20 * time.Second
	feedUserAgent     = "NewsBot360/1.0"
)

// ErrEmptyURL 表示 feed 未配置 URL
var ErrEmptyURL = errors.New("collector: empty feed url")

// Entry 是 feed 中一条原始条目，尚未做链接校验与时间解析
type Entry struct {
	GUID  string
	Title string
	Link  string
	// Summary / Description 依次作为摘要候选
	Summary     string
	Description string
	// 三个候选发布时间字段，按优先级排列
	Published string
	Updated   string
	PubDate   string

	Authors    []string
	Categories []string
}

// Fetcher 抽象一个 feed 的拉取与解析
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]Entry, error)
}

// GofeedFetcher 基于 gofeed 解析 RSS / Atom / JSON Feed
type GofeedFetcher struct {
	parser *gofeed.Parser
}

func NewGofeedFetcher(timeout time.Duration, userAgent string) *GofeedFetcher {
	if timeout <= 0 {
		timeout = feedClientTimeout
	}
	if userAgent == "" {
		userAgent = feedUserAgent
	}
	fp := gofeed.NewParser()
	fp.Client = &http.Client{Timeout: timeout}
	fp.UserAgent = userAgent
	return &GofeedFetcher{parser: fp}
}

func (f *GofeedFetcher) Fetch(ctx context.Context, feedURL string) ([]Entry, error) {
	feedURL = strings.TrimSpace(feedURL)
	if feedURL == "" {
		return nil, ErrEmptyURL
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("collector: parse %s: %w", feedURL, err)
	}

	entries := make([]Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if it == nil {
			continue
		}
		entries = append(entries, fromItem(it))
	}
	return entries, nil
}

func fromItem(it *gofeed.Item) Entry {
	e := Entry{
		GUID:        it.GUID,
		Title:       it.Title,
		Link:        it.Link,
		Summary:     it.Description,
		Description: it.Content,
		Published:   it.Published,
		Updated:     it.Updated,
		Categories:  it.Categories,
	}
	if e.Link == "" && len(it.Links) > 0 {
		e.Link = it.Links[0]
	}
	for _, a := range it.Authors {
		if a != nil && a.Name != "" {
			e.Authors = append(e.Authors, a.Name)
		}
	}
	// 第三候选：dc:date 扩展或未识别的 pubDate 元素
	if it.DublinCoreExt != nil && len(it.DublinCoreExt.Date) > 0 {
		e.PubDate = it.DublinCoreExt.Date[0]
	} else if v, ok := it.Custom["pubDate"]; ok {
		e.PubDate = v
	}
	return e
}
