package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"

	"github.com/newsbot360/newsbot/internal/extract"
)

const (
	DefaultUserAgent = "Mozilla/5.0"
	DefaultTimeout   = 10 * time.Second
	DefaultMinChars  = 400

	// ReasonTooShort 表示 200 响应但正文为空或不足 MinChars
	ReasonTooShort = "text_too_short_or_none"

	maxBodyBytes = 10 << 20 // 10MB
)

var errNoResponse = errors.New("scraper: no response received")

// Result 是单个链接的抓取结果；Reason 非空表示被分类过的失败
type Result struct {
	Link       string
	StatusCode int
	Content    string
	Reason     string
}

func (r Result) OK() bool { return r.Reason == "" && r.Content != "" }

type Options struct {
	UserAgent  string
	Timeout    time.Duration
	MinChars   int
	CutMarkers []string
}

// Scraper 对每个链接发起一次 GET，抽取正文并做质量过滤
type Scraper struct {
	base      *colly.Collector
	extractor extract.Extractor
	minChars  int
	markers   []string
}

func New(opts Options, ex extract.Extractor) *Scraper {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MinChars <= 0 {
		opts.MinChars = DefaultMinChars
	}
	if ex == nil {
		ex = extract.NewReadability()
	}

	c := colly.NewCollector(
		colly.UserAgent(opts.UserAgent),
		colly.AllowURLRevisit(),
		colly.ParseHTTPErrorResponse(),
		colly.DetectCharset(),
		colly.MaxBodySize(maxBodyBytes),
	)
	c.SetRequestTimeout(opts.Timeout)

	return &Scraper{
		base:      c,
		extractor: ex,
		minChars:  opts.MinChars,
		markers:   opts.CutMarkers,
	}
}

// Scrape 抓取一个链接。传输层错误（超时、连接失败、解码失败）以 error 返回；
// 非 200 或正文过短以 Result.Reason 返回
func (s *Scraper) Scrape(ctx context.Context, link string) (Result, error) {
	res := Result{Link: link}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	// Clone 共享 HTTP 客户端与配置，但回调只属于本次请求
	c := s.base.Clone()
	// 取消 ctx 时立即中断进行中的请求，而不是等到超时
	c.Context = ctx
	var resp *colly.Response
	c.OnResponse(func(r *colly.Response) {
		resp = r
	})

	if err := c.Visit(link); err != nil {
		return res, fmt.Errorf("scraper: get %s: %w", link, err)
	}
	if resp == nil {
		return res, errNoResponse
	}

	res.StatusCode = resp.StatusCode
	if resp.StatusCode != 200 {
		res.Reason = fmt.Sprintf("http_%d", resp.StatusCode)
		return res, nil
	}

	text := strings.TrimSpace(s.extractor.Extract(resp.Body, resp.Request.URL))
	if text == "" || utf8.RuneCountInString(text) < s.minChars {
		res.Reason = ReasonTooShort
		return res, nil
	}

	res.Content = strings.TrimSpace(TruncateAtMarker(text, s.markers))
	if res.Content == "" {
		res.Reason = ReasonTooShort
	}
	return res, nil
}

// TruncateAtMarker 在任一标记第一次出现处截断，去掉文末的导航/相关推荐区块
func TruncateAtMarker(text string, markers []string) string {
	cut := len(text)
	for _, m := range markers {
		if m == "" {
			continue
		}
		if i := strings.Index(text, m); i >= 0 && i < cut {
			cut = i
		}
	}
	return text[:cut]
}
