package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	newsPageSize         = 50
	newsLanguage         = "fr"
	newsClientTimeout    = 10 * time.Second
	newsMaxResponseBytes = 4 << 20
	newsCacheTTL         = 5 * time.Minute
)

// NewsArticle 是按主题检索到的一篇新闻；缺失字段为 nil
type NewsArticle struct {
	Title       *string `json:"title"`
	Source      *string `json:"source"`
	PublishedAt *string `json:"published_at"`
	URL         *string `json:"url"`
	Description *string `json:"description"`
}

type newsAPIResponse struct {
	Status   string `json:"status"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Articles []struct {
		Title       *string `json:"title"`
		PublishedAt *string `json:"publishedAt"`
		URL         *string `json:"url"`
		Description *string `json:"description"`
		Source      *struct {
			Name *string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

// NewsSearcher 调用 NewsAPI /v2/everything 按主题检索法语新闻
type NewsSearcher struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	// Redis 为 nil 时不缓存
	Redis *redis.Client
	Log   zerolog.Logger

	policy *bluemonday.Policy
}

func NewNewsSearcher(apiKey, baseURL string, rdb *redis.Client, log zerolog.Logger) *NewsSearcher {
	return &NewsSearcher{
		APIKey:  apiKey,
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: newsClientTimeout},
		Redis:   rdb,
		Log:     log,
		policy:  bluemonday.StrictPolicy(),
	}
}

// ByTheme 返回最多 50 篇与 topic 相关的文章；失败时返回 ErrorRecord
func (n *NewsSearcher) ByTheme(ctx context.Context, topic string) ([]NewsArticle, *ErrorRecord) {
	if n.APIKey == "" {
		return nil, &ErrorRecord{Kind: KindMissingAPIKey, Message: "NEWSAPI_KEY not found"}
	}

	cacheKey := "news:theme:" + strings.ToLower(strings.TrimSpace(topic))
	if n.Redis != nil {
		if bs, err := n.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []NewsArticle
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	data, rec := n.fetch(ctx, topic)
	if rec != nil {
		return nil, rec
	}
	if data.Status != "ok" {
		msg := data.Message
		if msg == "" {
			msg = "status=" + data.Status
		}
		if data.Code != "" {
			msg = data.Code + ": " + msg
		}
		return nil, &ErrorRecord{Kind: KindNewsAPIError, Message: msg}
	}

	out := make([]NewsArticle, 0, len(data.Articles))
	for _, a := range data.Articles {
		art := NewsArticle{
			Title:       a.Title,
			PublishedAt: a.PublishedAt,
			URL:         a.URL,
			Description: n.sanitize(a.Description),
		}
		if a.Source != nil {
			art.Source = a.Source.Name
		}
		out = append(out, art)
	}

	if n.Redis != nil && len(out) > 0 {
		if bs, err := json.Marshal(out); err == nil {
			if err := n.Redis.Set(ctx, cacheKey, bs, newsCacheTTL).Err(); err != nil {
				n.Log.Debug().Err(err).Str("key", cacheKey).Msg("cache write failed")
			}
		}
	}
	return out, nil
}

func (n *NewsSearcher) fetch(ctx context.Context, topic string) (*newsAPIResponse, *ErrorRecord) {
	u, err := url.Parse(n.BaseURL)
	if err != nil {
		return nil, newError(KindHTTPError, err)
	}
	q := u.Query()
	q.Set("q", topic)
	q.Set("language", newsLanguage)
	q.Set("pageSize", fmt.Sprint(newsPageSize))
	q.Set("apiKey", n.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, newError(KindHTTPError, err)
	}
	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, newError(KindHTTPError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindHTTPError, fmt.Errorf("newsapi: unexpected status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, newsMaxResponseBytes))
	if err != nil {
		return nil, newError(KindHTTPError, fmt.Errorf("newsapi: read body: %w", err))
	}
	var data newsAPIResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, newError(KindHTTPError, fmt.Errorf("newsapi: decode body: %w", err))
	}
	return &data, nil
}

// sanitize 去掉描述中的 HTML 标签，保留实体对应的字符
func (n *NewsSearcher) sanitize(s *string) *string {
	if s == nil {
		return nil
	}
	p := n.policy
	if p == nil {
		p = bluemonday.StrictPolicy()
	}
	v := strings.TrimSpace(html.UnescapeString(p.Sanitize(*s)))
	return &v
}
