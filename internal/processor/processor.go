package processor

import (
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/newsbot360/newsbot/internal/collector"
)

// ProcessedArticle 是写入存储层前的统一结构
type ProcessedArticle struct {
	Title       string
	Link        string
	PublishedAt *time.Time
	Summary     *string
	Extra       map[string]any
}

// Normalize 把原始条目映射为规范记录；没有链接的条目无法去重，直接丢弃
func Normalize(entries []collector.Entry) []ProcessedArticle {
	out := make([]ProcessedArticle, 0, len(entries))
	for _, e := range entries {
		link := strings.TrimSpace(e.Link)
		if link == "" {
			continue
		}
		out = append(out, ProcessedArticle{
			Title:       strings.TrimSpace(e.Title),
			Link:        link,
			PublishedAt: ResolvePublishedAt(e),
			Summary:     firstNonEmpty(e.Summary, e.Description),
			Extra:       extraOf(e),
		})
	}
	return out
}

// ResolvePublishedAt 依次尝试 Published、Updated、PubDate，第一个能解析的生效；
// 单个字段解析失败不报错，全部失败返回 nil
func ResolvePublishedAt(e collector.Entry) *time.Time {
	for _, v := range []string{e.Published, e.Updated, e.PubDate} {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		t, err := dateparse.ParseAny(v)
		if err != nil {
			continue
		}
		t = t.UTC()
		return &t
	}
	return nil
}

// Dedup 按链接折叠一批记录：重复链接保留最后一次出现的内容，
// 位置沿用该链接第一次出现的位置
func Dedup(items []ProcessedArticle) []ProcessedArticle {
	index := make(map[string]int, len(items))
	out := make([]ProcessedArticle, 0, len(items))
	for _, it := range items {
		if i, ok := index[it.Link]; ok {
			out[i] = it
			continue
		}
		index[it.Link] = len(out)
		out = append(out, it)
	}
	return out
}

func firstNonEmpty(vals ...string) *string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			s := v
			return &s
		}
	}
	return nil
}

func extraOf(e collector.Entry) map[string]any {
	extra := map[string]any{}
	if e.GUID != "" {
		extra["guid"] = e.GUID
	}
	if len(e.Authors) > 0 {
		extra["authors"] = e.Authors
	}
	if len(e.Categories) > 0 {
		extra["categories"] = e.Categories
	}
	if len(extra) == 0 {
		return nil
	}
	return extra
}
