package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/newsbot360/newsbot/internal/storage"
)

// ErrSelection 表示候选集查询失败，抓取任务必须在任何网络请求之前中止
var ErrSelection = errors.New("candidate selection failed")

// ArticleSelector 读取候选集所需的两张表
type ArticleSelector interface {
	ListArticlesByFeed(ctx context.Context, feedID uint) ([]storage.Article, error)
	ScrapedArticleIDs(ctx context.Context, ids []uint) (map[uint]struct{}, error)
}

// Candidates 是一次候选集计算的结果
type Candidates struct {
	Total   int
	Already int
	Todo    []storage.Article
}

// SelectCandidates 返回尚未抓取且链接非空的文章，保持输入顺序
func SelectCandidates(articles []storage.Article, scraped map[uint]struct{}) []storage.Article {
	todo := make([]storage.Article, 0, len(articles))
	for _, a := range articles {
		if _, done := scraped[a.ID]; done {
			continue
		}
		if strings.TrimSpace(a.Link) == "" {
			continue
		}
		todo = append(todo, a)
	}
	return todo
}

// LoadCandidates 从存储读取某订阅源的文章与已抓取集合并计算待办
func LoadCandidates(ctx context.Context, sel ArticleSelector, feedID uint) (Candidates, error) {
	articles, err := sel.ListArticlesByFeed(ctx, feedID)
	if err != nil {
		return Candidates{}, fmt.Errorf("%w: %w", ErrSelection, err)
	}
	if len(articles) == 0 {
		return Candidates{}, nil
	}

	ids := make([]uint, 0, len(articles))
	for _, a := range articles {
		ids = append(ids, a.ID)
	}
	scraped, err := sel.ScrapedArticleIDs(ctx, ids)
	if err != nil {
		return Candidates{}, fmt.Errorf("%w: %w", ErrSelection, err)
	}

	return Candidates{
		Total:   len(articles),
		Already: len(scraped),
		Todo:    SelectCandidates(articles, scraped),
	}, nil
}
