package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const listCacheTTL = 5 * time.Minute

// ListArticles 按订阅源返回最新文章（published_at 倒序），使用 Redis 做简单缓存。
// feedID 为 0 时不过滤
func (s *Store) ListArticles(ctx context.Context, feedID uint, limit int) ([]Article, error) {
	if limit <= 0 || limit > 500 {
		limit = 20
	}
	cacheKey := fmt.Sprintf("articles:list:%d:%d", feedID, limit)

	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []Article
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	var list []Article
	q := s.DB.WithContext(ctx).Model(&Article{})
	if feedID != 0 {
		q = q.Where("feed_id = ?", feedID)
	}
	err := q.Order("published_at DESC NULLS LAST").Order("id DESC").Limit(limit).Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list articles: %w", err)
	}

	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			if err := s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err(); err != nil {
				s.log.Debug().Err(err).Str("key", cacheKey).Msg("cache write failed")
			}
		}
	}
	return list, nil
}
