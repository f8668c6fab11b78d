package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/newsbot360/newsbot/internal/processor"
)

const (
	insertBatchSize = 500
	// 查询已抓取 ID 时 IN 列表的分片大小
	idChunkSize     = 1000
	titleMaxRunes   = 1024
)

// Feed 描述一个已配置的订阅源，流水线只读
type Feed struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	URL       string    `gorm:"size:2048;uniqueIndex;not null" json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}

type Article struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	FeedID uint   `gorm:"index;not null" json:"feedId"`
	Title  string `gorm:"size:1024" json:"title"`

	// Link 是自然键，全表唯一
	Link        string            `gorm:"size:2048;uniqueIndex;not null" json:"link"`
	PublishedAt *time.Time        `gorm:"index" json:"publishedAt"`
	Summary     *string           `gorm:"type:text" json:"summary"`
	Extra       datatypes.JSONMap `json:"extra,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ArticleText 保存一篇文章抓取到的正文；article_id 与 link 均唯一（一对一）
type ArticleText struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	ArticleID uint    `gorm:"uniqueIndex;not null" json:"articleId"`
	Article   Article `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Link      string  `gorm:"size:2048;uniqueIndex;not null" json:"link"`
	Content   string  `gorm:"type:text;not null" json:"content"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
	log   zerolog.Logger
}

// NewStore 连接 PostgreSQL；redisAddr 为空时不启用缓存
func NewStore(dsn, redisAddr string, log zerolog.Logger) (*Store, error) {
	var rdb *redis.Client
	if redisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: redisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis ping failed")
		}
	}
	return Open(postgres.Open(dsn), rdb, log)
}

// Open 使用任意 gorm 方言打开存储并迁移表结构
func Open(dialector gorm.Dialector, rdb *redis.Client, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("storage: open: %w", err)
	}
	if err := db.AutoMigrate(&Feed{}, &Article{}, &ArticleText{}); err != nil {
		return nil, fmt.Errorf("storage: migrate: %w", err)
	}
	return &Store{DB: db, Redis: rdb, log: log}, nil
}

// Close 释放数据库与 Redis 连接
func (s *Store) Close() error {
	var errs []error
	if sqlDB, err := s.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if s.Redis != nil {
		errs = append(errs, s.Redis.Close())
	}
	return errors.Join(errs...)
}

// EnsureFeed 确保某个订阅源存在（按 URL 幂等）
func (s *Store) EnsureFeed(ctx context.Context, name, url string) (*Feed, error) {
	f := &Feed{}
	err := s.DB.WithContext(ctx).
		Where(Feed{URL: url}).
		Attrs(Feed{Name: name}).
		FirstOrCreate(f).Error
	if err != nil {
		return nil, fmt.Errorf("storage: ensure feed %s: %w", url, err)
	}
	return f, nil
}

// ListFeeds 返回所有订阅源
func (s *Store) ListFeeds(ctx context.Context) ([]Feed, error) {
	var feeds []Feed
	if err := s.DB.WithContext(ctx).Order("id ASC").Find(&feeds).Error; err != nil {
		return nil, fmt.Errorf("storage: list feeds: %w", err)
	}
	return feeds, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	s = strings.TrimSpace(s)
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// UpsertArticles 批量写入文章，以 link 为冲突键，已存在的行保持不变。
// 返回实际新增的行数
func (s *Store) UpsertArticles(ctx context.Context, feedID uint, items []processor.ProcessedArticle) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}

	rows := make([]Article, 0, len(items))
	for _, it := range items {
		rows = append(rows, Article{
			FeedID:      feedID,
			Title:       truncateRunesDB(toValidUTF8(it.Title), titleMaxRunes),
			Link:        it.Link,
			PublishedAt: it.PublishedAt,
			Summary:     validSummary(it.Summary),
			Extra:       datatypes.JSONMap(it.Extra),
		})
	}

	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link"}},
			DoNothing: true,
		}).
		CreateInBatches(&rows, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: upsert articles: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func validSummary(s *string) *string {
	if s == nil {
		return nil
	}
	v := toValidUTF8(*s)
	return &v
}

// CountArticles 统计某个订阅源的文章数；feedID 为 0 时统计全部
func (s *Store) CountArticles(ctx context.Context, feedID uint) (int64, error) {
	var n int64
	q := s.DB.WithContext(ctx).Model(&Article{})
	if feedID != 0 {
		q = q.Where("feed_id = ?", feedID)
	}
	if err := q.Count(&n).Error; err != nil {
		return 0, fmt.Errorf("storage: count articles: %w", err)
	}
	return n, nil
}

// ListArticlesByFeed 返回某个订阅源全部文章的 id 与 link
func (s *Store) ListArticlesByFeed(ctx context.Context, feedID uint) ([]Article, error) {
	var list []Article
	err := s.DB.WithContext(ctx).
		Select("id", "link").
		Where("feed_id = ?", feedID).
		Order("id ASC").
		Find(&list).Error
	if err != nil {
		return nil, fmt.Errorf("storage: list articles of feed %d: %w", feedID, err)
	}
	return list, nil
}

// ScrapedArticleIDs 返回给定 ID 中已有正文记录的集合
func (s *Store) ScrapedArticleIDs(ctx context.Context, ids []uint) (map[uint]struct{}, error) {
	done := make(map[uint]struct{})
	for start := 0; start < len(ids); start += idChunkSize {
		end := min(start+idChunkSize, len(ids))
		var found []uint
		err := s.DB.WithContext(ctx).
			Model(&ArticleText{}).
			Where("article_id IN ?", ids[start:end]).
			Pluck("article_id", &found).Error
		if err != nil {
			return nil, fmt.Errorf("storage: load scraped ids: %w", err)
		}
		for _, id := range found {
			done[id] = struct{}{}
		}
	}
	return done, nil
}

// UpsertArticleTexts 以 link 为冲突键批量写入正文；重跑时覆盖正文内容
func (s *Store) UpsertArticleTexts(ctx context.Context, texts []ArticleText) (int64, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	for i := range texts {
		texts[i].Content = toValidUTF8(texts[i].Content)
	}
	res := s.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link"}},
			DoUpdates: clause.AssignmentColumns([]string{"article_id", "content", "updated_at"}),
		}).
		CreateInBatches(&texts, insertBatchSize)
	if res.Error != nil {
		return 0, fmt.Errorf("storage: upsert article texts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CountArticleTexts 统计正文记录数
func (s *Store) CountArticleTexts(ctx context.Context) (int64, error) {
	var n int64
	if err := s.DB.WithContext(ctx).Model(&ArticleText{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("storage: count article texts: %w", err)
	}
	return n, nil
}

// GetArticleText 按文章 ID 读取正文，不存在时返回 gorm.ErrRecordNotFound
func (s *Store) GetArticleText(ctx context.Context, articleID uint) (*ArticleText, error) {
	var t ArticleText
	if err := s.DB.WithContext(ctx).Where("article_id = ?", articleID).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}
