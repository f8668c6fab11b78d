package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/newsbot360/newsbot/internal/processor"
)

func newTestStore(t *testing.T, rdb *redis.Client) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "newsbot.db")
	s, err := Open(sqlite.Open(path), rdb, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func strPtr(s string) *string { return &s }

func TestUpsertArticlesIgnoresDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	feed, err := s.EnsureFeed(ctx, "Le Monde", "https://example.com/rss")
	require.NoError(t, err)

	pub := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	batch := []processor.ProcessedArticle{
		{Title: "A", Link: "https://example.com/a", PublishedAt: &pub, Summary: strPtr("sa"),
			Extra: map[string]any{"guid": "a"}},
		{Title: "B", Link: "https://example.com/b"},
	}

	inserted, err := s.UpsertArticles(ctx, feed.ID, batch)
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	// 第二次写入同一批：不新增行，也不覆盖已有行
	batch[0].Title = "A modifié"
	inserted, err = s.UpsertArticles(ctx, feed.ID, batch)
	require.NoError(t, err)
	assert.EqualValues(t, 0, inserted)

	n, err := s.CountArticles(ctx, feed.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var a Article
	require.NoError(t, s.DB.Where("link = ?", "https://example.com/a").First(&a).Error)
	assert.Equal(t, "A", a.Title)
	require.NotNil(t, a.PublishedAt)
	assert.True(t, a.PublishedAt.Equal(pub))
	assert.Equal(t, "a", a.Extra["guid"])
}

func TestUpsertArticlesEmptyBatchIsNoop(t *testing.T) {
	s := newTestStore(t, nil)
	inserted, err := s.UpsertArticles(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
}

func TestEnsureFeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)

	f1, err := s.EnsureFeed(ctx, "Feed", "https://example.com/rss")
	require.NoError(t, err)
	f2, err := s.EnsureFeed(ctx, "Feed renamed", "https://example.com/rss")
	require.NoError(t, err)
	assert.Equal(t, f1.ID, f2.ID)

	feeds, err := s.ListFeeds(ctx)
	require.NoError(t, err)
	assert.Len(t, feeds, 1)
}

func TestArticleTextsLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, nil)
	feed, err := s.EnsureFeed(ctx, "Feed", "https://example.com/rss")
	require.NoError(t, err)

	_, err = s.UpsertArticles(ctx, feed.ID, []processor.ProcessedArticle{
		{Title: "A", Link: "https://example.com/a"},
		{Title: "B", Link: "https://example.com/b"},
		{Title: "C", Link: "https://example.com/c"},
	})
	require.NoError(t, err)

	articles, err := s.ListArticlesByFeed(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, articles, 3)

	n, err := s.UpsertArticleTexts(ctx, []ArticleText{
		{ArticleID: articles[0].ID, Link: articles[0].Link, Content: "premier contenu"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	ids := []uint{articles[0].ID, articles[1].ID, articles[2].ID}
	done, err := s.ScrapedArticleIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, done, 1)
	assert.Contains(t, done, articles[0].ID)

	// 同一 link 重跑时替换正文，不新增行
	_, err = s.UpsertArticleTexts(ctx, []ArticleText{
		{ArticleID: articles[0].ID, Link: articles[0].Link, Content: "contenu remplacé"},
	})
	require.NoError(t, err)

	total, err := s.CountArticleTexts(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	got, err := s.GetArticleText(ctx, articles[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "contenu remplacé", got.Content)
}

func TestScrapedArticleIDsEmptyInput(t *testing.T) {
	s := newTestStore(t, nil)
	done, err := s.ScrapedArticleIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestListArticlesUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	ctx := context.Background()
	s := newTestStore(t, rdb)

	feed, err := s.EnsureFeed(ctx, "Feed", "https://example.com/rss")
	require.NoError(t, err)
	_, err = s.UpsertArticles(ctx, feed.ID, []processor.ProcessedArticle{
		{Title: "A", Link: "https://example.com/a"},
	})
	require.NoError(t, err)

	list, err := s.ListArticles(ctx, feed.ID, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, mr.Exists(fmt.Sprintf("articles:list:%d:10", feed.ID)))

	// 新增的文章在缓存过期前不可见
	_, err = s.UpsertArticles(ctx, feed.ID, []processor.ProcessedArticle{
		{Title: "B", Link: "https://example.com/b"},
	})
	require.NoError(t, err)
	list, err = s.ListArticles(ctx, feed.ID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	mr.FastForward(listCacheTTL + time.Second)
	list, err = s.ListArticles(ctx, feed.ID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestTruncateRunesDB(t *testing.T) {
	assert.Equal(t, "héll", truncateRunesDB("  héllo ", 4))
	assert.Equal(t, "court", truncateRunesDB("court", 10))
	assert.Equal(t, "", truncateRunesDB("x", 0))
	assert.Equal(t, "a\uFFFDb", toValidUTF8("a\xffb"))
}
