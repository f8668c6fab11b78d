package processor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsbot360/newsbot/internal/collector"
)

func TestDedupLastOccurrenceWins(t *testing.T) {
	items := []ProcessedArticle{
		{Title: "Title 1", Link: "https://example.com/1"},
		{Title: "Title 2", Link: "https://example.com/2"},
		{Title: "Title 1 updated", Link: "https://example.com/1"},
	}

	out := Dedup(items)
	require.Len(t, out, 2)
	// 链接 1 保持第一次出现的位置，但内容来自最后一次
	assert.Equal(t, "https://example.com/1", out[0].Link)
	assert.Equal(t, "Title 1 updated", out[0].Title)
	assert.Equal(t, "Title 2", out[1].Title)
}

func TestDedupEmptyAndUnique(t *testing.T) {
	assert.Empty(t, Dedup(nil))

	items := []ProcessedArticle{{Link: "a"}, {Link: "b"}, {Link: "c"}}
	assert.Equal(t, items, Dedup(items))
}

func TestNormalizeDropsEntriesWithoutLink(t *testing.T) {
	entries := []collector.Entry{
		{Title: " A ", Link: " https://example.com/a ", Summary: "s"},
		{Title: "no link"},
		{Title: "blank link", Link: "   "},
		{Title: "desc only", Link: "https://example.com/b", Description: "d"},
	}

	out := Normalize(entries)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, "https://example.com/a", out[0].Link)
	require.NotNil(t, out[0].Summary)
	assert.Equal(t, "s", *out[0].Summary)
	require.NotNil(t, out[1].Summary, "summary should fall back to Description")
	assert.Equal(t, "d", *out[1].Summary)
}

func TestNormalizeLeavesSummaryAbsent(t *testing.T) {
	out := Normalize([]collector.Entry{{Link: "https://example.com/x", Summary: "  "}})
	require.Len(t, out, 1)
	assert.Nil(t, out[0].Summary)
	assert.Nil(t, out[0].Extra, "extra should be nil without guid/authors/categories")
}

func TestResolvePublishedAtPriority(t *testing.T) {
	cases := []struct {
		name  string
		entry collector.Entry
		want  *time.Time
	}{
		{
			name:  "published wins",
			entry: collector.Entry{Published: "2024-01-02T10:00:00Z", Updated: "2024-05-05T10:00:00Z"},
			want:  ptrTime(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:  "unparseable published falls through to updated",
			entry: collector.Entry{Published: "pas une date", Updated: "2024-05-05T10:00:00Z"},
			want:  ptrTime(time.Date(2024, 5, 5, 10, 0, 0, 0, time.UTC)),
		},
		{
			name:  "pubDate only",
			entry: collector.Entry{PubDate: "Mon, 02 Jan 2006 15:04:05 +0000"},
			want:  ptrTime(time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)),
		},
		{
			name:  "nothing parses",
			entry: collector.Entry{Published: "???", Updated: "", PubDate: "demain"},
		},
		{
			name:  "no fields",
			entry: collector.Entry{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ResolvePublishedAt(c.entry)
			if c.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, got.Equal(*c.want), "got %v, want %v", *got, *c.want)
		})
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
