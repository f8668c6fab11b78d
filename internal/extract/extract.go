package extract

import (
	"bytes"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// readability 抽出的正文低于该长度时认为只拿到了标题/元信息，改走段落兜底
const minReadableChars = 200

// Extractor 把原始页面转换为正文文本；失败时返回空串
type Extractor interface {
	Extract(body []byte, pageURL *url.URL) string
}

// Readability 先用 goquery 去掉导航、脚本等非正文节点，再交给 go-readability 抽取正文
type Readability struct {
	strict *bluemonday.Policy
}

func NewReadability() *Readability {
	return &Readability{strict: bluemonday.StrictPolicy()}
}

func (r *Readability) Extract(body []byte, pageURL *url.URL) string {
	raw := bytes.TrimSpace(body)
	if len(raw) == 0 {
		return ""
	}
	if !bytes.Contains(raw, []byte("<")) {
		return normalizeLines(string(raw))
	}

	cleaned := string(raw)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err == nil {
		doc.Find("script, style, noscript, iframe, embed, object, nav, aside, footer, form").Remove()
		doc.Find("[class*='share'], [class*='social'], [class*='comment'], [id*='comment']").Remove()
		if h, err := doc.Html(); err == nil && h != "" {
			cleaned = h
		}
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), pageURL)
	if err == nil {
		var buf strings.Builder
		if err := article.RenderText(&buf); err == nil {
			text := normalizeLines(buf.String())
			if len([]rune(text)) >= minReadableChars {
				return text
			}
		}
	}

	return r.paragraphs(cleaned)
}

// paragraphs 兜底：按标题与段落拼接，段落之间空一行
func (r *Readability) paragraphs(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return normalizeLines(r.strict.Sanitize(html))
	}

	var parts []string
	doc.Find("h1, h2, h3, p, li").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return normalizeLines(r.strict.Sanitize(html))
	}
	return strings.Join(parts, "\n\n")
}

// normalizeLines 去掉行尾空白并合并多余的空行
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, l)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
