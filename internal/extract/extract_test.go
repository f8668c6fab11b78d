package extract

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadabilityExtractsMainBody(t *testing.T) {
	para := strings.Repeat("Le gouvernement a présenté mardi un nouveau projet de loi sur l'énergie. ", 8)
	html := `<html><head><title>Article</title><script>var x = 1;</script></head><body>
<nav><a href="/">Accueil</a><a href="/monde">Monde</a></nav>
<article>
  <h1>Un titre</h1>
  <p>` + para + `</p>
  <p>` + para + `</p>
  <p>` + para + `</p>
</article>
<footer>Mentions légales</footer>
</body></html>`

	u, _ := url.Parse("https://example.com/article")
	text := NewReadability().Extract([]byte(html), u)

	assert.Contains(t, text, "projet de loi")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "Mentions légales")
	assert.GreaterOrEqual(t, len([]rune(text)), 400)
}

func TestReadabilityFallsBackToParagraphs(t *testing.T) {
	html := `<html><body><div><p>Court.</p><p>Deux.</p></div></body></html>`
	text := NewReadability().Extract([]byte(html), nil)
	assert.Contains(t, text, "Court.")
	assert.Contains(t, text, "Deux.")
}

func TestReadabilityEmptyAndPlainText(t *testing.T) {
	r := NewReadability()
	assert.Equal(t, "", r.Extract(nil, nil))
	assert.Equal(t, "texte brut\n\nsuite", r.Extract([]byte("  texte   brut \n\n\n suite  "), nil))
}

func TestNormalizeLines(t *testing.T) {
	assert.Equal(t, "a b\n\nc", normalizeLines("a  b \r\n\r\n\r\n c\n\n"))
}
