package websearch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<html><body>
<div class="serp__results">
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fflu&amp;rut=abc">Influenza overview</a>
    <a class="result__snippet" href="https://example.org/flu">Influenza is a viral infection that attacks the respiratory system.</a>
  </div>
  <div class="result results_links results_links_deep web-result">
    <a class="result__a" href="https://example.com/fever">Fever management</a>
    <a class="result__snippet" href="https://example.com/fever">Most fevers resolve on their own within a few days.</a>
  </div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	snippets, err := parseResults(fixturePage, 10)
	require.NoError(t, err)
	require.Len(t, snippets, 2)

	assert.Equal(t, "https://example.org/flu", snippets[0].URL)
	assert.Contains(t, snippets[0].Text, "respiratory system")
	assert.Equal(t, "https://example.com/fever", snippets[1].URL)
}

func TestParseResultsHonorsLimit(t *testing.T) {
	snippets, err := parseResults(fixturePage, 1)
	require.NoError(t, err)
	assert.Len(t, snippets, 1)
}

func TestResolveRedirect(t *testing.T) {
	assert.Equal(t, "https://example.org/flu",
		resolveRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fflu&rut=abc"))
	assert.Equal(t, "https://plain.example.com",
		resolveRedirect("https://plain.example.com"))
}
