package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/fetcher"
)

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func (m *countingMetrics) RecordArticleFetch(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.counts == nil {
		m.counts = map[string]int{}
	}
	m.counts[result]++
}

const articlePage = `<html><body>
<header>Site header</header>
<nav>Home | World</nav>
<div class="sidebar">Most read</div>
<div id="articleBody">Samsung   expands the
 global foldable smartphone market.</div>
<div class="ad">Buy now</div>
<footer>Copyright</footer>
</body></html>`

func TestExtract_SelectorOrder(t *testing.T) {
	text := fetcher.Extract(articlePage, nil, 4000)
	assert.Equal(t, "Samsung expands the global foldable smartphone market.", text)
}

func TestExtract_JoinsAllMatchingNodes(t *testing.T) {
	page := `<html><body><p class="content">first</p><p class="content">second</p></body></html>`
	assert.Equal(t, "first second", fetcher.Extract(page, nil, 4000))
}

func TestExtract_FallsBackToBody(t *testing.T) {
	page := `<html><body><header>nav</header><span>hi</span></body></html>`
	assert.Contains(t, fetcher.Extract(page, nil, 4000), "hi")
}

func TestExtract_Truncates(t *testing.T) {
	page := `<html><body><article>` + strings.Repeat("가", 50) + `</article></body></html>`
	assert.Equal(t, strings.Repeat("가", 10), fetcher.Extract(page, nil, 10))
}

func TestFetchText(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.UserAgent()
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	metrics := &countingMetrics{}
	f := fetcher.New(fetcher.Config{}, nil, metrics)
	ctx := context.Background()

	assert.Equal(t, "Samsung expands the global foldable smartphone market.", f.FetchText(ctx, srv.URL+"/a"))
	assert.Equal(t, fetcher.DefaultUserAgent, gotUA)
	assert.Empty(t, f.FetchText(ctx, srv.URL+"/missing"))
	assert.Empty(t, f.FetchText(ctx, "ftp://example.com/file"))
	assert.Empty(t, f.FetchText(ctx, "not a url"))

	assert.Equal(t, 1, metrics.counts[fetcher.ResultOK])
	assert.Equal(t, 1, metrics.counts[fetcher.ResultError])
}
