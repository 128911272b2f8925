package naver_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/market-classifier/internal/naver"
)

var fixedNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

type apiItem struct {
	Title        string `json:"title"`
	OriginalLink string `json:"originallink"`
	Link         string `json:"link"`
	Description  string `json:"description"`
	PubDate      string `json:"pubDate"`
}

func item(n int, age time.Duration) apiItem {
	return apiItem{
		Title:        fmt.Sprintf("<b>Samsung</b> news &quot;%d&quot;", n),
		OriginalLink: fmt.Sprintf("https://www.example.co.kr/news/%d", n),
		Link:         fmt.Sprintf("https://n.news.naver.com/%d", n),
		Description:  "HBM &amp; foundry <b>update</b>",
		PubDate:      fixedNow.Add(-age).In(time.FixedZone("KST", 9*3600)).Format(time.RFC1123Z),
	}
}

func newClient(t *testing.T, url string) *naver.Client {
	t.Helper()
	c, err := naver.NewClient(naver.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     url,
		Backoff:      time.Millisecond,
	}, nil, naver.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return c
}

func TestNewClient_MissingCredentials(t *testing.T) {
	_, err := naver.NewClient(naver.Config{ClientID: "id"}, nil)
	require.ErrorIs(t, err, naver.ErrMissingCredentials)
}

func TestSearchNews_PagesDedupsAndStopsAtCutoff(t *testing.T) {
	pages := map[int][]apiItem{
		1: {item(1, time.Hour), item(1, time.Hour), item(2, 2*time.Hour)},
		3: {item(3, 3*time.Hour), item(4, 40*24*time.Hour), item(5, time.Hour)},
	}
	var calls atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "id", r.Header.Get("X-Naver-Client-Id"))
		assert.Equal(t, "secret", r.Header.Get("X-Naver-Client-Secret"))
		assert.Equal(t, "date", r.URL.Query().Get("sort"))
		assert.Equal(t, "2", r.URL.Query().Get("display"))

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		_ = json.NewEncoder(w).Encode(map[string]any{"items": pages[start]})
	}))
	defer srv.Close()

	items, err := newClient(t, srv.URL).SearchNews(context.Background(), "Samsung", "삼성전자",
		naver.SearchOptions{Display: 2, MaxItems: 10})
	require.NoError(t, err)

	require.Len(t, items, 3)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, `Samsung news "1"`, items[0].Title)
	assert.Equal(t, "HBM & foundry update", items[0].Description)
	assert.Equal(t, "example.co.kr", items[0].Press)
	assert.Equal(t, "Samsung", items[0].Company)
	assert.Equal(t, "https://www.example.co.kr/news/1|2026-02-10|samsung news \"1\"", items[0].UID)
}

func TestSearchNews_MaxItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []apiItem{item(1, time.Hour), item(2, time.Hour), item(3, time.Hour)},
		})
	}))
	defer srv.Close()

	items, err := newClient(t, srv.URL).SearchNews(context.Background(), "LG", "LG전자",
		naver.SearchOptions{MaxItems: 2})
	require.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestSearchNews_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []apiItem{}})
	}))
	defer srv.Close()

	items, err := newClient(t, srv.URL).SearchNews(context.Background(), "SK", "SK하이닉스", naver.SearchOptions{MaxItems: 5})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestSearchNews_UnauthorizedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.Error(w, `{"errorCode":"024"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := newClient(t, srv.URL).SearchNews(context.Background(), "SK", "SK하이닉스", naver.SearchOptions{MaxItems: 5})
	require.ErrorIs(t, err, naver.ErrAPIStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestUID(t *testing.T) {
	pub := time.Date(2026, 2, 3, 8, 41, 0, 0, time.FixedZone("KST", 9*3600))
	assert.Equal(t, "https://a.com/x|2026-02-02|hbm title", naver.UID("https://A.com/x", pub, "HBM Title"))
}
