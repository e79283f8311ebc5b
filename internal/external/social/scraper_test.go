package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

const timelineHTML = `
<html><body>
<article class="timeline__item">
	<div class="timeline__item__content">$贵州茅台(SH600519)$ 继续加仓，长期看好</div>
	<a class="timeline__item__link" href="/value_hunter/post/1001"></a>
	<time datetime="2026-08-23T10:15:00+08:00"></time>
</article>
<article class="timeline__item">
	<div class="timeline__item__content">Trimming SZ000858 after the run-up</div>
	<a class="timeline__item__link" href="https://xueqiu.com/value_hunter/post/1002"></a>
	<time datetime="2026-08-23T09:00:00+08:00"></time>
</article>
<article class="timeline__item">
	<div class="timeline__item__content"></div>
</article>
<article class="timeline__item">
	<div class="timeline__item__content">Macro looks shaky but no positions changed</div>
	<a class="timeline__item__link" href="/value_hunter/post/1003"></a>
</article>
</body></html>`

func TestParseTimeline(t *testing.T) {
	posts, err := ParseTimeline(strings.NewReader(timelineHTML), "value_hunter", "https://xueqiu.com")
	require.NoError(t, err)
	require.Len(t, posts, 3, "empty posts are skipped")

	first := posts[0]
	assert.Equal(t, "value_hunter", first.Source)
	assert.Contains(t, first.Content, "600519")
	assert.Equal(t, "https://xueqiu.com/value_hunter/post/1001", first.URL, "relative links are resolved")

	want := time.Date(2026, 8, 23, 10, 15, 0, 0, time.FixedZone("CST", 8*3600))
	assert.True(t, first.PostedAt.Equal(want))

	// Absolute links pass through untouched
	assert.Equal(t, "https://xueqiu.com/value_hunter/post/1002", posts[1].URL)

	// Missing timestamp falls back to ingestion time
	assert.False(t, posts[2].PostedAt.IsZero())
}

func TestFetchPosts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/u/value_hunter", r.URL.Path)
		_, _ = w.Write([]byte(timelineHTML))
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Social:    config.SocialConfig{BaseURL: server.URL},
	}
	log := logger.New(cfg)
	scraper := NewScraper(cfg, httputil.New(cfg, log).DisableRetry(), log)

	posts, err := scraper.FetchPosts(context.Background(), "value_hunter")
	require.NoError(t, err)
	assert.Len(t, posts, 3)
}

func TestFetchPosts_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer server.Close()

	cfg := &config.Config{
		Env:       "development",
		LogLevel:  "error",
		LogFormat: "json",
		Social:    config.SocialConfig{BaseURL: server.URL},
	}
	log := logger.New(cfg)
	scraper := NewScraper(cfg, httputil.New(cfg, log).DisableRetry(), log)

	_, err := scraper.FetchPosts(context.Background(), "ghost")
	assert.Error(t, err)
}

func TestToSignal(t *testing.T) {
	postedAt := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)

	post := Post{
		Source:   "value_hunter",
		URL:      "https://xueqiu.com/value_hunter/post/1001",
		Content:  "$贵州茅台(SH600519)$ 继续加仓",
		PostedAt: postedAt,
	}

	signal, ok := ToSignal(post)
	require.True(t, ok)
	assert.Equal(t, "value_hunter", signal.Source)
	assert.Equal(t, contracts.StanceBullish, signal.Stance)
	assert.Equal(t, []string{"600519"}, signal.Symbols)
	assert.True(t, signal.PostedAt.Equal(postedAt))
	require.NoError(t, signal.Validate())
}

func TestToSignal_NoSymbols(t *testing.T) {
	post := Post{
		Source:  "value_hunter",
		Content: "Great quarter for the industry overall",
	}

	_, ok := ToSignal(post)
	assert.False(t, ok, "posts without symbol mentions produce no signal")
}
