package social

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/minquant/stocklens/internal/contracts"
	"github.com/minquant/stocklens/pkg/config"
	"github.com/minquant/stocklens/pkg/httputil"
	"github.com/minquant/stocklens/pkg/logger"
)

// Scraper fetches and parses guru posts from the social feed.
// All social-feed HTTP calls go through this scraper.
type Scraper struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewScraper creates a new social feed scraper
func NewScraper(cfg *config.Config, httpClient *httputil.Client, log *logger.Logger) *Scraper {
	return &Scraper{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.Social.BaseURL,
	}
}

// Post is one raw post pulled off a guru's timeline
type Post struct {
	Source   string
	URL      string
	Content  string
	PostedAt time.Time
}

// FetchPosts fetches the recent timeline of one guru handle
func (s *Scraper) FetchPosts(ctx context.Context, handle string) ([]Post, error) {
	fullURL := fmt.Sprintf("%s/u/%s", s.baseURL, handle)

	resp, err := s.httpClient.Get(ctx, fullURL)
	if err != nil {
		return nil, fmt.Errorf("fetch timeline for %s: %w", handle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("timeline for %s returned status %d", handle, resp.StatusCode)
	}

	posts, err := ParseTimeline(resp.Body, handle, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse timeline for %s: %w", handle, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"handle": handle,
		"posts":  len(posts),
	}).Debug("Fetched guru timeline")

	return posts, nil
}

// ParseTimeline extracts posts from a timeline HTML document
func ParseTimeline(r io.Reader, handle, baseURL string) ([]Post, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}

	var posts []Post
	doc.Find("article.timeline__item").Each(func(i int, sel *goquery.Selection) {
		content := strings.TrimSpace(sel.Find(".timeline__item__content").Text())
		if content == "" {
			return
		}

		post := Post{
			Source:  handle,
			Content: content,
		}

		if href, ok := sel.Find("a.timeline__item__link").Attr("href"); ok {
			if strings.HasPrefix(href, "/") {
				href = baseURL + href
			}
			post.URL = href
		}

		if ts, ok := sel.Find("time").Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, ts); err == nil {
				post.PostedAt = t
			}
		}
		if post.PostedAt.IsZero() {
			post.PostedAt = time.Now()
		}

		posts = append(posts, post)
	})

	return posts, nil
}

// ToSignal classifies a post and extracts its mentioned symbols. Posts
// mentioning no symbol produce no signal.
func ToSignal(post Post) (*contracts.GuruSignal, bool) {
	symbols := ExtractSymbols(post.Content)
	if len(symbols) == 0 {
		return nil, false
	}

	return &contracts.GuruSignal{
		Source:   post.Source,
		PostURL:  post.URL,
		Content:  post.Content,
		Stance:   Classify(post.Content),
		Symbols:  symbols,
		PostedAt: post.PostedAt,
	}, true
}
