package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	appcfg "github.com/ecosphere/core/internal/config"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
	pkgredis "github.com/ecosphere/core/internal/pkg/redis"
	"github.com/ecosphere/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

const feedCacheKey = "eco:news:feed"

// Aggregator proxies the external environmental news API. The upstream is
// rate-limited, so responses are cached in redis and refreshed by cron rather
// than per request.
type Aggregator struct {
	cfgSvc *appconfigs.Service
	rc     *pkgredis.Client
	logger *zap.Logger
	client *http.Client
}

func NewAggregator(cfgSvc *appconfigs.Service, rc *pkgredis.Client, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		cfgSvc: cfgSvc,
		rc:     rc,
		logger: logger,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// GET /news/feed
func (h *Handler) feed(c *gin.Context) {
	response.OK(c, h.aggregator.Feed(c.Request.Context()))
}

// Feed returns the cached feed, fetching on a cold cache. Failures degrade to
// the placeholder article, never to an error.
func (a *Aggregator) Feed(ctx context.Context) []FeedArticle {
	if a.rc != nil {
		if raw, err := a.rc.Get(ctx, feedCacheKey); err == nil && raw != "" {
			var cached []FeedArticle
			if json.Unmarshal([]byte(raw), &cached) == nil && len(cached) > 0 {
				return cached
			}
		}
	}

	articles, err := a.fetch(ctx)
	if err != nil {
		if a.logger != nil {
			a.logger.Warn("news feed fetch failed", zap.Error(err))
		}
		return placeholderFeed()
	}

	a.cache(ctx, articles)
	return articles
}

// Refresh re-fetches the feed and rewrites the cache. Used by cron; a failed
// fetch leaves the previous cache entry in place.
func (a *Aggregator) Refresh(ctx context.Context) error {
	articles, err := a.fetch(ctx)
	if err != nil {
		return err
	}
	a.cache(ctx, articles)
	return nil
}

func (a *Aggregator) cache(ctx context.Context, articles []FeedArticle) {
	if a.rc == nil || len(articles) == 0 {
		return
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return
	}
	ttl := time.Duration(a.options().CacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	if err := a.rc.Set(ctx, feedCacheKey, string(data), ttl); err != nil && a.logger != nil {
		a.logger.Warn("news feed cache write failed", zap.Error(err))
	}
}

func (a *Aggregator) options() appcfg.NewsAPIOptions {
	if a.cfgSvc == nil {
		return appcfg.NewsAPIOptions{}
	}
	cfg, err := a.cfgSvc.Get()
	if err != nil || cfg == nil {
		return appcfg.NewsAPIOptions{}
	}
	return cfg.NewsAPI
}

type upstreamFeedResponse struct {
	Status   string `json:"status"`
	Articles []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		URLToImage  string `json:"urlToImage"`
		PublishedAt string `json:"publishedAt"`
		Source      struct {
			Name string `json:"name"`
		} `json:"source"`
	} `json:"articles"`
}

func (a *Aggregator) fetch(ctx context.Context) ([]FeedArticle, error) {
	opts := a.options()
	if !opts.Enable {
		return nil, fmt.Errorf("news feed is disabled")
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("news api key is not configured")
	}

	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = "https://newsapi.org/v2/everything"
	}
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		query = "environment"
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 12
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}
	values := u.Query()
	values.Set("q", query)
	values.Set("apiKey", apiKey)
	values.Set("pageSize", strconv.Itoa(pageSize))
	u.RawQuery = values.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("news api returned status %d", resp.StatusCode)
	}

	var parsed upstreamFeedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed.Articles) == 0 {
		return nil, fmt.Errorf("news api returned no articles")
	}

	articles := make([]FeedArticle, 0, len(parsed.Articles))
	for _, item := range parsed.Articles {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		articles = append(articles, FeedArticle{
			Title:       title,
			Description: stripHTML(item.Description),
			URL:         strings.TrimSpace(item.URL),
			ImageURL:    strings.TrimSpace(item.URLToImage),
			Source:      strings.TrimSpace(item.Source.Name),
			PublishedAt: strings.TrimSpace(item.PublishedAt),
		})
	}
	if len(articles) == 0 {
		return nil, fmt.Errorf("news api returned no usable articles")
	}
	return articles, nil
}

// placeholderFeed is what clients see while the upstream is unreachable or
// unconfigured.
func placeholderFeed() []FeedArticle {
	return []FeedArticle{
		{
			Title:       "API Error: Could not fetch environmental news",
			Description: "Please check your API key and connection. This is a placeholder.",
			ImageURL:    "https://via.placeholder.com/300",
		},
	}
}

// stripHTML flattens markup in upstream descriptions to plain text.
func stripHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.ContainsAny(raw, "<&") {
		return raw
	}

	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
