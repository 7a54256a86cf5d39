package news

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

func TestStripHTML(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "no markup here", "no markup here"},
		{"tags removed", "<p>Hello <b>world</b></p>", "Hello world"},
		{"nested markup", "<div><a href=\"x\">link</a> text</div>", "link text"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"whitespace collapsed", "  <p>a</p>\n<p>b</p>  ", "a b"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripHTML(tc.in); got != tc.want {
				t.Errorf("stripHTML(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFeedFallsBackToPlaceholder(t *testing.T) {
	a := NewAggregator(nil, nil, nil)

	articles := a.Feed(context.Background())
	if len(articles) != 1 {
		t.Fatalf("expected single placeholder article, got %d", len(articles))
	}
	if articles[0].Title != "API Error: Could not fetch environmental news" {
		t.Errorf("unexpected placeholder title: %q", articles[0].Title)
	}
	if articles[0].ImageURL != "https://via.placeholder.com/300" {
		t.Errorf("unexpected placeholder image: %q", articles[0].ImageURL)
	}
}

func TestFetchMapsUpstreamArticles(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "environment" {
			t.Errorf("query q = %q, want environment", got)
		}
		if got := r.URL.Query().Get("pageSize"); got != "12" {
			t.Errorf("query pageSize = %q, want 12", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "ok",
			"articles": []map[string]interface{}{
				{
					"title":       "Reforestation milestone",
					"description": "<p>A <b>big</b> win</p>",
					"url":         "https://example.com/article",
					"urlToImage":  "https://example.com/img.jpg",
					"publishedAt": "2026-08-01T00:00:00Z",
					"source":      map[string]string{"name": "Example Times"},
				},
				{
					"title": "",
				},
			},
		})
	}))
	defer srv.Close()

	db := setupTestDB(t)
	cfgSvc := appconfigs.NewService(db)
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"news_api": json.RawMessage(`{"enable":true,"endpoint":"` + srv.URL + `","api_key":"test-key"}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}

	a := NewAggregator(cfgSvc, nil, nil)
	articles, err := a.fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	if len(articles) != 1 {
		t.Fatalf("expected 1 usable article, got %d", len(articles))
	}
	got := articles[0]
	if got.Title != "Reforestation milestone" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Description != "A big win" {
		t.Errorf("description not stripped: %q", got.Description)
	}
	if got.Source != "Example Times" {
		t.Errorf("source = %q", got.Source)
	}
	if got.ImageURL != "https://example.com/img.jpg" {
		t.Errorf("image url = %q", got.ImageURL)
	}
}

func TestFetchUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	db := setupTestDB(t)
	cfgSvc := appconfigs.NewService(db)
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"news_api": json.RawMessage(`{"enable":true,"endpoint":"` + srv.URL + `","api_key":"test-key"}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}

	a := NewAggregator(cfgSvc, nil, nil)
	if _, err := a.fetch(context.Background()); err == nil {
		t.Errorf("expected error on non-200 upstream")
	}

	articles := a.Feed(context.Background())
	if len(articles) != 1 || articles[0].Title != "API Error: Could not fetch environmental news" {
		t.Errorf("Feed should degrade to placeholder on upstream failure")
	}
}
