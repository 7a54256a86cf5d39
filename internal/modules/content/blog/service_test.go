package blog

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
	"github.com/ecosphere/core/internal/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func createPost(t *testing.T, svc *Service, title, category string, tags ...string) *models.BlogPostModel {
	t.Helper()
	p := &models.BlogPostModel{
		Title:      title,
		Text:       "## " + title + "\n\nsome body text",
		AuthorID:   "author-1",
		AuthorName: "Author",
		Category:   category,
		Tags:       models.StringArray(tags),
	}
	if err := svc.Create(p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

func TestCreateAppliesDefaultTags(t *testing.T) {
	svc := NewService(setupTestDB(t))
	p := createPost(t, svc, "Solar at home", "renewable")

	if len(p.Tags) != 2 || p.Tags[0] != "sustainability" || p.Tags[1] != "eco-friendly" {
		t.Errorf("default tags not applied: %v", p.Tags)
	}

	tagged := createPost(t, svc, "Grey water", "water", "plumbing")
	if len(tagged.Tags) != 1 || tagged.Tags[0] != "plumbing" {
		t.Errorf("explicit tags overridden: %v", tagged.Tags)
	}
}

func TestLikeIncrementsOnce(t *testing.T) {
	svc := NewService(setupTestDB(t))
	p := createPost(t, svc, "Solar at home", "renewable")

	likes, err := svc.Like(p.ID, "user-1")
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if likes != 1 {
		t.Errorf("likes = %d, want 1", likes)
	}

	// repeated like is a no-op
	likes, err = svc.Like(p.ID, "user-1")
	if err != nil {
		t.Fatalf("repeat like: %v", err)
	}
	if likes != 1 {
		t.Errorf("repeated like changed count to %d", likes)
	}

	likes, err = svc.Like(p.ID, "user-2")
	if err != nil {
		t.Fatalf("second user like: %v", err)
	}
	if likes != 2 {
		t.Errorf("likes = %d, want 2", likes)
	}
}

func TestUnlikeWithoutLikeIsNoop(t *testing.T) {
	svc := NewService(setupTestDB(t))
	p := createPost(t, svc, "Solar at home", "renewable")

	likes, err := svc.Unlike(p.ID, "user-1")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if likes != 0 {
		t.Errorf("likes = %d, want 0", likes)
	}
}

func TestLikeUnlikeRoundTrip(t *testing.T) {
	svc := NewService(setupTestDB(t))
	p := createPost(t, svc, "Solar at home", "renewable")

	if _, err := svc.Like(p.ID, "user-1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	likes, err := svc.Unlike(p.ID, "user-1")
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if likes != 0 {
		t.Errorf("likes = %d, want 0 after unlike", likes)
	}

	// re-like after unlike must work and count exactly once
	likes, err = svc.Like(p.ID, "user-1")
	if err != nil {
		t.Fatalf("re-like: %v", err)
	}
	if likes != 1 {
		t.Errorf("likes = %d, want 1 after re-like", likes)
	}

	if !svc.HasLiked(p.ID, "user-1") {
		t.Errorf("HasLiked should be true after re-like")
	}
}

func TestLikeUnknownPost(t *testing.T) {
	svc := NewService(setupTestDB(t))

	if _, err := svc.Like("no-such-post", "user-1"); !errors.Is(err, errPostNotFound) {
		t.Errorf("expected errPostNotFound, got %v", err)
	}
}

func TestListFiltersAndSort(t *testing.T) {
	svc := NewService(setupTestDB(t))
	a := createPost(t, svc, "Rooftop solar basics", "renewable")
	b := createPost(t, svc, "Rainwater harvesting", "water", "diy")
	createPost(t, svc, "Composting 101", "recycling")

	if _, err := svc.Like(b.ID, "user-1"); err != nil {
		t.Fatalf("like: %v", err)
	}

	q := pagination.Query{Page: 1, Size: 10}

	items, _, err := svc.List(q, ListQuery{Category: "water"})
	if err != nil {
		t.Fatalf("list by category: %v", err)
	}
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("category filter wrong: %d items", len(items))
	}

	items, _, err = svc.List(q, ListQuery{Tag: "diy"})
	if err != nil {
		t.Fatalf("list by tag: %v", err)
	}
	if len(items) != 1 || items[0].ID != b.ID {
		t.Errorf("tag filter wrong: %d items", len(items))
	}

	items, _, err = svc.List(q, ListQuery{Search: "solar"})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if len(items) != 1 || items[0].ID != a.ID {
		t.Errorf("search filter wrong: %d items", len(items))
	}

	items, _, err = svc.List(q, ListQuery{Sort: "mostLiked"})
	if err != nil {
		t.Fatalf("list mostLiked: %v", err)
	}
	if len(items) != 3 || items[0].ID != b.ID {
		t.Errorf("mostLiked should put the liked post first")
	}
}

func TestReconcileLikeCounts(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)
	p := createPost(t, svc, "Solar at home", "renewable")

	if _, err := svc.Like(p.ID, "user-1"); err != nil {
		t.Fatalf("like: %v", err)
	}
	// a like removed by unlike must not count
	if _, err := svc.Like(p.ID, "user-2"); err != nil {
		t.Fatalf("like: %v", err)
	}
	if _, err := svc.Unlike(p.ID, "user-2"); err != nil {
		t.Fatalf("unlike: %v", err)
	}

	// introduce drift
	if err := db.Model(&models.BlogPostModel{}).Where("id = ?", p.ID).
		UpdateColumn("like_count", 42).Error; err != nil {
		t.Fatalf("drift: %v", err)
	}

	if _, err := svc.ReconcileLikeCounts(); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	var fresh models.BlogPostModel
	if err := db.First(&fresh, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.LikeCount != 1 {
		t.Errorf("like_count = %d after reconcile, want 1", fresh.LikeCount)
	}
}
