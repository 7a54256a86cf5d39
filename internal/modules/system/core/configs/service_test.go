package configs

import (
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ecosphere/core/internal/config"
	"github.com/ecosphere/core/internal/database"
	"github.com/ecosphere/core/internal/models"
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

func TestGetSeedsDefaultsOnFreshDB(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	cfg, err := svc.Get()
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if cfg.Site.Title != "EcoSphere" {
		t.Errorf("default site title = %q", cfg.Site.Title)
	}
	if cfg.NewsAPI.PageSize != 12 {
		t.Errorf("default news page size = %d", cfg.NewsAPI.PageSize)
	}

	// First Get persists the defaults so the row is editable afterwards.
	var opt models.OptionModel
	if err := db.Where("name = ?", configKey).First(&opt).Error; err != nil {
		t.Fatalf("seeded option row missing: %v", err)
	}
}

func TestPatchMergesSectionAndPersists(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	updated, err := svc.Patch(map[string]json.RawMessage{
		"site": json.RawMessage(`{"title": "GreenGrid"}`),
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if updated.Site.Title != "GreenGrid" {
		t.Errorf("title = %q", updated.Site.Title)
	}
	if updated.Site.Description != "Environmental awareness platform" {
		t.Errorf("sibling field lost in merge: %q", updated.Site.Description)
	}

	// Invalidate drops the cache; the next Get must reload from the DB row.
	svc.Invalidate()
	reloaded, err := svc.Get()
	if err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if reloaded.Site.Title != "GreenGrid" {
		t.Errorf("patch not persisted, title = %q", reloaded.Site.Title)
	}
}

func TestPatchRejectsAssistWithoutProvider(t *testing.T) {
	svc := NewService(setupTestDB(t))

	if _, err := svc.Patch(map[string]json.RawMessage{
		"ai": json.RawMessage(`{"enable_assist": true, "providers": []}`),
	}); err != errAssistProviderNotEnabled {
		t.Errorf("err = %v, want %v", err, errAssistProviderNotEnabled)
	}
}

func TestPatchAcceptsAssistWithEnabledProvider(t *testing.T) {
	svc := NewService(setupTestDB(t))

	updated, err := svc.Patch(map[string]json.RawMessage{
		"ai": json.RawMessage(`{
			"enable_assist": true,
			"providers": [{"id": "p1", "type": "openai", "api_key": "sk-test", "enabled": true}]
		}`),
	})
	if err != nil {
		t.Fatalf("patch: %v", err)
	}
	if !updated.AI.EnableAssist || len(updated.AI.Providers) != 1 {
		t.Errorf("ai section not applied: %+v", updated.AI)
	}
}

func TestDeepMergeReplacesArraysWholesale(t *testing.T) {
	old := map[string]interface{}{
		"keywords": []interface{}{"environment", "sustainability"},
		"nested":   map[string]interface{}{"a": 1.0, "b": 2.0},
	}
	incoming := map[string]interface{}{
		"keywords": []interface{}{"climate"},
		"nested":   map[string]interface{}{"b": 3.0},
	}

	merged, ok := deepMergeJSON(old, incoming).(map[string]interface{})
	if !ok {
		t.Fatal("merge did not return a map")
	}
	keywords := merged["keywords"].([]interface{})
	if len(keywords) != 1 || keywords[0] != "climate" {
		t.Errorf("array not replaced: %v", keywords)
	}
	nested := merged["nested"].(map[string]interface{})
	if nested["a"] != 1.0 || nested["b"] != 3.0 {
		t.Errorf("nested merge wrong: %v", nested)
	}
}

func TestHasEnabledAIProvider(t *testing.T) {
	if hasEnabledAIProvider(nil) {
		t.Error("nil providers reported enabled")
	}
	providers := []config.AIProvider{{ID: "p1"}, {ID: "p2", Enabled: true}}
	if !hasEnabledAIProvider(providers) {
		t.Error("enabled provider not detected")
	}
}
