package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

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

func TestNormalizeWebhookEvents(t *testing.T) {
	got := normalizeWebhookEvents([]string{" news_created ", "NEWS_CREATED", "post_liked", "bogus", ""})
	want := []string{"NEWS_CREATED", "POST_LIKED"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("normalize = %v, want %v", got, want)
	}

	if got := normalizeWebhookEvents([]string{"DONATION_PAID", "All"}); !reflect.DeepEqual(got, []string{"all"}) {
		t.Errorf("all should short-circuit, got %v", got)
	}

	if got := normalizeWebhookEvents(nil); len(got) != 0 {
		t.Errorf("nil input = %v", got)
	}
}

func TestWebhookContainsEvent(t *testing.T) {
	if !webhookContainsEvent([]string{"all"}, "NEWS_CREATED") {
		t.Error("all should match any event")
	}
	if !webhookContainsEvent([]string{"POST_LIKED"}, "post_liked") {
		t.Error("match should be case-insensitive")
	}
	if webhookContainsEvent([]string{"POST_LIKED"}, "NEWS_CREATED") {
		t.Error("unrelated event matched")
	}
}

func TestCreateFiltersEventsAndGeneratesSecret(t *testing.T) {
	svc := NewService(setupTestDB(t))

	w, err := svc.Create(&CreateWebhookDTO{
		PayloadURL: "https://example.com/hook",
		Events:     []string{"news_created", "nonsense"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !reflect.DeepEqual(w.Events, []string{"NEWS_CREATED"}) {
		t.Errorf("events = %v", w.Events)
	}
	if len(w.Secret) != 40 {
		t.Errorf("generated secret length = %d, want 40 hex chars", len(w.Secret))
	}
	if !w.Enabled {
		t.Error("webhook should default to enabled")
	}

	if _, err := svc.Create(&CreateWebhookDTO{
		PayloadURL: "https://example.com/hook",
		Events:     []string{"nonsense"},
	}); err == nil {
		t.Error("create with no valid events should fail")
	}
}

func TestCreateDisabledStaysDisabled(t *testing.T) {
	svc := NewService(setupTestDB(t))

	off := false
	w, err := svc.Create(&CreateWebhookDTO{
		PayloadURL: "https://example.com/hook",
		Events:     []string{"NEWS_CREATED"},
		Enabled:    &off,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	reloaded, err := svc.GetByID(w.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Enabled {
		t.Error("enabled=false not persisted on create")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	svc := NewService(setupTestDB(t))
	w, err := svc.Create(&CreateWebhookDTO{
		PayloadURL: "https://example.com/hook",
		Events:     []string{"NEWS_CREATED"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	off := false
	updated, err := svc.Update(w.ID, &UpdateWebhookDTO{Enabled: &off, Events: []string{"donation_paid"}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	reloaded, err := svc.GetByID(updated.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if reloaded.Enabled {
		t.Error("enabled flag not persisted")
	}
	if !reflect.DeepEqual(reloaded.Events, []string{"DONATION_PAID"}) {
		t.Errorf("events = %v", reloaded.Events)
	}

	if err := svc.Delete(w.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got, _ := svc.GetByID(w.ID); got != nil {
		t.Error("deleted webhook still found")
	}
}

func TestDeliverSignsPayloadAndLogsEvent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	type received struct {
		event     string
		sig256    string
		body      []byte
		timestamp string
	}
	got := make(chan received, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got <- received{
			event:     r.Header.Get("X-Webhook-Event"),
			sig256:    r.Header.Get("X-Webhook-Signature256"),
			body:      body,
			timestamp: r.Header.Get("X-Webhook-Timestamp"),
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	hook := models.WebhookModel{
		PayloadURL: srv.URL,
		Events:     []string{"DONATION_PAID"},
		Secret:     "topsecret",
		Enabled:    true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatalf("seed hook: %v", err)
	}

	svc.deliver(hook, "DONATION_PAID", map[string]interface{}{"id": "d-1", "amount": 500})

	select {
	case r := <-got:
		if r.event != "DONATION_PAID" {
			t.Errorf("event header = %q", r.event)
		}
		if r.timestamp == "" {
			t.Error("timestamp header missing")
		}
		mac := hmac.New(sha256.New, []byte(hook.Secret))
		mac.Write(r.body)
		if want := hex.EncodeToString(mac.Sum(nil)); r.sig256 != want {
			t.Errorf("signature256 = %q, want %q", r.sig256, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook never delivered")
	}

	var log models.WebhookEventModel
	if err := db.Where("hook_id = ?", hook.ID).First(&log).Error; err != nil {
		t.Fatalf("delivery not logged: %v", err)
	}
	if !log.Success || log.Status != http.StatusNoContent {
		t.Errorf("log success=%v status=%d", log.Success, log.Status)
	}
}

func TestDispatchSkipsUnsubscribedHooks(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	hits := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- r.URL.Path
	}))
	defer srv.Close()

	for _, h := range []models.WebhookModel{
		{PayloadURL: srv.URL + "/news", Events: []string{"NEWS_CREATED"}, Secret: "a", Enabled: true},
		{PayloadURL: srv.URL + "/likes", Events: []string{"POST_LIKED"}, Secret: "b", Enabled: true},
		{PayloadURL: srv.URL + "/off", Events: []string{"NEWS_CREATED"}, Secret: "c", Enabled: false},
	} {
		hook := h
		if err := db.Create(&hook).Error; err != nil {
			t.Fatalf("seed hook: %v", err)
		}
	}

	svc.Dispatch("NEWS_CREATED", map[string]interface{}{"id": "n-1"})

	select {
	case path := <-hits:
		if path != "/news" {
			t.Errorf("delivered to %q", path)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscribed hook never hit")
	}
	select {
	case path := <-hits:
		t.Errorf("unexpected second delivery to %q", path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestRedispatchReplaysLoggedEvent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewService(db)

	hits := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits <- struct{}{}
	}))
	defer srv.Close()

	hook := models.WebhookModel{
		PayloadURL: srv.URL,
		Events:     []string{"NEWS_CREATED"},
		Secret:     "s",
		Enabled:    true,
	}
	if err := db.Create(&hook).Error; err != nil {
		t.Fatalf("seed hook: %v", err)
	}
	event := models.WebhookEventModel{
		HookID:    hook.ID,
		Event:     "NEWS_CREATED",
		Payload:   `{"id":"n-1"}`,
		Timestamp: time.Now(),
	}
	if err := db.Create(&event).Error; err != nil {
		t.Fatalf("seed event: %v", err)
	}

	if err := svc.Redispatch(event.ID); err != nil {
		t.Fatalf("redispatch: %v", err)
	}
	select {
	case <-hits:
	case <-time.After(2 * time.Second):
		t.Fatal("redispatch never delivered")
	}

	if err := svc.Redispatch("missing"); err == nil {
		t.Error("redispatch of unknown event should fail")
	}
}
