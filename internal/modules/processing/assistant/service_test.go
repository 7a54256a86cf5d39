package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	appcfg "github.com/ecosphere/core/internal/config"
	"github.com/ecosphere/core/internal/database"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
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

func testService(t *testing.T, reply func(turns []chatTurn) (string, error)) *Service {
	t.Helper()
	db := setupTestDB(t)
	cfgSvc := appconfigs.NewService(db)
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"ai": json.RawMessage(`{"enable_assist":true,"providers":[{"id":"p1","name":"test","type":"OpenAI","api_key":"k","default_model":"m","enabled":true}]}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}

	svc := NewService(db, cfgSvc, nil)
	svc.generate = func(_ context.Context, _ *appcfg.AIProvider, _ string, turns []chatTurn) (string, error) {
		return reply(turns)
	}
	return svc
}

func TestChatCreatesConversationAndPersistsTurns(t *testing.T) {
	svc := testService(t, func(turns []chatTurn) (string, error) {
		return "Plant a tree.", nil
	})

	result, err := svc.Chat(context.Background(), "user-1", "", "How can I help the planet?")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if result.ConversationID == "" {
		t.Fatal("expected a conversation id")
	}
	if result.Reply != "Plant a tree." {
		t.Errorf("reply = %q", result.Reply)
	}

	conversation, messages, err := svc.GetConversation("user-1", result.ConversationID)
	if err != nil {
		t.Fatalf("get conversation: %v", err)
	}
	if conversation.Title != "How can I help the planet?" {
		t.Errorf("title = %q", conversation.Title)
	}
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	if messages[0].Role != RoleUser || messages[1].Role != RoleAssistant {
		t.Errorf("roles = %s, %s", messages[0].Role, messages[1].Role)
	}
}

func TestChatContinuesConversationWithHistory(t *testing.T) {
	var seen []chatTurn
	svc := testService(t, func(turns []chatTurn) (string, error) {
		seen = turns
		return "reply", nil
	})

	first, err := svc.Chat(context.Background(), "user-1", "", "first question")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if _, err := svc.Chat(context.Background(), "user-1", first.ConversationID, "second question"); err != nil {
		t.Fatalf("chat: %v", err)
	}

	if len(seen) != 3 {
		t.Fatalf("provider saw %d turns, want 3", len(seen))
	}
	if seen[0].Content != "first question" || seen[1].Content != "reply" || seen[2].Content != "second question" {
		t.Errorf("unexpected turn order: %+v", seen)
	}
	if seen[1].Role != RoleAssistant {
		t.Errorf("middle turn role = %s, want assistant", seen[1].Role)
	}
}

func TestChatRejectsForeignConversation(t *testing.T) {
	svc := testService(t, func(turns []chatTurn) (string, error) {
		return "reply", nil
	})

	result, err := svc.Chat(context.Background(), "user-1", "", "hello")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if _, err := svc.Chat(context.Background(), "user-2", result.ConversationID, "hijack"); !errors.Is(err, errConversationNotFound) {
		t.Errorf("err = %v, want errConversationNotFound", err)
	}
}

func TestChatProviderFailureLeavesNothingBehind(t *testing.T) {
	svc := testService(t, func(turns []chatTurn) (string, error) {
		return "", errors.New("upstream down")
	})

	_, err := svc.Chat(context.Background(), "user-1", "", "hello")
	if err == nil {
		t.Fatal("expected provider error")
	}

	conversations, err := svc.ListConversations("user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	// the conversation shell may exist but must hold no messages
	for _, conversation := range conversations {
		_, messages, err := svc.GetConversation("user-1", conversation.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if len(messages) != 0 {
			t.Errorf("conversation %s has %d messages, want 0", conversation.ID, len(messages))
		}
	}
}

func TestChatDisabledAssistant(t *testing.T) {
	db := setupTestDB(t)
	cfgSvc := appconfigs.NewService(db)
	_, err := cfgSvc.Patch(map[string]json.RawMessage{
		"ai": json.RawMessage(`{"enable_assist":false}`),
	})
	if err != nil {
		t.Fatalf("patch config: %v", err)
	}

	svc := NewService(db, cfgSvc, nil)
	if _, err := svc.Chat(context.Background(), "user-1", "", "hello"); !errors.Is(err, errAssistDisabled) {
		t.Errorf("err = %v, want errAssistDisabled", err)
	}
}

func TestDeleteConversationRemovesMessages(t *testing.T) {
	svc := testService(t, func(turns []chatTurn) (string, error) {
		return "reply", nil
	})

	result, err := svc.Chat(context.Background(), "user-1", "", "hello")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if err := svc.DeleteConversation("user-1", result.ConversationID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, _, err := svc.GetConversation("user-1", result.ConversationID); !errors.Is(err, errConversationNotFound) {
		t.Errorf("err = %v, want errConversationNotFound", err)
	}
	if err := svc.DeleteConversation("user-1", result.ConversationID); !errors.Is(err, errConversationNotFound) {
		t.Errorf("second delete err = %v, want errConversationNotFound", err)
	}
}

func TestSelectProviderHonorsAssignment(t *testing.T) {
	cfg := appcfg.AIConfig{
		Providers: []appcfg.AIProvider{
			{ID: "a", Type: "OpenAI", Enabled: true, DefaultModel: "gpt-4o-mini"},
			{ID: "b", Type: "Gemini", Enabled: true, DefaultModel: "gemini-1.5-flash"},
		},
		AssistantModel: &appcfg.AIModelAssignment{ProviderID: "b", Model: "gemini-2.0-flash"},
	}

	provider := selectProvider(cfg)
	if provider == nil || provider.ID != "b" {
		t.Fatalf("provider = %+v, want b", provider)
	}
	if provider.DefaultModel != "gemini-2.0-flash" {
		t.Errorf("model = %q, want override", provider.DefaultModel)
	}

	cfg.AssistantModel = nil
	if provider := selectProvider(cfg); provider == nil || provider.ID != "a" {
		t.Errorf("fallback provider = %+v, want a", provider)
	}

	cfg.Providers[0].Enabled = false
	cfg.Providers[1].Enabled = false
	if provider := selectProvider(cfg); provider != nil {
		t.Errorf("provider = %+v, want nil with nothing enabled", provider)
	}
}

func TestConversationTitleTruncates(t *testing.T) {
	long := strings.Repeat("sustainability ", 10)
	title := conversationTitle(long)
	if len([]rune(title)) != conversationTitleLimit+1 {
		t.Errorf("title length = %d runes", len([]rune(title)))
	}
	if !strings.HasSuffix(title, "…") {
		t.Errorf("title %q should end with ellipsis", title)
	}
}
