package assistant

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	appcfg "github.com/ecosphere/core/internal/config"
	"github.com/ecosphere/core/internal/models"
	appconfigs "github.com/ecosphere/core/internal/modules/system/core/configs"
)

type Service struct {
	db     *gorm.DB
	cfgSvc *appconfigs.Service
	logger *zap.Logger

	// swapped out in tests
	generate func(ctx context.Context, provider *appcfg.AIProvider, systemPrompt string, turns []chatTurn) (string, error)
}

func NewService(db *gorm.DB, cfgSvc *appconfigs.Service, logger *zap.Logger) *Service {
	return &Service{
		db:       db,
		cfgSvc:   cfgSvc,
		logger:   logger,
		generate: generateReply,
	}
}

// Chat appends the user's message to the conversation, asks the provider for
// a reply, and persists both turns. An empty conversation id starts a new
// conversation titled after the first message.
func (s *Service) Chat(ctx context.Context, userID, conversationID, message string) (*ChatResult, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message is required")
	}

	systemPrompt, provider, err := s.resolveProvider()
	if err != nil {
		return nil, err
	}

	conversation, err := s.ensureConversation(userID, conversationID, message)
	if err != nil {
		return nil, err
	}

	history, err := s.history(conversation.ID)
	if err != nil {
		return nil, err
	}

	turns := make([]chatTurn, 0, len(history)+1)
	for i := range history {
		turns = append(turns, chatTurn{Role: history[i].Role, Content: history[i].Content})
	}
	turns = append(turns, chatTurn{Role: RoleUser, Content: message})

	reply, err := s.generate(ctx, provider, systemPrompt, turns)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("assistant generation failed", zap.String("conversation", conversation.ID), zap.Error(err))
		}
		return nil, err
	}

	userMsg := models.AssistantMessageModel{
		ConversationID: conversation.ID,
		Role:           RoleUser,
		Content:        message,
	}
	assistantMsg := models.AssistantMessageModel{
		ConversationID: conversation.ID,
		Role:           RoleAssistant,
		Content:        reply,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&userMsg).Error; err != nil {
			return err
		}
		return tx.Create(&assistantMsg).Error
	})
	if err != nil {
		return nil, err
	}

	return &ChatResult{
		ConversationID: conversation.ID,
		MessageID:      assistantMsg.ID,
		Reply:          reply,
	}, nil
}

func (s *Service) resolveProvider() (string, *appcfg.AIProvider, error) {
	if s.cfgSvc == nil {
		return "", nil, errNoProvider
	}
	cfg, err := s.cfgSvc.Get()
	if err != nil {
		return "", nil, err
	}
	if !cfg.AI.EnableAssist {
		return "", nil, errAssistDisabled
	}
	provider := selectProvider(cfg.AI)
	if provider == nil {
		return "", nil, errNoProvider
	}
	systemPrompt := strings.TrimSpace(cfg.AI.SystemPrompt)
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return systemPrompt, provider, nil
}

func (s *Service) ensureConversation(userID, conversationID, firstMessage string) (*models.AssistantConversationModel, error) {
	if conversationID != "" {
		var conversation models.AssistantConversationModel
		err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errConversationNotFound
		}
		if err != nil {
			return nil, err
		}
		return &conversation, nil
	}

	conversation := models.AssistantConversationModel{
		UserID: userID,
		Title:  conversationTitle(firstMessage),
	}
	if err := s.db.Create(&conversation).Error; err != nil {
		return nil, err
	}
	return &conversation, nil
}

// history returns the most recent turns oldest-first, capped so long
// conversations do not blow the provider's context.
func (s *Service) history(conversationID string) ([]models.AssistantMessageModel, error) {
	var recent []models.AssistantMessageModel
	err := s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Limit(historyTurnLimit).
		Find(&recent).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(recent)-1; i < j; i, j = i+1, j-1 {
		recent[i], recent[j] = recent[j], recent[i]
	}
	return recent, nil
}

func (s *Service) ListConversations(userID string) ([]models.AssistantConversationModel, error) {
	var conversations []models.AssistantConversationModel
	err := s.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&conversations).Error
	return conversations, err
}

// GetConversation returns the conversation with its messages oldest-first.
func (s *Service) GetConversation(userID, conversationID string) (*models.AssistantConversationModel, []models.AssistantMessageModel, error) {
	var conversation models.AssistantConversationModel
	err := s.db.Where("id = ? AND user_id = ?", conversationID, userID).First(&conversation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, errConversationNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var messages []models.AssistantMessageModel
	err = s.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, nil, err
	}
	return &conversation, messages, nil
}

func (s *Service) DeleteConversation(userID, conversationID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND user_id = ?", conversationID, userID).
			Delete(&models.AssistantConversationModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errConversationNotFound
		}
		return tx.Where("conversation_id = ?", conversationID).
			Delete(&models.AssistantMessageModel{}).Error
	})
}

func conversationTitle(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	if utf8.RuneCountInString(title) <= conversationTitleLimit {
		return title
	}
	runes := []rune(title)
	return string(runes[:conversationTitleLimit]) + "…"
}
