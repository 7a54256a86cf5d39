package models

// AssistantConversationModel groups chat messages per user.
type AssistantConversationModel struct {
	Base
	UserID string `json:"user_id" gorm:"index;not null"`
	Title  string `json:"title"`
}

func (AssistantConversationModel) TableName() string { return "assistant_conversations" }

// AssistantMessageModel is a single chat turn.
type AssistantMessageModel struct {
	Base
	ConversationID string `json:"conversation_id" gorm:"index;not null"`
	Role           string `json:"role"            gorm:"not null"` // user | assistant
	Content        string `json:"content"         gorm:"type:longtext"`
}

func (AssistantMessageModel) TableName() string { return "assistant_messages" }
