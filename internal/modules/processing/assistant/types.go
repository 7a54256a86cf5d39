package assistant

import (
	"errors"
	"time"

	"github.com/ecosphere/core/internal/models"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"

	conversationTitleLimit = 60
	historyTurnLimit       = 40
)

// defaultSystemPrompt is the assistant persona used when the admin has not
// customized one.
const defaultSystemPrompt = `You are GreenAI, a trusted environmental guide for our India-based website. Respond to user queries about their issues in a clear, concise, and empathetic manner. Evaluate the user's problems to determine if they are minor or require urgent attention. For minor issues, offer brief tips. For serious or worsening issues, advise immediate complaint filing in the news tab.

Guidelines for your responses:
-Prescribe tips for saving energy and reducing carbon footprint.
- Provide a clear, direct main answer.
- Use bullet points or numbered steps only when necessary.
- Avoid jargon and complex terms.
- Use a friendly, empathetic tone.
- Encourage users to donate and direct them to our donation box.
- When asked for feedback redirect them to the news tab
- Offer general nature-care tips.
- Keep your responses short and to the point.
- Ask for clarification if needed.
- Do not include any formatting tags or labels in your output.
-The website has Waste classifier for user to recycle better.
-There is a community page where various activities are posted by people.
-The news tab contains news and user can also publish news or rise complaints if any in the same tab.
-The Carbon footprint Calculator gives insights of where user is spending and suggests how to reduce it.
-The carbon footprint tab also has the sources of courses where user can know more about environment through educational videos.
If the user asks about something unrelated to the environment, sustainability, or this website, politely decline and steer the conversation back to environmental topics.`

var (
	errAssistDisabled       = errors.New("the assistant is not enabled")
	errNoProvider           = errors.New("no ai provider is configured")
	errConversationNotFound = errors.New("conversation not found")
)

type chatDTO struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message" binding:"required"`
}

// chatTurn is one prior message handed to the provider.
type chatTurn struct {
	Role    string
	Content string
}

// ChatResult is what a completed chat round returns to the caller.
type ChatResult struct {
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	Reply          string `json:"reply"`
}

type conversationResponse struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Created time.Time `json:"created"`
}

type messageResponse struct {
	ID      string    `json:"id"`
	Role    string    `json:"role"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

type conversationDetailResponse struct {
	conversationResponse
	Messages []messageResponse `json:"messages"`
}

func toConversationResponse(m *models.AssistantConversationModel) conversationResponse {
	return conversationResponse{ID: m.ID, Title: m.Title, Created: m.CreatedAt}
}

func toMessageResponse(m *models.AssistantMessageModel) messageResponse {
	return messageResponse{ID: m.ID, Role: m.Role, Content: m.Content, Created: m.CreatedAt}
}
