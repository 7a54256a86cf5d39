package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"

	anthropicclient "github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	openaiclient "github.com/openai/openai-go/v2"
	openaioption "github.com/openai/openai-go/v2/option"
	jetai "go.jetify.com/ai"
	jetapi "go.jetify.com/ai/api"
	jetanthropic "go.jetify.com/ai/provider/anthropic"
	jetopenai "go.jetify.com/ai/provider/openai"
	"google.golang.org/genai"

	appcfg "github.com/ecosphere/core/internal/config"
)

const replyMaxTokens = 1024

func normalizeProviderType(raw string) string {
	t := strings.ToLower(strings.TrimSpace(raw))
	t = strings.ReplaceAll(t, "_", "-")
	t = strings.ReplaceAll(t, " ", "")
	return t
}

func isOpenAICompatibleProviderType(raw string) bool {
	t := normalizeProviderType(raw)
	return t == "openai-compatible" || t == "openaicompatible"
}

func isAnthropicProviderType(raw string) bool  { return normalizeProviderType(raw) == "anthropic" }
func isOpenRouterProviderType(raw string) bool { return normalizeProviderType(raw) == "openrouter" }
func isGeminiProviderType(raw string) bool {
	t := normalizeProviderType(raw)
	return t == "gemini" || t == "google"
}

// selectProvider returns the provider the assistant should use, honoring the
// admin's model assignment and falling back to the first enabled provider.
func selectProvider(cfg appcfg.AIConfig) *appcfg.AIProvider {
	var providerID, overrideModel string
	if cfg.AssistantModel != nil {
		providerID = strings.TrimSpace(cfg.AssistantModel.ProviderID)
		overrideModel = strings.TrimSpace(cfg.AssistantModel.Model)
	}

	pick := func(provider appcfg.AIProvider) *appcfg.AIProvider {
		selected := provider
		if overrideModel != "" {
			selected.DefaultModel = overrideModel
		}
		return &selected
	}

	if providerID != "" {
		for _, provider := range cfg.Providers {
			if provider.Enabled && strings.TrimSpace(provider.ID) == providerID {
				return pick(provider)
			}
		}
	}
	for _, provider := range cfg.Providers {
		if provider.Enabled {
			return pick(provider)
		}
	}
	return nil
}

// generateReply sends the system prompt plus the running conversation to the
// provider and returns the assistant's answer.
func generateReply(ctx context.Context, provider *appcfg.AIProvider, systemPrompt string, turns []chatTurn) (string, error) {
	if provider == nil {
		return "", errNoProvider
	}
	if strings.TrimSpace(provider.APIKey) == "" {
		return "", errors.New("ai provider api key is empty")
	}

	switch {
	case isGeminiProviderType(provider.Type):
		return callGemini(ctx, provider, systemPrompt, turns)
	case isOpenAICompatibleProviderType(provider.Type) || isOpenRouterProviderType(provider.Type):
		return callChatCompletions(ctx, provider, systemPrompt, turns)
	default:
		return callJetify(ctx, provider, systemPrompt, turns)
	}
}

func callJetify(ctx context.Context, provider *appcfg.AIProvider, systemPrompt string, turns []chatTurn) (string, error) {
	model, err := buildLanguageModel(provider)
	if err != nil {
		return "", err
	}

	messages := make([]jetapi.Message, 0, len(turns)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, &jetapi.SystemMessage{Content: systemPrompt})
	}
	for _, turn := range turns {
		if turn.Role == RoleAssistant {
			messages = append(messages, &jetapi.AssistantMessage{Content: jetapi.ContentFromText(turn.Content)})
		} else {
			messages = append(messages, &jetapi.UserMessage{Content: jetapi.ContentFromText(turn.Content)})
		}
	}

	resp, err := jetai.GenerateText(
		ctx,
		messages,
		jetai.WithModel(model),
		jetai.WithMaxOutputTokens(replyMaxTokens),
	)
	if err != nil {
		return "", err
	}
	return extractText(resp)
}

func buildLanguageModel(provider *appcfg.AIProvider) (jetapi.LanguageModel, error) {
	apiKey := strings.TrimSpace(provider.APIKey)
	modelID := strings.TrimSpace(provider.DefaultModel)
	endpoint := strings.TrimSpace(provider.Endpoint)

	if isAnthropicProviderType(provider.Type) {
		if modelID == "" {
			modelID = "claude-haiku-4-5-20251001"
		}
		opts := []anthropicoption.RequestOption{
			anthropicoption.WithAPIKey(apiKey),
			anthropicoption.WithMaxRetries(0),
		}
		if endpoint != "" {
			opts = append(opts, anthropicoption.WithBaseURL(strings.TrimRight(endpoint, "/")))
		}
		client := anthropicclient.NewClient(opts...)
		return jetanthropic.NewLanguageModel(modelID, jetanthropic.WithClient(client)), nil
	}

	if modelID == "" {
		modelID = "gpt-4o-mini"
	}
	opts := []openaioption.RequestOption{
		openaioption.WithAPIKey(apiKey),
		openaioption.WithMaxRetries(0),
	}
	if normalized := normalizeOpenAIBaseURL(endpoint); normalized != "" {
		opts = append(opts, openaioption.WithBaseURL(normalized))
	}
	client := openaiclient.NewClient(opts...)
	return jetopenai.NewLanguageModel(modelID, jetopenai.WithClient(client)), nil
}

func extractText(resp *jetapi.Response) (string, error) {
	if resp == nil {
		return "", errors.New("empty response from ai provider")
	}
	var full strings.Builder
	for _, block := range resp.Content {
		textBlock, ok := block.(*jetapi.TextBlock)
		if !ok || textBlock.Text == "" {
			continue
		}
		full.WriteString(textBlock.Text)
	}
	text := strings.TrimSpace(full.String())
	if text == "" {
		return "", errors.New("empty response from ai provider")
	}
	return text, nil
}

func callGemini(ctx context.Context, provider *appcfg.AIProvider, systemPrompt string, turns []chatTurn) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: strings.TrimSpace(provider.APIKey),
	})
	if err != nil {
		return "", err
	}

	model := strings.TrimSpace(provider.DefaultModel)
	if model == "" {
		model = "gemini-1.5-flash"
	}

	contents := make([]*genai.Content, 0, len(turns))
	for _, turn := range turns {
		var role genai.Role = genai.RoleUser
		if turn.Role == RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Content, role))
	}

	var config *genai.GenerateContentConfig
	if strings.TrimSpace(systemPrompt) != "" {
		config = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		}
	}

	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response from ai provider")
	}
	return text, nil
}

// callChatCompletions speaks the plain OpenAI-style REST dialect for
// self-hosted compatible servers and OpenRouter.
func callChatCompletions(ctx context.Context, provider *appcfg.AIProvider, systemPrompt string, turns []chatTurn) (string, error) {
	endpoint := normalizeCompatibleEndpoint(provider)
	model := strings.TrimSpace(provider.DefaultModel)
	if model == "" {
		model = "gpt-4o-mini"
	}

	messages := make([]map[string]string, 0, len(turns)+1)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, map[string]string{"role": "system", "content": systemPrompt})
	}
	for _, turn := range turns {
		role := "user"
		if turn.Role == RoleAssistant {
			role = "assistant"
		}
		messages = append(messages, map[string]string{"role": role, "content": turn.Content})
	}

	body, _ := json.Marshal(map[string]interface{}{
		"model":      model,
		"messages":   messages,
		"max_tokens": replyMaxTokens,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(provider.APIKey))
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("ai provider error: %s", strings.TrimSpace(string(respBody)))
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", err
	}
	if result.Error != nil && strings.TrimSpace(result.Error.Message) != "" {
		return "", fmt.Errorf("ai provider error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 || strings.TrimSpace(result.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from ai provider")
	}
	return result.Choices[0].Message.Content, nil
}

func normalizeCompatibleEndpoint(provider *appcfg.AIProvider) string {
	base := strings.TrimSpace(provider.Endpoint)
	if base == "" {
		if isOpenRouterProviderType(provider.Type) {
			return "https://openrouter.ai/api/v1/chat/completions"
		}
		return "https://api.openai.com/v1/chat/completions"
	}
	cleaned := strings.TrimRight(base, "/")
	if strings.HasSuffix(cleaned, "/chat/completions") {
		return cleaned
	}
	if !strings.HasSuffix(cleaned, "/v1") {
		cleaned += "/v1"
	}
	return cleaned + "/chat/completions"
}

func normalizeOpenAIBaseURL(raw string) string {
	base := strings.TrimSpace(raw)
	if base == "" {
		return ""
	}
	parsed, err := neturl.Parse(base)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return strings.TrimRight(base, "/")
	}
	path := strings.TrimRight(parsed.Path, "/")
	if !strings.HasSuffix(path, "/v1") {
		if path == "" {
			path = "/v1"
		} else {
			path += "/v1"
		}
	}
	parsed.Path = path
	return strings.TrimRight(parsed.String(), "/")
}
