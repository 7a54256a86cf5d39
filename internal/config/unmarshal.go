package config

import (
	"encoding/json"
	"strings"
)

func (s SMTPConfig) MarshalJSON() ([]byte, error) {
	host := strings.TrimSpace(s.Options.Host)
	port := s.Options.Port
	if port == 0 {
		port = 465
	}
	secure := s.Options.Secure

	return json.Marshal(struct {
		User    string      `json:"user"`
		Pass    string      `json:"pass"`
		Host    string      `json:"host"`
		Port    int         `json:"port"`
		Secure  bool        `json:"secure"`
		Options SMTPOptions `json:"options"`
	}{
		User:   strings.TrimSpace(s.User),
		Pass:   s.Pass,
		Host:   host,
		Port:   port,
		Secure: secure,
		Options: SMTPOptions{
			Host:   host,
			Port:   port,
			Secure: secure,
		},
	})
}

func (s *SMTPConfig) UnmarshalJSON(data []byte) error {
	next := *s
	if next.Options.Port == 0 {
		next.Options.Port = 465
	}

	var raw struct {
		User    string `json:"user"`
		Pass    string `json:"pass"`
		Options *struct {
			Host   string `json:"host"`
			Port   int    `json:"port"`
			Secure *bool  `json:"secure"`
		} `json:"options"`
		Host   string `json:"host"`
		Port   int    `json:"port"`
		Secure *bool  `json:"secure"`
		Auth   *struct {
			User string `json:"user"`
			Pass string `json:"pass"`
		} `json:"auth"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.User != "" {
		next.User = strings.TrimSpace(raw.User)
	}
	if raw.Pass != "" {
		next.Pass = raw.Pass
	}
	if raw.Auth != nil {
		if next.User == "" {
			next.User = strings.TrimSpace(raw.Auth.User)
		}
		if next.Pass == "" {
			next.Pass = raw.Auth.Pass
		}
	}

	if raw.Options != nil {
		next.Options.Host = strings.TrimSpace(raw.Options.Host)
		if raw.Options.Port != 0 {
			next.Options.Port = raw.Options.Port
		}
		if raw.Options.Secure != nil {
			next.Options.Secure = *raw.Options.Secure
		}
	} else {
		if strings.TrimSpace(raw.Host) != "" {
			next.Options.Host = strings.TrimSpace(raw.Host)
		}
		if raw.Port != 0 {
			next.Options.Port = raw.Port
		}
		if raw.Secure != nil {
			next.Options.Secure = *raw.Secure
		}
	}

	if next.Options.Port == 0 {
		next.Options.Port = 465
	}
	*s = next
	return nil
}

func (a *AIModelAssignment) UnmarshalJSON(data []byte) error {
	var raw struct {
		ProviderID      string `json:"provider_id"`
		ProviderIDCamel string `json:"providerId"`
		Model           string `json:"model"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.ProviderID = strings.TrimSpace(raw.ProviderID)
	if a.ProviderID == "" {
		a.ProviderID = strings.TrimSpace(raw.ProviderIDCamel)
	}
	a.Model = strings.TrimSpace(raw.Model)
	return nil
}

func (a *AIConfig) UnmarshalJSON(data []byte) error {
	next := *a
	var raw struct {
		Providers      []AIProvider    `json:"providers"`
		AssistantModel json.RawMessage `json:"assistant_model"`
		EnableAssist   *bool           `json:"enable_assist"`
		SystemPrompt   *string         `json:"system_prompt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.Providers != nil {
		next.Providers = raw.Providers
	}
	if raw.EnableAssist != nil {
		next.EnableAssist = *raw.EnableAssist
	}
	if raw.SystemPrompt != nil {
		next.SystemPrompt = *raw.SystemPrompt
	}

	var err error
	if len(raw.AssistantModel) > 0 {
		next.AssistantModel, err = parseAIModelAssignment(raw.AssistantModel, next.AssistantModel)
		if err != nil {
			return err
		}
	}

	*a = next
	return nil
}

func parseAIModelAssignment(raw json.RawMessage, fallback *AIModelAssignment) (*AIModelAssignment, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return fallback, nil
	}
	if trimmed == "null" {
		return nil, nil
	}

	var legacyModel string
	if err := json.Unmarshal(raw, &legacyModel); err == nil {
		legacyModel = strings.TrimSpace(legacyModel)
		if legacyModel == "" {
			return nil, nil
		}
		next := &AIModelAssignment{}
		if fallback != nil {
			*next = *fallback
		}
		next.Model = legacyModel
		return next, nil
	}

	next := &AIModelAssignment{}
	if fallback != nil {
		*next = *fallback
	}
	if err := json.Unmarshal(raw, next); err != nil {
		return nil, err
	}
	if strings.TrimSpace(next.ProviderID) == "" && strings.TrimSpace(next.Model) == "" {
		return nil, nil
	}
	return next, nil
}
