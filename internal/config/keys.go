package config

import "os"

// APIKeySource represents where an API key comes from.
type APIKeySource string

const (
	KeySourceEnv    APIKeySource = "env"
	KeySourceConfig APIKeySource = "config"
	KeySourceNone   APIKeySource = "none"
)

// KeyStatus represents the status of an API key.
type KeyStatus struct {
	Name     string       `json:"name"`
	Source   APIKeySource `json:"source"`
	IsSet    bool         `json:"is_set"`
	Required bool         `json:"required"`
	Masked   string       `json:"masked,omitempty"` // e.g., "cq3...0ag"
}

// CheckAPIKeys returns the status of every API key. A key is required when
// the configured provider needs it.
func CheckAPIKeys(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("Finnhub API Key", cfg.Finnhub.APIKey, "NEWSPULSE_FINNHUB_API_KEY", cfg.News.Provider == NewsFinnhub),
		checkKey("Sentiment Model API Key", cfg.Sentiment.APIKey, "NEWSPULSE_SENTIMENT_API_KEY", cfg.Sentiment.Provider == SentimentModel),
	}
}

// MissingRequired returns the names of required keys that are not set.
func MissingRequired(statuses []KeyStatus) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.IsSet {
			missing = append(missing, s.Name)
		}
	}
	return missing
}

// checkKey checks if a key is set and where it came from.
func checkKey(name, value, envVar string, required bool) KeyStatus {
	status := KeyStatus{
		Name:     name,
		IsSet:    value != "",
		Required: required,
	}

	if value != "" {
		// Check if it came from env
		if os.Getenv(envVar) != "" {
			status.Source = KeySourceEnv
		} else {
			status.Source = KeySourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks an API key for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
