package llm

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
)

// Provider represents the LLM provider type.
type Provider string

const (
	ProviderDatabricks Provider = "databricks"
	ProviderClaude     Provider = "claude"
	ProviderOpenAI     Provider = "openai"
	ProviderGemini     Provider = "gemini"
)

// New creates a Client based on provider and configuration. Recognized
// config keys: api_key, model, host, token.
func New(provider Provider, config map[string]string, log *zap.Logger) (Client, error) {
	switch provider {
	case ProviderDatabricks, "":
		host := config["host"]
		token := config["token"]
		if host == "" || token == "" {
			return nil, fmt.Errorf("Databricks host and token are required")
		}
		model := config["model"]
		if model == "" {
			model = "databricks-claude-sonnet-4"
		}
		return NewDatabricks(host, token, model, log), nil

	case ProviderClaude:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("Claude API key is required")
		}
		if model := config["model"]; model != "" {
			return NewClaudeWithModel(apiKey, model), nil
		}
		return NewClaude(apiKey), nil

	case ProviderOpenAI:
		apiKey := config["api_key"]
		if apiKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		if model := config["model"]; model != "" {
			return NewOpenAIWithModel(apiKey, model), nil
		}
		return NewOpenAI(apiKey), nil

	case ProviderGemini:
		return NewGemini(config["api_key"], config["model"])

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: databricks, claude, openai, gemini)", provider)
	}
}

// FromEnv creates a Client from environment variables. LLM_PROVIDER selects
// the provider; it defaults to the Databricks serving endpoint.
func FromEnv(log *zap.Logger) (Client, error) {
	provider := Provider(strings.ToLower(os.Getenv("LLM_PROVIDER")))

	switch provider {
	case ProviderDatabricks, "":
		return New(ProviderDatabricks, map[string]string{
			"host":  os.Getenv("DATABRICKS_HOST"),
			"token": os.Getenv("DATABRICKS_TOKEN"),
			"model": os.Getenv("LLM_MODEL"),
		}, log)
	case ProviderClaude:
		return New(ProviderClaude, map[string]string{
			"api_key": os.Getenv("ANTHROPIC_API_KEY"),
			"model":   os.Getenv("CLAUDE_MODEL"),
		}, log)
	case ProviderOpenAI:
		return New(ProviderOpenAI, map[string]string{
			"api_key": os.Getenv("OPENAI_API_KEY"),
			"model":   os.Getenv("OPENAI_MODEL"),
		}, log)
	case ProviderGemini:
		return New(ProviderGemini, map[string]string{
			"api_key": os.Getenv("GEMINI_API_KEY"),
			"model":   os.Getenv("GEMINI_MODEL"),
		}, log)
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %s", provider)
	}
}
