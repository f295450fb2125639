package llmservice

import (
	"testing"

	"manual-spec-rag/internal/config"
)

func TestNewModel(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	if _, err := NewModel(&config.LLMConfig{Provider: config.ProviderOpenAI, BaseURL: "http://localhost:1", Key: "Bearer test", Model: "gpt-4o-mini"}); err != nil {
		t.Errorf("Unexpected error for openai: %v", err)
	}
	if _, err := NewModel(&config.LLMConfig{Provider: config.ProviderOllama, BaseURL: "http://localhost:11434", Model: "llama3"}); err != nil {
		t.Errorf("Unexpected error for ollama: %v", err)
	}
	if _, err := NewModel(&config.LLMConfig{Provider: config.ProviderHash}); err == nil {
		t.Errorf("Expected error for a provider without a chat model")
	}
}

func TestOpenAIOptions(t *testing.T) {
	full := &config.LLMConfig{BaseURL: "http://localhost:1", Key: "k", Model: "m"}
	if got := len(OpenAIOptions(full, true)); got != 3 {
		t.Errorf("Expected 3 options, got %d", got)
	}
	if got := len(OpenAIOptions(&config.LLMConfig{}, false)); got != 0 {
		t.Errorf("Expected no options for an empty config, got %d", got)
	}
	if got := len(OllamaOptions(full)); got != 2 {
		t.Errorf("Expected 2 ollama options, got %d", got)
	}
}
