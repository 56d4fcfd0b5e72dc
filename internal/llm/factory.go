package llm

import (
	"context"
	"fmt"

	"treecare/internal/config"
)

// New builds the client for cfg.LLM.Provider.
func New(ctx context.Context, cfg *config.Config) (Client, error) {
	llmCfg := cfg.LLM
	if llmCfg.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for llm provider %q", llmCfg.Provider)
	}

	switch llmCfg.Provider {
	case "groq", "":
		return NewOpenAIClient(orDefault(llmCfg.BaseURL, groqAPIURL), orDefault(llmCfg.Model, groqModel), llmCfg.APIKey, cfg.LLMTimeout()), nil
	case "openai":
		return NewOpenAIClient(orDefault(llmCfg.BaseURL, openAIAPIURL), orDefault(llmCfg.Model, openAIModel), llmCfg.APIKey, cfg.LLMTimeout()), nil
	case "gemini":
		return NewGeminiClient(ctx, llmCfg.APIKey, llmCfg.Model)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", llmCfg.Provider)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
