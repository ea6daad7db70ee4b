package generator

import (
	"fmt"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/generator/extractive"
	"complaintrag/internal/generator/openai"
)

// New assembles the generator selected by cfg.Type.
func New(cfg config.GeneratorConfig) (domain.Generator, error) {
	switch cfg.Type {
	case "extractive", "":
		return extractive.New(cfg.MaxSentences, cfg.MaxTokens), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai generator config missing")
		}
		return openai.New(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		})
	default:
		return nil, fmt.Errorf("unknown generator: %s", cfg.Type)
	}
}
