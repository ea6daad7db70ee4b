package embedding

import (
	"fmt"
	"time"

	"complaintrag/internal/config"
	"complaintrag/internal/domain"
	"complaintrag/internal/embedding/hashing"
	"complaintrag/internal/embedding/openai"
)

// New assembles the embedder selected by cfg.Type.
func New(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "hashing", "":
		return hashing.NewEmbedder(cfg.Dimension)
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		return openai.NewClient(openai.Config{
			BaseURL:     cfg.OpenAI.BaseURL,
			APIKeyEnv:   cfg.OpenAI.APIKeyEnv,
			Model:       cfg.OpenAI.Model,
			Timeout:     time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize:   cfg.OpenAI.BatchSize,
			Concurrency: cfg.OpenAI.Concurrency,
		})
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}
