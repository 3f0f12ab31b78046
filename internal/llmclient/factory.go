// Package llmclient provides LLM provider implementations behind the
// schemas.LLMClient interface.
package llmclient

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

// NewClient creates an LLMClient for the configured provider.
func NewClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (schemas.LLMClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGoogleClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown or unsupported LLM provider %q (supported: %s)",
			cfg.Provider, config.ProviderGemini)
	}
}
