package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/webpilot-ai/webpilot/api/schemas"
	"github.com/webpilot-ai/webpilot/internal/config"
)

// GoogleClient implements schemas.LLMClient against the Gemini API via the
// official genai SDK. Requests are rate limited client-side and retried with
// exponential backoff on transient API errors.
type GoogleClient struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *zap.Logger
}

// NewGoogleClient initializes the client. The API key is mandatory.
func NewGoogleClient(ctx context.Context, cfg config.LLMModelConfig, logger *zap.Logger) (*GoogleClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required (set WEBPILOT_GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	return &GoogleClient{
		client:  client,
		model:   cfg.Model,
		limiter: limiter,
		timeout: timeout,
		logger:  logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompts to the Gemini API and returns the generated text.
func (c *GoogleClient) Generate(ctx context.Context, req schemas.GenerationRequest) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait aborted: %w", err)
	}

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Options.Temperature)),
	}
	if req.SystemPrompt != "" {
		genConfig.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}
	if req.Options.ForceJSONFormat {
		genConfig.ResponseMIMEType = "application/json"
	}
	if req.Options.MaxOutputTokens > 0 {
		genConfig.MaxOutputTokens = int32(req.Options.MaxOutputTokens)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var responseText string

	operation := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		startTime := time.Now()
		resp, err := c.client.Models.GenerateContent(callCtx, c.model, genai.Text(req.UserPrompt), genConfig)
		duration := time.Since(startTime)

		if err != nil {
			return c.classifyError(err)
		}

		text := resp.Text()
		if text == "" {
			// Safety blocks are not worth retrying; empty candidates sometimes are.
			if len(resp.Candidates) > 0 {
				reason := string(resp.Candidates[0].FinishReason)
				if reason == "SAFETY" || reason == "PROHIBITED_CONTENT" {
					return backoff.Permanent(fmt.Errorf("gemini blocked the request (reason: %s)", reason))
				}
				return fmt.Errorf("gemini returned empty content (reason: %s)", reason)
			}
			return fmt.Errorf("gemini returned no candidates")
		}

		c.logger.Info("LLM generation complete",
			zap.String("model", c.model),
			zap.Duration("duration", duration),
		)
		responseText = text
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return responseText, nil
}

// classifyError decides retry policy for API failures. Rate limiting and
// server-side faults are transient; everything else is permanent.
func (c *GoogleClient) classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		c.logger.Warn("Gemini API error",
			zap.Int("status", apiErr.Code),
			zap.String("message", apiErr.Message),
		)
		switch apiErr.Code {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusServiceUnavailable:
			return err
		default:
			return backoff.Permanent(err)
		}
	}
	// Network-level failures retry.
	c.logger.Warn("Network error during LLM request, retrying", zap.Error(err))
	return err
}

// Close releases client resources. The genai HTTP client holds no persistent
// connections that need explicit teardown.
func (c *GoogleClient) Close() error {
	return nil
}
