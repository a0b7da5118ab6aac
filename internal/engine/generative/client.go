package generative

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/ktnshm/receipt-scanner/internal/models"
	"github.com/ktnshm/receipt-scanner/pkg/logger"
)

// Config carries the generative client settings.
type Config struct {
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client wraps the Gemini API for receipt extraction. Temperature is
// pinned to zero so repeated calls stay as deterministic as the upstream
// allows.
type Client struct {
	logger     logger.Logger
	client     *genai.Client
	model      *genai.GenerativeModel
	modelName  string
	timeout    time.Duration
	maxRetries int
}

// NewClient creates a Gemini-backed extraction client. A missing API key
// is reported as upstream unavailability so callers can degrade to
// pattern extraction.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GEMINI_API_KEY not set", models.ErrUpstreamUnavailable)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(0)
	model.ResponseMIMEType = "application/json"

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}

	return &Client{
		logger:     log,
		client:     client,
		model:      model,
		modelName:  cfg.Model,
		timeout:    timeout,
		maxRetries: retries,
	}, nil
}

// Close releases the underlying API connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// ModelName returns the configured model identifier for provenance.
func (c *Client) ModelName() string {
	return c.modelName
}

// ExtractFromText structures already-OCRed receipt text.
func (c *Client) ExtractFromText(ctx context.Context, text string) (*models.Receipt, error) {
	raw, err := c.generate(ctx, genai.Text(textPrompt(text)))
	if err != nil {
		return nil, err
	}
	return parseResponse(raw)
}

// ExtractFromImage sends the receipt image itself to the model. The image
// must already be PNG encoded.
func (c *Client) ExtractFromImage(ctx context.Context, pngData []byte) (*models.Receipt, error) {
	raw, err := c.generate(ctx, genai.ImageData("png", pngData), genai.Text(visionPrompt()))
	if err != nil {
		return nil, err
	}
	receipt, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	receipt.Source = models.SourceVision
	return receipt, nil
}

// generate calls the model with a per-call timeout and exponential
// backoff, returning the text of the first candidate.
func (c *Client) generate(ctx context.Context, parts ...genai.Part) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			delay := time.Duration(1<<(attempt-2)) * time.Second
			c.logger.Info("retrying generative call",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, ctx.Err())
			case <-time.After(delay):
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.model.GenerateContent(callCtx, parts...)
		cancel()
		if err == nil {
			text := responseText(resp)
			if text == "" {
				lastErr = errors.New("empty model response")
				continue
			}
			return text, nil
		}

		lastErr = err
		c.logger.Warn("generative call failed",
			logger.Int("attempt", attempt),
			logger.Error(err))
		if ctx.Err() != nil {
			break
		}
	}
	return "", fmt.Errorf("%w: %v", models.ErrUpstreamUnavailable, lastErr)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok && string(text) != "" {
			return string(text)
		}
	}
	return ""
}
