package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	openai "github.com/sashabaranov/go-openai"

	"github.com/covercraft/docrag/internal/domain"
)

const (
	// DefaultEmbeddingModel is the OpenAI model used for generating embeddings
	DefaultEmbeddingModel = openai.AdaEmbeddingV2
	// DefaultEmbeddingDimensions is the expected dimension of embeddings from ada-002
	DefaultEmbeddingDimensions = 1536
	// DefaultChatModel is the model used to generate grounded answers
	DefaultChatModel = openai.GPT4o

	defaultTemperature = 0.2
	defaultTimeout     = 30 * time.Second
	defaultMaxRetries  = 3
	defaultBatchSize   = 100
)

// ErrEmptyInput is returned when there is no text to embed
var ErrEmptyInput = errors.New("no input text")

// API is the slice of the OpenAI client the adapter needs. Narrowed
// for testability.
type API interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Config struct {
	APIKey              string
	EmbeddingModel      openai.EmbeddingModel
	EmbeddingDimensions int
	ChatModel           string
	Temperature         float32
	Timeout             time.Duration
	MaxRetries          int
	BatchSize           int
}

// Client wraps the OpenAI API client with batching, per-call timeouts
// and bounded exponential-backoff retries. It is safe for concurrent
// use and intended to be constructed once at process start.
type Client struct {
	api         API
	model       openai.EmbeddingModel
	chatModel   string
	temperature float32
	dimensions  int
	timeout     time.Duration
	maxRetries  int
	batchSize   int
}

// NewClient creates a new OpenAI client using defaults.
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{APIKey: apiKey})
}

// NewClientWithConfig creates a new OpenAI client with explicit configuration.
func NewClientWithConfig(cfg Config) *Client {
	c := &Client{
		api:         openai.NewClient(cfg.APIKey),
		model:       cfg.EmbeddingModel,
		chatModel:   cfg.ChatModel,
		temperature: cfg.Temperature,
		dimensions:  cfg.EmbeddingDimensions,
		timeout:     cfg.Timeout,
		maxRetries:  cfg.MaxRetries,
		batchSize:   cfg.BatchSize,
	}
	if c.model == "" {
		c.model = DefaultEmbeddingModel
	}
	if c.chatModel == "" {
		c.chatModel = DefaultChatModel
	}
	if c.temperature <= 0 {
		c.temperature = defaultTemperature
	}
	if c.dimensions <= 0 {
		c.dimensions = DefaultEmbeddingDimensions
	}
	if c.timeout <= 0 {
		c.timeout = defaultTimeout
	}
	if c.maxRetries <= 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.batchSize <= 0 {
		c.batchSize = defaultBatchSize
	}
	return c
}

// EmbedBatch generates one embedding per input text, in input order.
// Inputs are sent to the provider in batches of at most BatchSize per
// request. Transient provider failures are retried with exponential
// backoff; after retries exhaust, the batch fails with
// ErrEmbeddingProvider (or ErrUpstreamTimeout for deadline failures).
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += c.batchSize {
		end := start + c.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[start:end]

		vectors, err := c.embedOnce(ctx, batch)
		if err != nil {
			return nil, classifyProviderError(domain.ErrEmbeddingProvider, err)
		}
		out = append(out, vectors...)
	}

	return out, nil
}

func (c *Client) embedOnce(ctx context.Context, batch []string) ([][]float32, error) {
	var resp openai.EmbeddingResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var err error
		resp, err = c.api.CreateEmbeddings(callCtx, openai.EmbeddingRequest{
			Input: batch,
			Model: c.model,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != len(batch) {
		return nil, fmt.Errorf("provider returned %d embeddings for %d inputs", len(resp.Data), len(batch))
	}

	vectors := make([][]float32, len(batch))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(batch) {
			return nil, fmt.Errorf("provider returned out-of-range embedding index %d", d.Index)
		}
		if len(d.Embedding) != c.dimensions {
			return nil, fmt.Errorf("embedding has %d dimensions, expected %d", len(d.Embedding), c.dimensions)
		}
		vectors[d.Index] = d.Embedding
	}
	for i, v := range vectors {
		if v == nil {
			return nil, fmt.Errorf("provider returned no embedding for input %d", i)
		}
	}
	return vectors, nil
}

// Generate produces a chat completion for the given system and user
// messages. Failures after retries surface as ErrGeneration or
// ErrUpstreamTimeout.
func (c *Client) Generate(ctx context.Context, system, user string) (string, error) {
	var resp openai.ChatCompletionResponse
	err := c.withRetry(ctx, func(callCtx context.Context) error {
		var err error
		resp, err = c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Temperature: c.temperature,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
		})
		return err
	})
	if err != nil {
		return "", classifyProviderError(domain.ErrGeneration, err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: provider returned no completion", domain.ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}

// withRetry runs op with a per-attempt timeout and retries transient
// failures with exponential backoff, up to maxRetries additional
// attempts.
func (c *Client) withRetry(ctx context.Context, op func(context.Context) error) error {
	attempt := func() error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		err := op(callCtx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(c.maxRetries)),
		ctx,
	)
	return backoff.Retry(attempt, policy)
}

func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == 408, apiErr.HTTPStatusCode == 429:
			return true
		case apiErr.HTTPStatusCode >= 500:
			return true
		default:
			// Auth, validation and other 4xx failures will not heal on retry.
			return false
		}
	}
	// Transport-level failures (connection resets, per-attempt timeouts).
	return true
}

func classifyProviderError(kind *domain.DomainError, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %v", kind, err)
}
