package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature *float64 // nil keeps the provider default
	MaxTokens   int
	Model       string // Override default model

	// JSONSchema constrains the reply to a JSON document matching the schema.
	JSONSchema map[string]interface{}

	// WebSearch asks the provider to ground the reply with a web search tool.
	// Providers without such a tool ignore it.
	WebSearch bool
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = &temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		if model != "" {
			o.Model = model
		}
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithJSONSchema(schema map[string]interface{}) Option {
	return func(o *Options) {
		o.JSONSchema = schema
	}
}

func WithWebSearch() Option {
	return func(o *Options) {
		o.WebSearch = true
	}
}

// Apply folds opts over the defaults.
func Apply(defaults Options, opts ...Option) *Options {
	o := defaults
	for _, opt := range opts {
		opt(&o)
	}
	return &o
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// Image is raw image bytes returned by an ImageGenerator.
type Image struct {
	MimeType string
	Data     []byte
}

// ImageGenerator renders a single image from a text prompt.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, options ...Option) (*Image, error)
}
