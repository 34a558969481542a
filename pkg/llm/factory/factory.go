package factory

import (
	"fmt"

	"github.com/ramshaali/folio/pkg/llm"
	"github.com/ramshaali/folio/pkg/llm/gemini"
	"github.com/ramshaali/folio/pkg/llm/huggingface"
	"github.com/ramshaali/folio/pkg/llm/ollama"
)

// Params carries everything the supported providers need.
type Params struct {
	Provider       string
	Model          string
	ImageModel     string
	OllamaBaseURL  string
	GeminiAPIKey   string
	HuggingFaceKey string
}

// NewLLMProvider builds the chat provider and, when the backend supports it,
// an image generator. The image generator is nil otherwise.
func NewLLMProvider(p Params) (llm.LLMProvider, llm.ImageGenerator, error) {
	switch p.Provider {
	case "gemini":
		if p.GeminiAPIKey == "" {
			return nil, nil, fmt.Errorf("gemini provider requires GOOGLE_GEMINI_API_KEY")
		}
		g := gemini.NewGeminiProvider(p.GeminiAPIKey, p.Model, p.ImageModel)
		return g, g, nil
	case "ollama":
		baseURL := p.OllamaBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, p.Model), nil, nil
	case "huggingface":
		return huggingface.NewHuggingFaceProvider(p.HuggingFaceKey, "", p.Model), nil, nil
	default:
		return nil, nil, fmt.Errorf("unsupported LLM provider: %s", p.Provider)
	}
}
