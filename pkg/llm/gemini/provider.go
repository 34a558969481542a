package gemini

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ramshaali/folio/pkg/llm"
)

const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []*geminiPart `json:"parts"`
	Role  string        `json:"role,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature        *float64               `json:"temperature,omitempty"`
	MaxOutputTokens    int                    `json:"maxOutputTokens,omitempty"`
	ResponseMimeType   string                 `json:"responseMimeType,omitempty"`
	ResponseJSONSchema map[string]interface{} `json:"responseJsonSchema,omitempty"`
	ResponseModalities []string               `json:"responseModalities,omitempty"`
}

type geminiRequest struct {
	Contents          []*geminiContent        `json:"contents"`
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Tools             []*geminiTool           `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content *geminiContent `json:"content"`
}

type geminiResponse struct {
	Candidates []*geminiCandidate `json:"candidates"`
}

// GeminiProvider talks to the Generative Language REST API.
type GeminiProvider struct {
	apiKey     string
	baseURL    string
	model      string
	imageModel string
	client     *http.Client
}

var (
	_ llm.LLMProvider    = &GeminiProvider{}
	_ llm.ImageGenerator = &GeminiProvider{}
)

func NewGeminiProvider(apiKey, model, imageModel string) *GeminiProvider {
	return NewGeminiProviderWithBaseURL(DefaultBaseURL, apiKey, model, imageModel)
}

func NewGeminiProviderWithBaseURL(baseURL, apiKey, model, imageModel string) *GeminiProvider {
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	return &GeminiProvider{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		imageModel: imageModel,
		client:     &http.Client{Timeout: 300 * time.Second},
	}
}

func (g *GeminiProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	options := llm.Apply(llm.Options{Model: g.model}, opts...)

	req := &geminiRequest{}
	for _, msg := range history {
		if msg.Role == "system" {
			req.SystemInstruction = &geminiContent{Parts: []*geminiPart{{Text: msg.Content}}}
			continue
		}
		role := msg.Role
		if role == "assistant" {
			role = "model"
		}
		req.Contents = append(req.Contents, &geminiContent{
			Parts: []*geminiPart{{Text: msg.Content}},
			Role:  role,
		})
	}

	cfg := &geminiGenerationConfig{
		Temperature:     options.Temperature,
		MaxOutputTokens: options.MaxTokens,
	}
	if options.JSONSchema != nil {
		cfg.ResponseMimeType = "application/json"
		cfg.ResponseJSONSchema = options.JSONSchema
	}
	req.GenerationConfig = cfg

	if options.WebSearch {
		req.Tools = []*geminiTool{{GoogleSearch: &struct{}{}}}
	}

	res, err := g.generateContent(ctx, options.Model, req)
	if err != nil {
		return "", err
	}

	var texts []string
	for _, part := range res.Parts {
		if part.Text != "" {
			texts = append(texts, part.Text)
		}
	}
	if len(texts) == 0 {
		return "", fmt.Errorf("gemini returned no text parts")
	}
	return strings.Join(texts, ""), nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return g.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

// GenerateImage asks the image model for one picture and returns the first
// inline data part.
func (g *GeminiProvider) GenerateImage(ctx context.Context, prompt string, opts ...llm.Option) (*llm.Image, error) {
	options := llm.Apply(llm.Options{Model: g.imageModel}, opts...)

	req := &geminiRequest{
		Contents: []*geminiContent{{
			Parts: []*geminiPart{{Text: prompt}},
			Role:  "user",
		}},
		GenerationConfig: &geminiGenerationConfig{
			ResponseModalities: []string{"TEXT", "IMAGE"},
		},
	}

	res, err := g.generateContent(ctx, options.Model, req)
	if err != nil {
		return nil, err
	}

	for _, part := range res.Parts {
		if part.InlineData == nil || part.InlineData.Data == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("decode inline image: %w", err)
		}
		return &llm.Image{MimeType: part.InlineData.MimeType, Data: data}, nil
	}
	return nil, fmt.Errorf("no image data received")
}

func (g *GeminiProvider) generateContent(ctx context.Context, model string, payload *geminiRequest) (*geminiContent, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(payloadJson))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("x-goog-api-key", g.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes geminiResponse
	if err := json.Unmarshal(resBody, &geminiRes); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(geminiRes.Candidates) == 0 || geminiRes.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}
	return geminiRes.Candidates[0].Content, nil
}
