package agent

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ramshaali/folio/pkg/llm"
	"github.com/ramshaali/folio/pkg/store"
)

// LLMAgent is a single instruction-driven model call whose reply is stored in
// session state under OutputKey.
type LLMAgent struct {
	Name        string
	Instruction string
	OutputKey   string
	Model       string
	WebSearch   bool

	provider llm.LLMProvider
}

func (a *LLMAgent) Run(ctx context.Context, input string) (string, error) {
	opts := []llm.Option{llm.WithModel(a.Model)}
	if a.WebSearch {
		opts = append(opts, llm.WithWebSearch())
	}
	reply, err := a.provider.Chat(ctx, []llm.Message{
		{Role: "system", Content: a.Instruction},
		{Role: "user", Content: input},
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%s: %w", a.Name, err)
	}
	return strings.TrimSpace(reply), nil
}

// Models selects a model per agent. Empty values use the provider default.
type Models struct {
	Extractor string
	Searcher  string
	Writer    string
	Refiner   string
	Image     string
}

func NewExtractAgent(provider llm.LLMProvider, model string) *LLMAgent {
	return &LLMAgent{
		Name:      NameExtractor,
		OutputKey: store.StateExtractedData,
		Model:     model,
		provider:  provider,
		Instruction: "You are the Extractor Agent. Given a user prompt, identify if it includes a website, topic, or keyword. " +
			"If a link is present, extract it. If no link, extract the best keyword or phrase for searching. " +
			"If no clear keyword, fallback to the full user input as the search query. " +
			"Always return your extraction result directly as plain text only, without any JSON formatting.",
	}
}

func NewSearchAgent(provider llm.LLMProvider, model string) *LLMAgent {
	return &LLMAgent{
		Name:        NameSearcher,
		OutputKey:   store.StateSearchResults,
		Model:       model,
		WebSearch:   true,
		provider:    provider,
		Instruction: "Use web search to retrieve accurate, real-time information about the user's topic and summarize it.",
	}
}

func NewWriterAgent(provider llm.LLMProvider, model string) *LLMAgent {
	return &LLMAgent{
		Name:      NameWriter,
		OutputKey: store.StateDraftArticle,
		Model:     model,
		provider:  provider,
		Instruction: "You are the Writer Agent. Given the user prompt and retrieved web content, " +
			"compose a coherent, human-like Medium article with an introduction, " +
			"main content, and conclusion. Maintain a professional yet creative tone.",
	}
}

func NewRefineAgent(provider llm.LLMProvider, model string) *LLMAgent {
	return &LLMAgent{
		Name:      NameRefiner,
		OutputKey: store.StateRefinedArticle,
		Model:     model,
		provider:  provider,
		Instruction: "You are the Refine Agent. Improve the provided article text " +
			"by enhancing tone, grammar, clarity, and flow according to the user's instructions. " +
			"Apply any user-specified edits exactly as requested. " +
			"Return only the fully refined article text as a plain response.",
	}
}

func searchInput(extracted string) string {
	return "Search the web and summarize: " + extracted
}

func writerInput(prompt, searchResults string) string {
	return fmt.Sprintf("User prompt:\n%s\n\nRetrieved web content:\n%s", prompt, searchResults)
}

func refineInput(article, instructions string) string {
	return fmt.Sprintf("Article:\n%s\n\nUser instructions:\n%s", article, instructions)
}

// ImageAgent derives an image prompt from an article and renders it.
type ImageAgent struct {
	provider llm.LLMProvider
	images   llm.ImageGenerator
	model    string
}

func NewImageAgent(provider llm.LLMProvider, images llm.ImageGenerator, model string) *ImageAgent {
	return &ImageAgent{provider: provider, images: images, model: model}
}

// Run never fails: problems are reported inside the JSON payload, the way the
// image tool reports them to the rest of the pipeline.
func (a *ImageAgent) Run(ctx context.Context, article string) (Event, string) {
	ev := Event{AgentName: NameImage}

	failed := func(err error) (Event, string) {
		ev.Text = marshalImagePayload(ImagePayload{ArticleText: article, Error: err.Error()})
		return ev, ""
	}

	if a.images == nil {
		return failed(fmt.Errorf("image generation is not configured"))
	}

	imagePrompt, err := a.provider.Generate(ctx,
		fmt.Sprintf("Generate a short but vivid prompt for an AI image generation model to visualize the following article:\n\n%s\n\nPrompt:", article),
		llm.WithModel(a.model),
	)
	if err != nil {
		return failed(fmt.Errorf("prompt generation failed: %w", err))
	}
	imagePrompt = strings.TrimSpace(imagePrompt)
	if imagePrompt == "" {
		return failed(fmt.Errorf("failed to generate image prompt"))
	}

	img, err := a.images.GenerateImage(ctx, imagePrompt)
	if err != nil {
		return failed(fmt.Errorf("image generation failed: %w", err))
	}

	ev.Text = marshalImagePayload(ImagePayload{
		ArticleText: article,
		ImagePrompt: imagePrompt,
		ImageBase64: base64.StdEncoding.EncodeToString(img.Data),
	})
	ev.Inline = &InlineData{MimeType: img.MimeType, Data: img.Data}
	return ev, imagePrompt
}

func marshalImagePayload(p ImagePayload) string {
	b, _ := json.Marshal(p)
	return string(b)
}
