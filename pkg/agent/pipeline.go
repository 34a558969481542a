package agent

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/llm"
	"github.com/ramshaali/folio/pkg/store"
)

const logModule = "PIPELINE"

var tracer = otel.Tracer("github.com/ramshaali/folio/pkg/agent")

// Mode is the coordinator state for one run.
type Mode int

const (
	// ModeCreating writes a new article: extract, search, write.
	ModeCreating Mode = iota
	// ModeRefining edits an article the request carried.
	ModeRefining
)

func (m Mode) String() string {
	if m == ModeRefining {
		return "refining"
	}
	return "creating"
}

// RunInput is what a single request hands to the pipeline.
type RunInput struct {
	Prompt        string
	Article       string // prior article content, selects ModeRefining
	GenerateImage bool
}

// ModeFor picks the coordinator branch for a request.
func ModeFor(in RunInput) Mode {
	if strings.TrimSpace(in.Article) != "" {
		return ModeRefining
	}
	return ModeCreating
}

// StatePatcher persists agent outputs into the runtime session.
type StatePatcher interface {
	PatchState(ctx context.Context, sessionID string, patch map[string]interface{}) error
}

// Runner is the contract the HTTP layer depends on.
type Runner interface {
	Run(ctx context.Context, sess *store.Session, in RunInput) *Stream
}

// Pipeline runs the fixed agent topology against a session.
type Pipeline struct {
	extractor *LLMAgent
	searcher  *LLMAgent
	writer    *LLMAgent
	refiner   *LLMAgent
	image     *ImageAgent

	patcher StatePatcher
	logger  logger.ILogger
}

var _ Runner = &Pipeline{}

func NewPipeline(
	provider llm.LLMProvider,
	images llm.ImageGenerator,
	models Models,
	patcher StatePatcher,
	logger logger.ILogger,
) *Pipeline {
	return &Pipeline{
		extractor: NewExtractAgent(provider, models.Extractor),
		searcher:  NewSearchAgent(provider, models.Searcher),
		writer:    NewWriterAgent(provider, models.Writer),
		refiner:   NewRefineAgent(provider, models.Refiner),
		image:     NewImageAgent(provider, images, models.Image),
		patcher:   patcher,
		logger:    logger,
	}
}

// Run starts the pipeline and returns immediately. Steps execute one after
// another in a producer goroutine; each step's event is handed over before
// the next step starts.
func (p *Pipeline) Run(ctx context.Context, sess *store.Session, in RunInput) *Stream {
	mode := ModeFor(in)
	return newStream(ctx, mode, func(ctx context.Context, emit emitFunc) error {
		ctx, span := tracer.Start(ctx, "agent.pipeline", trace.WithAttributes(
			attribute.String("session.id", sess.ID),
			attribute.String("pipeline.mode", mode.String()),
			attribute.Bool("pipeline.image", in.GenerateImage),
		))
		defer span.End()

		p.logger.Info(logModule, "Pipeline started", map[string]interface{}{
			"session_id": sess.ID,
			"mode":       mode.String(),
		})

		var article string
		var err error
		switch mode {
		case ModeRefining:
			article, err = p.step(ctx, sess, emit, p.refiner, refineInput(in.Article, in.Prompt))
		default:
			article, err = p.create(ctx, sess, emit, in.Prompt)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		if in.GenerateImage && strings.TrimSpace(article) != "" {
			if err := p.illustrate(ctx, sess, emit, article); err != nil {
				return err
			}
		}

		p.logger.Info(logModule, "Pipeline finished", map[string]interface{}{"session_id": sess.ID})
		return nil
	})
}

func (p *Pipeline) create(ctx context.Context, sess *store.Session, emit emitFunc, prompt string) (string, error) {
	extracted, err := p.step(ctx, sess, emit, p.extractor, prompt)
	if err != nil {
		return "", err
	}
	if extracted == "" {
		extracted = prompt
	}

	found, err := p.step(ctx, sess, emit, p.searcher, searchInput(extracted))
	if err != nil {
		return "", err
	}

	return p.step(ctx, sess, emit, p.writer, writerInput(prompt, found))
}

func (p *Pipeline) step(ctx context.Context, sess *store.Session, emit emitFunc, a *LLMAgent, input string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ctx, span := tracer.Start(ctx, "agent."+a.Name, trace.WithAttributes(attribute.String("agent.name", a.Name)))
	defer span.End()

	started := time.Now()
	out, err := a.Run(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.logger.Error(logModule, "Agent step failed", map[string]interface{}{
			"session_id": sess.ID,
			"agent":      a.Name,
			"error":      err.Error(),
		})
		return "", err
	}

	p.logger.Debug(logModule, "Agent step done", map[string]interface{}{
		"session_id":  sess.ID,
		"agent":       a.Name,
		"chars":       len(out),
		"duration_ms": time.Since(started).Milliseconds(),
	})

	p.patch(ctx, sess, map[string]interface{}{a.OutputKey: out})

	if err := emit(Event{AgentName: a.Name, Text: out}); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Pipeline) illustrate(ctx context.Context, sess *store.Session, emit emitFunc, article string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := tracer.Start(ctx, "agent."+NameImage, trace.WithAttributes(attribute.String("agent.name", NameImage)))
	defer span.End()

	ev, imagePrompt := p.image.Run(ctx, article)
	if imagePrompt != "" {
		p.patch(ctx, sess, map[string]interface{}{store.StateImagePrompt: imagePrompt})
	}
	span.SetAttributes(attribute.Bool("image.generated", ev.Inline != nil))

	return emit(ev)
}

func (p *Pipeline) patch(ctx context.Context, sess *store.Session, patch map[string]interface{}) {
	if p.patcher == nil {
		sess.Patch(patch)
		return
	}
	if err := p.patcher.PatchState(ctx, sess.ID, patch); err != nil {
		p.logger.Warn(logModule, "Failed to patch session state", map[string]interface{}{
			"session_id": sess.ID,
			"error":      err.Error(),
		})
		sess.Patch(patch)
	}
}
