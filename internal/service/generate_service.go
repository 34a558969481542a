package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/ramshaali/folio/internal/dto"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/store"
	"github.com/ramshaali/folio/pkg/stream"
)

const generateLogModule = "GENERATE"

type IGenerateService interface {
	// NewSession backs POST /api/session/new. clientId may be empty.
	NewSession(ctx context.Context, clientId string) (*dto.NewSessionResponse, error)
	// Generate runs the pipeline to completion.
	Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error)
	// PrepareStream validates the request and resolves its session before
	// the response is committed, so failures can still become HTTP errors.
	PrepareStream(ctx context.Context, req *dto.GenerateRequest) (*store.Session, error)
	// Stream writes NDJSON frames for an already prepared session to w.
	Stream(ctx context.Context, w io.Writer, sess *store.Session, req *dto.GenerateRequest) (stream.Summary, error)
}

type generateService struct {
	sessions        ISessionService
	runner          agent.Runner
	mux             *stream.Multiplexer
	publisher       IPublisherService
	logger          logger.ILogger
	requireClientId bool
}

func NewGenerateService(
	sessions ISessionService,
	runner agent.Runner,
	mux *stream.Multiplexer,
	publisher IPublisherService,
	logger logger.ILogger,
	requireClientId bool,
) IGenerateService {
	return &generateService{
		sessions:        sessions,
		runner:          runner,
		mux:             mux,
		publisher:       publisher,
		logger:          logger,
		requireClientId: requireClientId,
	}
}

func (s *generateService) NewSession(ctx context.Context, clientId string) (*dto.NewSessionResponse, error) {
	var (
		sess *store.Session
		err  error
	)
	if clientId != "" {
		sess, err = s.sessions.ResolveOrCreate(ctx, clientId, "")
	} else {
		sess, err = s.sessions.Create(ctx, "")
	}
	if err != nil {
		return nil, err
	}

	return &dto.NewSessionResponse{
		SessionId: sess.ID,
		UserId:    sess.UserID,
		ClientId:  clientId,
	}, nil
}

// resolveSession picks the session a generate request runs in. A known
// session_id is reused; an unknown one is logged and replaced.
func (s *generateService) resolveSession(ctx context.Context, req *dto.GenerateRequest) (*store.Session, error) {
	if req.SessionId != "" {
		sess, err := s.sessions.Get(ctx, req.SessionId)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, ErrSessionNotFound) {
			return nil, err
		}
		s.logger.Warn(generateLogModule, "Unknown session id, resolving a new session", map[string]interface{}{
			"session_id": req.SessionId,
			"client_id":  req.ClientId,
		})
	}

	if req.ClientId != "" {
		return s.sessions.ResolveOrCreate(ctx, req.ClientId, req.UserId)
	}
	return s.sessions.Create(ctx, req.UserId)
}

func validatePrompt(req *dto.GenerateRequest) error {
	if strings.TrimSpace(req.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

func runInput(req *dto.GenerateRequest) agent.RunInput {
	return agent.RunInput{
		Prompt:        req.Prompt,
		Article:       req.Article,
		GenerateImage: req.GenerateImage,
	}
}

func (s *generateService) Generate(ctx context.Context, req *dto.GenerateRequest) (*dto.GenerateResponse, error) {
	if err := validatePrompt(req); err != nil {
		return nil, err
	}

	sess, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	st := s.runner.Run(ctx, sess, runInput(req))
	defer st.Close()

	evs, err := st.Collect(ctx)
	if err != nil {
		s.logger.Error(generateLogModule, "Generation failed", map[string]interface{}{
			"session_id": sess.ID,
			"mode":       st.Mode().String(),
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("generate: %w", err)
	}

	res := &dto.GenerateResponse{
		SessionId: sess.ID,
		UserId:    sess.UserID,
	}
	agents := make([]string, 0, len(evs))
	for _, ev := range evs {
		if !ev.HasText() {
			continue
		}
		res.Output = ev.Text
		res.AgentOutputs = append(res.AgentOutputs, dto.AgentOutputDTO{AgentName: ev.AgentName, Text: ev.Text})
		agents = append(agents, ev.AgentName)
	}

	s.logger.Info(generateLogModule, "Generation completed", map[string]interface{}{
		"session_id":  sess.ID,
		"mode":        st.Mode().String(),
		"events":      len(res.AgentOutputs),
		"duration_ms": time.Since(started).Milliseconds(),
	})
	s.completed(ctx, sess, st.Mode(), "sync", agents, false)

	return res, nil
}

func (s *generateService) PrepareStream(ctx context.Context, req *dto.GenerateRequest) (*store.Session, error) {
	if err := validatePrompt(req); err != nil {
		return nil, err
	}
	if s.requireClientId && req.ClientId == "" {
		return nil, ErrMissingClientID
	}
	return s.resolveSession(ctx, req)
}

func (s *generateService) Stream(ctx context.Context, w io.Writer, sess *store.Session, req *dto.GenerateRequest) (stream.Summary, error) {
	started := time.Now()
	st := s.runner.Run(ctx, sess, runInput(req))
	// Close cancels the producer if the client went away mid-run
	defer st.Close()

	summary, err := s.mux.Run(ctx, w, stream.Meta{SessionID: sess.ID, UserID: sess.UserID}, st)
	if err != nil {
		s.logger.Info(generateLogModule, "Client disconnected from stream", map[string]interface{}{
			"session_id": sess.ID,
			"frames":     summary.Frames,
			"error":      err.Error(),
		})
		return summary, err
	}

	s.logger.Info(generateLogModule, "Stream completed", map[string]interface{}{
		"session_id":   sess.ID,
		"mode":         st.Mode().String(),
		"frames":       summary.Frames,
		"unclassified": summary.Unclassified,
		"duration_ms":  time.Since(started).Milliseconds(),
	})
	if summary.PipelineErr == nil {
		// The request context may already be done once the body is flushed
		s.completed(context.Background(), sess, st.Mode(), "stream", summary.Agents, summary.ImageProduced)
	}
	return summary, nil
}

func (s *generateService) completed(ctx context.Context, sess *store.Session, mode agent.Mode, transport string, agents []string, image bool) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishEvent(ctx, EventGenerationCompleted, map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
		"mode":       mode.String(),
		"transport":  transport,
		"agents":     agents,
		"image":      image,
	})
	if err != nil {
		s.logger.Warn(generateLogModule, "Failed to publish lifecycle event", map[string]interface{}{
			"event": EventGenerationCompleted,
			"error": err.Error(),
		})
	}
}
