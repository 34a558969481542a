package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/classifier"
)

const logModule = "STREAM"

const (
	StatusInit = "init"
	StatusDone = "done"
)

// InitFrame opens every stream.
type InitFrame struct {
	Status    string `json:"status"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
}

// AgentFrame is a raw event from an agent that is not classified.
type AgentFrame struct {
	AgentName string `json:"agent_name"`
	Text      string `json:"text"`
}

// DoneFrame closes every stream.
type DoneFrame struct {
	Status string `json:"status"`
}

// Meta identifies the session a stream belongs to.
type Meta struct {
	SessionID string
	UserID    string
}

// EventSource is the part of agent.Stream the multiplexer consumes.
type EventSource interface {
	Next(ctx context.Context) (agent.Event, bool, error)
}

// Flusher is implemented by buffered writers that must be flushed to reach
// the client.
type Flusher interface {
	Flush() error
}

// Summary describes what a finished stream carried. Unclassified counts the
// classifier passthroughs among the content frames.
type Summary struct {
	Frames        int
	ContentFrames int
	Unclassified  int
	Agents        []string
	ImageProduced bool
	Disconnected  bool
	// PipelineErr is the error that ended the pipeline, if any.
	PipelineErr error
}

// Multiplexer serializes pipeline events into newline-delimited JSON frames.
type Multiplexer struct {
	classifier classifier.Classifier
	logger     logger.ILogger
}

func NewMultiplexer(c classifier.Classifier, logger logger.ILogger) *Multiplexer {
	return &Multiplexer{classifier: c, logger: logger}
}

// Run writes the init frame, one frame per event carrying text, and a final
// done frame. The done frame is written whatever way the pipeline ends. A
// write failure means the client is gone; Run then stops consuming and
// returns the write error.
func (m *Multiplexer) Run(ctx context.Context, w io.Writer, meta Meta, events EventSource) (Summary, error) {
	var summary Summary
	fw := &frameWriter{w: w}

	if err := fw.write(InitFrame{Status: StatusInit, SessionID: meta.SessionID, UserID: meta.UserID}); err != nil {
		summary.Disconnected = true
		return summary, err
	}
	summary.Frames++

	for {
		ev, ok, err := events.Next(ctx)
		if err != nil {
			summary.PipelineErr = err
			m.logPipelineEnd(meta, err)
			break
		}
		if !ok {
			break
		}
		if !ev.HasText() {
			continue
		}

		frame := m.frameFor(ctx, ev)
		if out, ok := frame.(classifier.Output); ok && out.Failed() {
			summary.Unclassified++
			m.logger.Warn(logModule, "Classifier fell back to passthrough", map[string]interface{}{
				"session_id": meta.SessionID,
				"agent_name": ev.AgentName,
				"error":      out.Error,
			})
		}
		if ev.AgentName == agent.NameImage {
			if p, ok := agent.ParseImagePayload(ev.Text); ok && p.HasImage() {
				summary.ImageProduced = true
			}
		}

		if err := fw.write(frame); err != nil {
			summary.Disconnected = true
			return summary, err
		}
		summary.Frames++
		summary.ContentFrames++
		summary.Agents = append(summary.Agents, ev.AgentName)
	}

	if err := fw.write(DoneFrame{Status: StatusDone}); err != nil {
		summary.Disconnected = true
		return summary, err
	}
	summary.Frames++
	return summary, nil
}

func (m *Multiplexer) frameFor(ctx context.Context, ev agent.Event) interface{} {
	if classifier.ShouldClassify(ev.AgentName) {
		return m.classifier.Classify(ctx, ev.AgentName, ev.Text)
	}
	return AgentFrame{AgentName: ev.AgentName, Text: ev.Text}
}

func (m *Multiplexer) logPipelineEnd(meta Meta, err error) {
	if errors.Is(err, agent.ErrNoOutput) {
		m.logger.Warn(logModule, "Pipeline produced no output", map[string]interface{}{"session_id": meta.SessionID})
		return
	}
	if errors.Is(err, context.Canceled) {
		m.logger.Info(logModule, "Pipeline cancelled", map[string]interface{}{"session_id": meta.SessionID})
		return
	}
	m.logger.Error(logModule, "Pipeline failed", map[string]interface{}{
		"session_id": meta.SessionID,
		"error":      err.Error(),
	})
}

type frameWriter struct {
	w io.Writer
}

// write encodes one frame followed by a newline and flushes it.
func (f *frameWriter) write(frame interface{}) error {
	b, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	b = append(b, '\n')
	if _, err := f.w.Write(b); err != nil {
		return err
	}
	if fl, ok := f.w.(Flusher); ok {
		return fl.Flush()
	}
	return nil
}
