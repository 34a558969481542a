package service

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/repository/memory"
	"github.com/ramshaali/folio/pkg/classifier"
	"github.com/ramshaali/folio/pkg/llm"
)

type recordedEvent struct {
	Type string
	Data map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ []byte) error {
	return p.err
}

func (p *recordingPublisher) PublishEvent(_ context.Context, eventType string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Data: data})
	return p.err
}

func (p *recordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// flakyRuntime fails deletes on demand.
type flakyRuntime struct {
	*memory.SessionRepository
	deleteErr error
	deleted   []string
}

func newFlakyRuntime() *flakyRuntime {
	return &flakyRuntime{SessionRepository: memory.NewSessionRepository(0)}
}

func (r *flakyRuntime) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	if r.deleteErr != nil {
		return r.deleteErr
	}
	return r.SessionRepository.Delete(ctx, id)
}

type failingDurable struct {
	*memory.ClientSessionRepository
	upsertErr error
	findErr   error
}

func (d *failingDurable) FindByClientId(ctx context.Context, id string) (*entity.ClientSession, error) {
	if d.findErr != nil {
		return nil, d.findErr
	}
	return d.ClientSessionRepository.FindByClientId(ctx, id)
}

func (d *failingDurable) Upsert(ctx context.Context, s *entity.ClientSession) error {
	if d.upsertErr != nil {
		return d.upsertErr
	}
	return d.ClientSessionRepository.Upsert(ctx, s)
}

var errBoom = errors.New("boom")

var _ RuntimeSessionStore = (*flakyRuntime)(nil)

// scriptedLLM answers each agent by a keyword of its instruction.
type scriptedLLM struct {
	mu      sync.Mutex
	replies map[string]string
	calls   int
}

func newScriptedLLM(extract, search, write, refine string) *scriptedLLM {
	return &scriptedLLM{replies: map[string]string{
		"Extractor": extract,
		"web search": search,
		"Writer":     write,
		"Refine":     refine,
	}}
}

func (s *scriptedLLM) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	for keyword, reply := range s.replies {
		if strings.Contains(history[0].Content, keyword) {
			return reply, nil
		}
	}
	return "", nil
}

func (s *scriptedLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return s.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, opts...)
}

func (s *scriptedLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type echoClassifier struct{}

func (echoClassifier) Classify(_ context.Context, agentName, text string) classifier.Output {
	return classifier.Output{AgentName: agentName, Article: text}
}
