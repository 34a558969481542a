package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramshaali/folio/internal/dto"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/stream"
)

type generateFixture struct {
	svc      IGenerateService
	sessions ISessionService
	durable  *failingDurable
	llm      *scriptedLLM
	pub      *recordingPublisher
}

func newGenerateFixture(llm *scriptedLLM, requireClientId bool) *generateFixture {
	log := logger.NewNopLogger()
	durable := newDurable()
	pub := &recordingPublisher{}
	sessions := NewSessionService(newFlakyRuntime(), durable, pub, log)
	pipeline := agent.NewPipeline(llm, nil, agent.Models{}, sessions, log)
	mux := stream.NewMultiplexer(echoClassifier{}, log)

	return &generateFixture{
		svc:      NewGenerateService(sessions, pipeline, mux, pub, log, requireClientId),
		sessions: sessions,
		durable:  durable,
		llm:      llm,
		pub:      pub,
	}
}

func TestGenerateCreating(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("topic", "found", "# Article", ""), true)

	res, err := f.svc.Generate(context.Background(), &dto.GenerateRequest{Prompt: "write about go"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionId)
	assert.True(t, strings.HasPrefix(res.UserId, "user_"))
	assert.Equal(t, "# Article", res.Output)
	assert.Equal(t, []dto.AgentOutputDTO{
		{AgentName: agent.NameExtractor, Text: "topic"},
		{AgentName: agent.NameSearcher, Text: "found"},
		{AgentName: agent.NameWriter, Text: "# Article"},
	}, res.AgentOutputs)

	sess, err := f.sessions.Get(context.Background(), res.SessionId)
	require.NoError(t, err)
	assert.Equal(t, "# Article", sess.GetString("draft_article"))

	assert.Equal(t, []string{EventSessionCreated, EventGenerationCompleted}, f.pub.Types())
}

func TestGenerateRefiningReusesSession(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("", "", "", "# Refined"), true)
	sess, err := f.sessions.Create(context.Background(), "user_known")
	require.NoError(t, err)

	res, err := f.svc.Generate(context.Background(), &dto.GenerateRequest{
		Prompt:    "tighten it",
		Article:   "# Draft",
		SessionId: sess.ID,
	})
	require.NoError(t, err)

	assert.Equal(t, sess.ID, res.SessionId)
	assert.Equal(t, "user_known", res.UserId)
	assert.Equal(t, "# Refined", res.Output)
	assert.Len(t, res.AgentOutputs, 1)
}

func TestGenerateUnknownSessionResolvesNewOne(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("", "", "", "# Refined"), true)

	res, err := f.svc.Generate(context.Background(), &dto.GenerateRequest{
		Prompt:    "x",
		Article:   "a",
		SessionId: "gone",
		ClientId:  "browser-1",
	})
	require.NoError(t, err)
	assert.NotEqual(t, "gone", res.SessionId)

	rec, err := f.durable.FindByClientId(context.Background(), "browser-1")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, res.SessionId, rec.SessionId)
}

func TestGenerateBlankPrompt(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("a", "b", "c", "d"), true)

	for _, prompt := range []string{"", "   ", "\n\t"} {
		_, err := f.svc.Generate(context.Background(), &dto.GenerateRequest{Prompt: prompt})
		assert.ErrorIs(t, err, ErrEmptyPrompt)
	}
	assert.Zero(t, f.llm.Calls())
	assert.Empty(t, f.pub.Types())
}

func TestGenerateNoOutput(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("", "", "", ""), true)

	_, err := f.svc.Generate(context.Background(), &dto.GenerateRequest{Prompt: "x"})
	assert.ErrorIs(t, err, agent.ErrNoOutput)
	assert.NotContains(t, f.pub.Types(), EventGenerationCompleted)
}

func TestNewSession(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("", "", "", ""), true)

	anon, err := f.svc.NewSession(context.Background(), "")
	require.NoError(t, err)
	assert.NotEmpty(t, anon.SessionId)
	assert.Empty(t, anon.ClientId)

	first, err := f.svc.NewSession(context.Background(), "browser-1")
	require.NoError(t, err)
	second, err := f.svc.NewSession(context.Background(), "browser-1")
	require.NoError(t, err)

	assert.Equal(t, "browser-1", second.ClientId)
	assert.NotEqual(t, first.SessionId, second.SessionId)
	rec, _ := f.durable.FindByClientId(context.Background(), "browser-1")
	assert.Equal(t, second.SessionId, rec.SessionId)
}

func TestPrepareStream(t *testing.T) {
	tests := []struct {
		name    string
		require bool
		req     dto.GenerateRequest
		wantErr error
	}{
		{name: "blank prompt", require: true, req: dto.GenerateRequest{Prompt: " ", ClientId: "b"}, wantErr: ErrEmptyPrompt},
		{name: "missing client id", require: true, req: dto.GenerateRequest{Prompt: "x"}, wantErr: ErrMissingClientID},
		{name: "client id optional", require: false, req: dto.GenerateRequest{Prompt: "x"}},
		{name: "client id given", require: true, req: dto.GenerateRequest{Prompt: "x", ClientId: "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newGenerateFixture(newScriptedLLM("", "", "", ""), tt.require)

			sess, err := f.svc.PrepareStream(context.Background(), &tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, sess)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, sess.ID)
		})
	}
}

func TestStream(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("topic", "found", "# Article", ""), true)
	req := &dto.GenerateRequest{Prompt: "x", ClientId: "browser-1"}

	sess, err := f.svc.PrepareStream(context.Background(), req)
	require.NoError(t, err)

	var buf bytes.Buffer
	summary, err := f.svc.Stream(context.Background(), &buf, sess, req)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Frames)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 5)

	var initFrame stream.InitFrame
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &initFrame))
	assert.Equal(t, sess.ID, initFrame.SessionID)
	assert.Equal(t, sess.UserID, initFrame.UserID)
	assert.JSONEq(t, `{"agent_name":"writer_agent","article":"# Article","question":""}`, lines[3])
	assert.JSONEq(t, `{"status":"done"}`, lines[4])

	assert.Contains(t, f.pub.Types(), EventGenerationCompleted)
}

func TestStreamNoOutput(t *testing.T) {
	f := newGenerateFixture(newScriptedLLM("", "", "", ""), true)
	req := &dto.GenerateRequest{Prompt: "x", ClientId: "browser-1"}

	sess, err := f.svc.PrepareStream(context.Background(), req)
	require.NoError(t, err)

	var buf bytes.Buffer
	summary, err := f.svc.Stream(context.Background(), &buf, sess, req)
	require.NoError(t, err)
	assert.ErrorIs(t, summary.PipelineErr, agent.ErrNoOutput)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"status":"done"}`, lines[1])
	assert.NotContains(t, f.pub.Types(), EventGenerationCompleted)
}
