package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/classifier"
)

type sliceSource struct {
	events []agent.Event
	err    error
	pulled int
}

func (s *sliceSource) Next(ctx context.Context) (agent.Event, bool, error) {
	if s.pulled < len(s.events) {
		ev := s.events[s.pulled]
		s.pulled++
		return ev, true, nil
	}
	return agent.Event{}, false, s.err
}

type stubClassifier struct {
	calls []string
}

func (c *stubClassifier) Classify(_ context.Context, agentName, text string) classifier.Output {
	c.calls = append(c.calls, agentName)
	if strings.HasPrefix(text, "raw:") {
		return classifier.Output{AgentName: agentName, Text: text, Error: "invalid classifier output"}
	}
	if strings.HasSuffix(text, "?") {
		return classifier.Output{AgentName: agentName, Question: text}
	}
	return classifier.Output{AgentName: agentName, Article: text}
}

// failingWriter accepts a fixed number of writes and then errors.
type failingWriter struct {
	buf   bytes.Buffer
	left  int
	wrote int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	if w.left == 0 {
		return 0, errors.New("broken pipe")
	}
	w.left--
	w.wrote++
	return w.buf.Write(p)
}

var testMeta = Meta{SessionID: "sess-1", UserID: "user_abc"}

func decodeFrames(t *testing.T, body string) []map[string]interface{} {
	t.Helper()
	var frames []map[string]interface{}
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		var f map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &f), line)
		frames = append(frames, f)
	}
	return frames
}

func keys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestRunFrameOrderAndShapes(t *testing.T) {
	cls := &stubClassifier{}
	m := NewMultiplexer(cls, logger.NewNopLogger())
	src := &sliceSource{events: []agent.Event{
		{AgentName: agent.NameExtractor, Text: "topic: go"},
		{AgentName: agent.NameSearcher, Text: "   "},
		{AgentName: agent.NameSearcher, Text: "results"},
		{AgentName: agent.NameWriter, Text: "# Go\n\nArticle body"},
	}}

	var buf bytes.Buffer
	summary, err := m.Run(context.Background(), &buf, testMeta, src)
	require.NoError(t, err)

	frames := decodeFrames(t, buf.String())
	require.Len(t, frames, 5)

	assert.ElementsMatch(t, []string{"status", "session_id", "user_id"}, keys(frames[0]))
	assert.Equal(t, "init", frames[0]["status"])
	assert.Equal(t, "sess-1", frames[0]["session_id"])
	assert.Equal(t, "user_abc", frames[0]["user_id"])

	assert.ElementsMatch(t, []string{"agent_name", "text"}, keys(frames[1]))
	assert.Equal(t, agent.NameExtractor, frames[1]["agent_name"])
	assert.Equal(t, "results", frames[2]["text"])

	assert.ElementsMatch(t, []string{"agent_name", "article", "question"}, keys(frames[3]))
	assert.Equal(t, "# Go\n\nArticle body", frames[3]["article"])
	assert.Equal(t, "", frames[3]["question"])

	assert.Equal(t, map[string]interface{}{"status": "done"}, frames[4])

	assert.Equal(t, []string{agent.NameWriter}, cls.calls)
	assert.Equal(t, 5, summary.Frames)
	assert.Equal(t, 3, summary.ContentFrames)
	assert.Equal(t, []string{agent.NameExtractor, agent.NameSearcher, agent.NameWriter}, summary.Agents)
	assert.False(t, summary.Disconnected)
}

func TestRunQuestionFrame(t *testing.T) {
	m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())
	src := &sliceSource{events: []agent.Event{{AgentName: agent.NameRefiner, Text: "Which tone do you want?"}}}

	var buf bytes.Buffer
	_, err := m.Run(context.Background(), &buf, testMeta, src)
	require.NoError(t, err)

	frames := decodeFrames(t, buf.String())
	require.Len(t, frames, 3)
	assert.Equal(t, "", frames[1]["article"])
	assert.Equal(t, "Which tone do you want?", frames[1]["question"])
}

func TestRunCountsUnclassifiedFrames(t *testing.T) {
	m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())
	src := &sliceSource{events: []agent.Event{
		{AgentName: agent.NameExtractor, Text: "raw: not classified"},
		{AgentName: agent.NameWriter, Text: "raw: draft"},
		{AgentName: agent.NameRefiner, Text: "# Final"},
	}}

	var buf bytes.Buffer
	summary, err := m.Run(context.Background(), &buf, testMeta, src)
	require.NoError(t, err)

	frames := decodeFrames(t, buf.String())
	require.Len(t, frames, 5)
	assert.Equal(t, "raw: draft", frames[2]["text"])
	assert.Equal(t, "invalid classifier output", frames[2]["error"])
	assert.Equal(t, 1, summary.Unclassified)
	assert.Equal(t, 3, summary.ContentFrames)
}

func TestRunWithoutOutputStillBracketsStream(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "no output", err: agent.ErrNoOutput},
		{name: "step failure", err: errors.New("writer_agent: upstream 503")},
		{name: "clean empty", err: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())

			var buf bytes.Buffer
			summary, err := m.Run(context.Background(), &buf, testMeta, &sliceSource{err: tt.err})
			require.NoError(t, err)

			frames := decodeFrames(t, buf.String())
			require.Len(t, frames, 2)
			assert.Equal(t, "init", frames[0]["status"])
			assert.Equal(t, "done", frames[1]["status"])
			assert.Equal(t, tt.err, summary.PipelineErr)
		})
	}
}

func TestRunStopsOnWriteFailure(t *testing.T) {
	m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())
	src := &sliceSource{events: []agent.Event{
		{AgentName: agent.NameExtractor, Text: "one"},
		{AgentName: agent.NameSearcher, Text: "two"},
		{AgentName: agent.NameWriter, Text: "three"},
	}}
	w := &failingWriter{left: 2}

	summary, err := m.Run(context.Background(), w, testMeta, src)
	require.Error(t, err)
	assert.True(t, summary.Disconnected)
	assert.Equal(t, 2, w.wrote)
	// The event whose frame failed was pulled; nothing after it was.
	assert.Equal(t, 2, src.pulled)
	assert.NotContains(t, w.buf.String(), `"done"`)
}

func TestRunFlushesEachFrame(t *testing.T) {
	m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())
	var out bytes.Buffer
	bw := bufio.NewWriterSize(&out, 4096)

	_, err := m.Run(context.Background(), bw, testMeta, &sliceSource{events: []agent.Event{
		{AgentName: agent.NameExtractor, Text: "x"},
	}})
	require.NoError(t, err)

	assert.Zero(t, bw.Buffered())
	assert.Len(t, decodeFrames(t, out.String()), 3)
}

func TestRunDetectsImage(t *testing.T) {
	m := NewMultiplexer(&stubClassifier{}, logger.NewNopLogger())
	src := &sliceSource{events: []agent.Event{
		{AgentName: agent.NameImage, Text: `{"article_text":"a","image_prompt":"p","image_base64":"aGk="}`},
	}}

	var buf bytes.Buffer
	summary, err := m.Run(context.Background(), &buf, testMeta, src)
	require.NoError(t, err)
	assert.True(t, summary.ImageProduced)

	frames := decodeFrames(t, buf.String())
	assert.Equal(t, agent.NameImage, frames[1]["agent_name"])
}
