package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramshaali/folio/pkg/llm"
)

type capture struct {
	path   string
	apiKey string
	body   map[string]interface{}
}

func newServer(t *testing.T, status int, reply string, c *capture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.apiKey = r.Header.Get("x-goog-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	c := &capture{}
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"Hello "},{"text":"world"}]}}]}`, c)
	p := NewGeminiProviderWithBaseURL(srv.URL, "key-1", "", "")

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hi"},
		{Role: "assistant", Content: "hello"},
		{Role: "user", Content: "again"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hello world", out)
	assert.Equal(t, "/models/gemini-2.5-flash-lite:generateContent", c.path)
	assert.Equal(t, "key-1", c.apiKey)

	sys := c.body["systemInstruction"].(map[string]interface{})
	assert.Equal(t, "be brief", sys["parts"].([]interface{})[0].(map[string]interface{})["text"])

	contents := c.body["contents"].([]interface{})
	require.Len(t, contents, 3)
	assert.Equal(t, "model", contents[1].(map[string]interface{})["role"])
	assert.NotContains(t, c.body, "tools")
}

func TestChatOptions(t *testing.T) {
	c := &capture{}
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"{}"}]}}]}`, c)
	p := NewGeminiProviderWithBaseURL(srv.URL, "k", "", "")

	schema := map[string]interface{}{"type": "object"}
	_, err := p.Generate(context.Background(), "classify",
		llm.WithModel("gemini-custom"),
		llm.WithJSONSchema(schema),
		llm.WithWebSearch(),
		llm.WithTemperature(0.3),
	)
	require.NoError(t, err)

	assert.Equal(t, "/models/gemini-custom:generateContent", c.path)
	cfg := c.body["generationConfig"].(map[string]interface{})
	assert.Equal(t, "application/json", cfg["responseMimeType"])
	assert.Equal(t, schema, cfg["responseJsonSchema"])
	assert.Equal(t, 0.3, cfg["temperature"])
	assert.Equal(t, []interface{}{map[string]interface{}{"google_search": map[string]interface{}{}}}, c.body["tools"])
}

func TestChatTemperature(t *testing.T) {
	tests := []struct {
		name     string
		opts     []llm.Option
		wantTemp interface{}
		wantSent bool
	}{
		{name: "unset", opts: nil, wantSent: false},
		{name: "zero", opts: []llm.Option{llm.WithTemperature(0)}, wantTemp: 0.0, wantSent: true},
		{name: "warm", opts: []llm.Option{llm.WithTemperature(0.9)}, wantTemp: 0.9, wantSent: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &capture{}
			srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`, c)
			p := NewGeminiProviderWithBaseURL(srv.URL, "k", "", "")

			_, err := p.Generate(context.Background(), "x", tt.opts...)
			require.NoError(t, err)

			cfg := c.body["generationConfig"].(map[string]interface{})
			temp, ok := cfg["temperature"]
			assert.Equal(t, tt.wantSent, ok)
			if tt.wantSent {
				assert.Equal(t, tt.wantTemp, temp)
			}
		})
	}
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{name: "http error", status: http.StatusTooManyRequests, reply: `{"error":{"message":"quota"}}`},
		{name: "no candidates", status: http.StatusOK, reply: `{"candidates":[]}`},
		{name: "no text", status: http.StatusOK, reply: `{"candidates":[{"content":{"parts":[]}}]}`},
		{name: "bad json", status: http.StatusOK, reply: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.reply, &capture{})
			p := NewGeminiProviderWithBaseURL(srv.URL, "k", "", "")

			_, err := p.Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}

func TestGenerateImage(t *testing.T) {
	c := &capture{}
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"here"},{"inlineData":{"mimeType":"image/png","data":"aGVsbG8="}}]}}]}`, c)
	p := NewGeminiProviderWithBaseURL(srv.URL, "k", "", "img-model")

	img, err := p.GenerateImage(context.Background(), "a cat")
	require.NoError(t, err)

	assert.Equal(t, "image/png", img.MimeType)
	assert.Equal(t, []byte("hello"), img.Data)
	assert.Equal(t, "/models/img-model:generateContent", c.path)
	cfg := c.body["generationConfig"].(map[string]interface{})
	assert.Equal(t, []interface{}{"TEXT", "IMAGE"}, cfg["responseModalities"])
}

func TestGenerateImageWithoutData(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"sorry"}]}}]}`, &capture{})
	p := NewGeminiProviderWithBaseURL(srv.URL, "k", "", "")

	_, err := p.GenerateImage(context.Background(), "a cat")
	assert.EqualError(t, err, "no image data received")
}
