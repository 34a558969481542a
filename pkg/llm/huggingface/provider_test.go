package huggingface

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
	path string
	auth string
	body map[string]interface{}
}

func newServer(t *testing.T, status int, reply string, c *capture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.path = r.URL.Path
		c.auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c.body))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestChat(t *testing.T) {
	c := &capture{}
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"hi there"}}]}`, c)
	p := NewHuggingFaceProvider("hf-key", srv.URL, "meta-llama/Llama-3.1-8B-Instruct")

	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, "hi there", out)
	assert.Equal(t, "/chat/completions", c.path)
	assert.Equal(t, "Bearer hf-key", c.auth)
	assert.Equal(t, "meta-llama/Llama-3.1-8B-Instruct", c.body["model"])
	assert.Equal(t, 4096.0, c.body["max_tokens"])
	assert.Len(t, c.body["messages"], 2)
	assert.NotContains(t, c.body, "temperature")
	assert.NotContains(t, c.body, "response_format")
}

func TestChatOptions(t *testing.T) {
	c := &capture{}
	srv := newServer(t, http.StatusOK, `{"choices":[{"message":{"content":"{}"}}]}`, c)
	p := NewHuggingFaceProvider("", srv.URL, "base-model")

	schema := map[string]interface{}{"type": "object"}
	_, err := p.Generate(context.Background(), "classify",
		llm.WithModel("other-model"),
		llm.WithJSONSchema(schema),
		llm.WithTemperature(0),
		llm.WithMaxTokens(128),
	)
	require.NoError(t, err)

	assert.Empty(t, c.auth)
	assert.Equal(t, "other-model", c.body["model"])
	assert.Equal(t, 128.0, c.body["max_tokens"])

	temp, ok := c.body["temperature"]
	require.True(t, ok)
	assert.Equal(t, 0.0, temp)

	format := c.body["response_format"].(map[string]interface{})
	assert.Equal(t, "json_schema", format["type"])
	js := format["json_schema"].(map[string]interface{})
	assert.Equal(t, schema, js["schema"])
	assert.Equal(t, true, js["strict"])
}

func TestChatErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		reply  string
	}{
		{name: "http error", status: http.StatusUnauthorized, reply: `{"error":{"message":"bad token"}}`},
		{name: "api error", status: http.StatusOK, reply: `{"error":{"message":"model loading"}}`},
		{name: "no choices", status: http.StatusOK, reply: `{"choices":[]}`},
		{name: "bad json", status: http.StatusOK, reply: `not json`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newServer(t, tt.status, tt.reply, &capture{})

			_, err := NewHuggingFaceProvider("k", srv.URL, "m").Generate(context.Background(), "hi")
			assert.Error(t, err)
		})
	}
}

func TestDefaultBaseURL(t *testing.T) {
	p := NewHuggingFaceProvider("k", "", "m")
	assert.Equal(t, "https://router.huggingface.co/v1", p.baseURL)
}
