package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/ramshaali/folio/internal/constant"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/pkg/agent"
	"github.com/ramshaali/folio/pkg/llm"
)

const logModule = "CLASSIFIER"

const (
	KindArticle  = "article"
	KindQuestion = "question"
)

// Output is the structured record for one writer/refiner/coordinator event.
// Text and Error are only set when classification failed.
type Output struct {
	AgentName string `json:"agent_name"`
	Article   string `json:"article"`
	Question  string `json:"question"`
	Text      string `json:"text,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether this output is an unstructured passthrough.
func (o Output) Failed() bool {
	return o.Article == "" && o.Question == ""
}

// schemaOutput is what the model must return.
type schemaOutput struct {
	AgentName string `json:"agent_name" validate:"required"`
	Kind      string `json:"kind" validate:"required,oneof=article question"`
	Article   string `json:"article" validate:"required_if=Kind article,excluded_with=Question"`
	Question  string `json:"question" validate:"required_if=Kind question,excluded_with=Article"`
}

// Schema is the JSON schema sent along with the classification request.
var Schema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"agent_name": map[string]interface{}{"type": "string", "description": "Name of the agent producing this output."},
		"kind":       map[string]interface{}{"type": "string", "enum": []string{KindArticle, KindQuestion}},
		"article":    map[string]interface{}{"type": "string", "description": "Full article text if applicable; empty if the text is a question."},
		"question":   map[string]interface{}{"type": "string", "description": "Clarifying question if applicable; empty if the text is an article."},
	},
	"required":             []string{"agent_name", "kind", "article", "question"},
	"additionalProperties": false,
}

// Classifier is the contract the stream multiplexer depends on.
type Classifier interface {
	Classify(ctx context.Context, agentName, text string) Output
}

// LLMClassifier delegates the article/question judgment to a secondary model
// call constrained to Schema.
type LLMClassifier struct {
	provider llm.LLMProvider
	model    string
	validate *validator.Validate
	logger   logger.ILogger
}

var _ Classifier = &LLMClassifier{}

func New(provider llm.LLMProvider, model string, logger logger.ILogger) *LLMClassifier {
	return &LLMClassifier{
		provider: provider,
		model:    model,
		validate: validator.New(),
		logger:   logger,
	}
}

// ShouldClassify reports whether events of this agent go through Classify.
// Everything else is forwarded raw.
func ShouldClassify(agentName string) bool {
	switch agent.RoleOf(agentName) {
	case agent.RoleWriter, agent.RoleRefiner, agent.RoleCoordinator:
		return true
	case agent.RoleExtractor, agent.RoleSearcher, agent.RoleImage:
		return false
	default:
		return false
	}
}

// Classify never fails. Any problem degrades to a passthrough record for
// this one event.
func (c *LLMClassifier) Classify(ctx context.Context, agentName, text string) Output {
	prompt := fmt.Sprintf(constant.ClassifierPromptV1, agentName, agentName, text)

	raw, err := c.provider.Generate(ctx, prompt,
		llm.WithModel(c.model),
		llm.WithJSONSchema(Schema),
		llm.WithTemperature(0),
	)
	if err != nil {
		c.logger.Warn(logModule, "Classifier call failed", map[string]interface{}{
			"agent": agentName,
			"error": err.Error(),
		})
		return passthrough(agentName, text, err)
	}

	out, err := c.Parse(agentName, text, raw)
	if err != nil {
		c.logger.Warn(logModule, "Classifier output rejected", map[string]interface{}{
			"agent": agentName,
			"error": err.Error(),
		})
	}
	return out
}

// Parse turns a raw model reply into an Output. Invalid JSON yields a
// passthrough without error detail; a schema violation yields a passthrough
// that carries the validation error. The returned error is for logging only.
func (c *LLMClassifier) Parse(agentName, text, raw string) (Output, error) {
	body := stripCodeFence([]byte(raw))

	if !json.Valid(body) {
		return passthrough(agentName, text, nil), fmt.Errorf("classifier returned invalid JSON")
	}

	var parsed schemaOutput
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&parsed); err != nil {
		return passthrough(agentName, text, err), err
	}
	if err := c.validate.Struct(parsed); err != nil {
		return passthrough(agentName, text, err), err
	}

	out := Output{AgentName: agentName}
	if parsed.Kind == KindArticle {
		out.Article = parsed.Article
	} else {
		out.Question = parsed.Question
	}
	return out, nil
}

func passthrough(agentName, text string, err error) Output {
	out := Output{AgentName: agentName, Text: text}
	if err != nil {
		out.Error = err.Error()
	}
	return out
}

// stripCodeFence removes a markdown ```json wrapper some models add despite
// the schema.
func stripCodeFence(b []byte) []byte {
	b = bytes.TrimSpace(b)
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(b, []byte("```"))
	return bytes.TrimSpace(b)
}
