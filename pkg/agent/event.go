package agent

import (
	"encoding/json"
	"strings"
)

// Agent names, as reported on every event.
const (
	NameExtractor   = "extract_agent"
	NameSearcher    = "websearch_agent"
	NameWriter      = "writer_agent"
	NameRefiner     = "refine_agent"
	NameImage       = "image_gen_agent"
	NameCoordinator = "content_creator_root_agent"
)

// Role is the pipeline role behind an agent name.
type Role int

const (
	RoleUnknown Role = iota
	RoleExtractor
	RoleSearcher
	RoleWriter
	RoleRefiner
	RoleImage
	RoleCoordinator
)

// RoleOf maps an agent name onto its role.
func RoleOf(agentName string) Role {
	switch agentName {
	case NameExtractor:
		return RoleExtractor
	case NameSearcher:
		return RoleSearcher
	case NameWriter:
		return RoleWriter
	case NameRefiner:
		return RoleRefiner
	case NameImage:
		return RoleImage
	case NameCoordinator:
		return RoleCoordinator
	default:
		return RoleUnknown
	}
}

// InlineData is binary content attached to an event (the generated image).
type InlineData struct {
	MimeType string
	Data     []byte
}

// Event is one agent's contribution to a pipeline run.
type Event struct {
	AgentName string
	Text      string
	Inline    *InlineData
}

// HasText reports whether the event carries forwardable text.
func (e Event) HasText() bool {
	return strings.TrimSpace(e.Text) != ""
}

// ImagePayload is the JSON blob emitted by the image generator.
type ImagePayload struct {
	ArticleText string `json:"article_text"`
	ImagePrompt string `json:"image_prompt,omitempty"`
	ImageBase64 string `json:"image_base64,omitempty"`
	Error       string `json:"error,omitempty"`
}

// HasImage reports whether the payload carries image bytes.
func (p ImagePayload) HasImage() bool {
	return p.ImageBase64 != ""
}

// ParseImagePayload decodes an image generator text blob. Anything that is
// not a JSON object is plain text without an image and yields ok=false.
func ParseImagePayload(text string) (ImagePayload, bool) {
	var p ImagePayload
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &p); err != nil {
		return ImagePayload{}, false
	}
	return p, true
}
