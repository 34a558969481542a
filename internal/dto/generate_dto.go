package dto

type GenerateRequest struct {
	Prompt        string `json:"prompt" validate:"notblank"`
	SessionId     string `json:"session_id,omitempty"`
	UserId        string `json:"user_id,omitempty"`
	Article       string `json:"article,omitempty"`        // Prior article content, switches to refining
	GenerateImage bool   `json:"generate_image,omitempty"` // Run the image generator after the article

	// ClientId comes from the x-browser-id header, never from the body
	ClientId string `json:"-"`
}

type AgentOutputDTO struct {
	AgentName string `json:"agent_name"`
	Text      string `json:"text"`
}

type GenerateResponse struct {
	SessionId    string           `json:"session_id"`
	UserId       string           `json:"user_id"`
	Output       string           `json:"output"`
	AgentOutputs []AgentOutputDTO `json:"agent_outputs,omitempty"`
}
