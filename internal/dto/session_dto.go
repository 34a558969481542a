package dto

type NewSessionResponse struct {
	SessionId string `json:"session_id"`
	UserId    string `json:"user_id"`
	ClientId  string `json:"client_id,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Message       string `json:"message"`
}
