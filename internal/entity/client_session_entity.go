package entity

import "time"

// ClientSession links a stable browser/client identifier to the most recent
// runtime session created for it.
type ClientSession struct {
	ClientId  string    `json:"client_id"`
	UserId    string    `json:"user_id"`
	SessionId string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
