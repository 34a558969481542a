package store

import (
	"sync"
	"time"
)

// AppName identifies the pipeline configuration every session runs against.
const AppName = "content_creator_root_agent"

// Session state keys written by the pipeline agents.
const (
	StateExtractedData  = "extracted_data"
	StateSearchResults  = "search_results"
	StateDraftArticle   = "draft_article"
	StateRefinedArticle = "refined_article"
	StateImagePrompt    = "image_prompt"
)

// Session is the volatile runtime context of one pipeline run. It lives only
// in process memory, keyed by ID.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	AppName   string    `json:"app_name"`
	CreatedAt time.Time `json:"created_at"`

	mu    sync.RWMutex
	state map[string]interface{}
}

func NewSession(id, userID string, now time.Time) *Session {
	return &Session{
		ID:        id,
		UserID:    userID,
		AppName:   AppName,
		CreatedAt: now,
		state:     make(map[string]interface{}),
	}
}

// Patch merges the given keys into the session state.
func (s *Session) Patch(patch map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == nil {
		s.state = make(map[string]interface{}, len(patch))
	}
	for k, v := range patch {
		s.state[k] = v
	}
}

// Get returns a single state value.
func (s *Session) Get(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.state[key]
	return v, ok
}

// GetString returns a state value as a string, or "" when absent.
func (s *Session) GetString(key string) string {
	v, ok := s.Get(key)
	if !ok {
		return ""
	}
	str, _ := v.(string)
	return str
}

// State returns a copy of the state map.
func (s *Session) State() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]interface{}, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}
