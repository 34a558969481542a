package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ramshaali/folio/pkg/store"
)

// SessionRepository holds runtime sessions in process memory.
type SessionRepository struct {
	cache *cache.Cache
}

// NewSessionRepository creates the runtime store. A ttl of zero keeps
// sessions until they are replaced.
func NewSessionRepository(ttl time.Duration) *SessionRepository {
	expiration := cache.NoExpiration
	cleanup := time.Duration(0)
	if ttl > 0 {
		expiration = ttl
		cleanup = 10 * time.Minute
	}
	return &SessionRepository{
		cache: cache.New(expiration, cleanup),
	}
}

func (r *SessionRepository) Save(_ context.Context, session *store.Session) error {
	r.cache.Set(session.ID, session, cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(_ context.Context, sessionID string) error {
	r.cache.Delete(sessionID)
	return nil
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
