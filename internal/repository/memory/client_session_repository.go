package memory

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/repository/contract"
)

// ClientSessionRepository keeps durable records in process memory. It backs
// SESSION_BACKEND=memory for local development and tests.
type ClientSessionRepository struct {
	cache *cache.Cache
}

var _ contract.ClientSessionRepository = &ClientSessionRepository{}

func NewClientSessionRepository() *ClientSessionRepository {
	return &ClientSessionRepository{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

func (r *ClientSessionRepository) FindByClientId(_ context.Context, clientId string) (*entity.ClientSession, error) {
	if x, found := r.cache.Get(clientId); found {
		s := *x.(*entity.ClientSession)
		return &s, nil
	}
	return nil, nil
}

func (r *ClientSessionRepository) Upsert(_ context.Context, session *entity.ClientSession) error {
	now := time.Now()
	session.UpdatedAt = now
	if x, found := r.cache.Get(session.ClientId); found {
		session.CreatedAt = x.(*entity.ClientSession).CreatedAt
	} else if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	s := *session
	r.cache.Set(session.ClientId, &s, cache.NoExpiration)
	return nil
}
