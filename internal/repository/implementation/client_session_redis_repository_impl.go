package implementation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/repository/contract"

	"github.com/redis/go-redis/v9"
)

const clientSessionKeyPrefix = "folio:client_session:"

type ClientSessionRedisRepositoryImpl struct {
	rdb *redis.Client
	now func() time.Time
}

func NewClientSessionRedisRepository(rdb *redis.Client) contract.ClientSessionRepository {
	return &ClientSessionRedisRepositoryImpl{
		rdb: rdb,
		now: time.Now,
	}
}

func clientSessionKey(clientId string) string {
	return clientSessionKeyPrefix + clientId
}

func (r *ClientSessionRedisRepositoryImpl) FindByClientId(ctx context.Context, clientId string) (*entity.ClientSession, error) {
	raw, err := r.rdb.Get(ctx, clientSessionKey(clientId)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get client session: %w", err)
	}

	var session entity.ClientSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode client session: %w", err)
	}
	return &session, nil
}

// Upsert keeps the original CreatedAt when a record already exists. The
// read and the write are not atomic; the last writer wins.
func (r *ClientSessionRedisRepositoryImpl) Upsert(ctx context.Context, session *entity.ClientSession) error {
	now := r.now()
	session.UpdatedAt = now
	if session.CreatedAt.IsZero() {
		existing, err := r.FindByClientId(ctx, session.ClientId)
		if err != nil {
			return err
		}
		if existing != nil {
			session.CreatedAt = existing.CreatedAt
		} else {
			session.CreatedAt = now
		}
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode client session: %w", err)
	}
	if err := r.rdb.Set(ctx, clientSessionKey(session.ClientId), payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set client session: %w", err)
	}
	return nil
}
