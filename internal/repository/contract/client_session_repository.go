package contract

import (
	"context"

	"github.com/ramshaali/folio/internal/entity"
)

// ClientSessionRepository stores at most one record per client id.
type ClientSessionRepository interface {
	// FindByClientId returns nil, nil when no record exists.
	FindByClientId(ctx context.Context, clientId string) (*entity.ClientSession, error)
	// Upsert creates or overwrites the record for session.ClientId.
	Upsert(ctx context.Context, session *entity.ClientSession) error
}
