package implementation

import (
	"context"
	"errors"

	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/mapper"
	"github.com/ramshaali/folio/internal/model"
	"github.com/ramshaali/folio/internal/repository/contract"
	"github.com/ramshaali/folio/internal/repository/specification"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClientSessionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.ClientSessionMapper
}

func NewClientSessionRepository(db *gorm.DB) contract.ClientSessionRepository {
	return &ClientSessionRepositoryImpl{
		db:     db,
		mapper: mapper.NewClientSessionMapper(),
	}
}

func (r *ClientSessionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ClientSessionRepositoryImpl) FindByClientId(ctx context.Context, clientId string) (*entity.ClientSession, error) {
	var m model.ClientSession
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByClientID{ClientID: clientId})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

// Upsert relies on the client_id primary key; the last writer wins.
func (r *ClientSessionRepositoryImpl) Upsert(ctx context.Context, session *entity.ClientSession) error {
	m := r.mapper.ToModel(session)
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "session_id", "updated_at"}),
	}).Create(m).Error
	if err != nil {
		return err
	}
	*session = *r.mapper.ToEntity(m)
	return nil
}
