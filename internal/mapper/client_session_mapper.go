package mapper

import (
	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/model"
)

type ClientSessionMapper struct{}

func NewClientSessionMapper() *ClientSessionMapper {
	return &ClientSessionMapper{}
}

func (m *ClientSessionMapper) ToEntity(s *model.ClientSession) *entity.ClientSession {
	if s == nil {
		return nil
	}
	return &entity.ClientSession{
		ClientId:  s.ClientId,
		UserId:    s.UserId,
		SessionId: s.SessionId,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

func (m *ClientSessionMapper) ToModel(s *entity.ClientSession) *model.ClientSession {
	if s == nil {
		return nil
	}
	return &model.ClientSession{
		ClientId:  s.ClientId,
		UserId:    s.UserId,
		SessionId: s.SessionId,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
