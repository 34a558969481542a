package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ramshaali/folio/internal/entity"
	"github.com/ramshaali/folio/internal/pkg/logger"
	"github.com/ramshaali/folio/internal/repository/contract"
	"github.com/ramshaali/folio/pkg/store"
)

const sessionLogModule = "SESSION"

// RuntimeSessionStore holds runtime sessions in process memory.
type RuntimeSessionStore interface {
	Save(ctx context.Context, session *store.Session) error
	Get(ctx context.Context, sessionID string) (*store.Session, bool)
	Delete(ctx context.Context, sessionID string) error
	Count() int
}

// ISessionService reconciles durable client records with runtime sessions.
type ISessionService interface {
	// ResolveOrCreate always creates a fresh runtime session, points the
	// client's durable record at it and drops the runtime session it replaced.
	ResolveOrCreate(ctx context.Context, clientId, userId string) (*store.Session, error)
	// Create makes a runtime session without durable linkage.
	Create(ctx context.Context, userId string) (*store.Session, error)
	Get(ctx context.Context, sessionId string) (*store.Session, error)
	PatchState(ctx context.Context, sessionId string, patch map[string]interface{}) error
}

type sessionService struct {
	runtime   RuntimeSessionStore
	durable   contract.ClientSessionRepository
	publisher IPublisherService
	logger    logger.ILogger
	locks     *keyedLock
	now       func() time.Time
}

func NewSessionService(
	runtime RuntimeSessionStore,
	durable contract.ClientSessionRepository,
	publisher IPublisherService,
	logger logger.ILogger,
) ISessionService {
	return &sessionService{
		runtime:   runtime,
		durable:   durable,
		publisher: publisher,
		logger:    logger,
		locks:     newKeyedLock(),
		now:       time.Now,
	}
}

// NewUserID mints an anonymous user identifier.
func NewUserID() string {
	return "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

func (s *sessionService) newRuntimeSession(ctx context.Context, userId string) (*store.Session, error) {
	if userId == "" {
		userId = NewUserID()
	}
	sess := store.NewSession(uuid.NewString(), userId, s.now())
	if err := s.runtime.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save runtime session: %w", err)
	}
	return sess, nil
}

func (s *sessionService) Create(ctx context.Context, userId string) (*store.Session, error) {
	sess, err := s.newRuntimeSession(ctx, userId)
	if err != nil {
		return nil, err
	}

	s.logger.Info(sessionLogModule, "Runtime session created", map[string]interface{}{
		"session_id":      sess.ID,
		"user_id":         sess.UserID,
		"active_sessions": s.runtime.Count(),
	})
	s.publish(ctx, EventSessionCreated, map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
	})
	return sess, nil
}

func (s *sessionService) ResolveOrCreate(ctx context.Context, clientId, userId string) (*store.Session, error) {
	if clientId == "" {
		return nil, ErrMissingClientID
	}

	// Serializes resolutions for one client inside this process. Across
	// processes the last writer to the durable record wins.
	unlock := s.locks.Lock(clientId)
	defer unlock()

	previous, err := s.durable.FindByClientId(ctx, clientId)
	if err != nil {
		return nil, fmt.Errorf("find client session: %w", err)
	}

	sess, err := s.newRuntimeSession(ctx, userId)
	if err != nil {
		return nil, err
	}

	record := &entity.ClientSession{
		ClientId:  clientId,
		UserId:    sess.UserID,
		SessionId: sess.ID,
	}
	if previous != nil {
		record.CreatedAt = previous.CreatedAt
	}
	if err := s.durable.Upsert(ctx, record); err != nil {
		// The fresh runtime session is useless without its record
		_ = s.runtime.Delete(ctx, sess.ID)
		return nil, fmt.Errorf("upsert client session: %w", err)
	}

	if previous != nil && previous.SessionId != sess.ID {
		if err := s.runtime.Delete(ctx, previous.SessionId); err != nil {
			s.logger.Warn(sessionLogModule, "Failed to delete superseded runtime session", map[string]interface{}{
				"client_id":  clientId,
				"session_id": previous.SessionId,
				"error":      err.Error(),
			})
		}
	}

	s.logger.Info(sessionLogModule, "Client session resolved", map[string]interface{}{
		"client_id":       clientId,
		"session_id":      sess.ID,
		"user_id":         sess.UserID,
		"replaced":        previous != nil,
		"active_sessions": s.runtime.Count(),
	})
	s.publish(ctx, EventSessionCreated, map[string]interface{}{
		"session_id": sess.ID,
		"user_id":    sess.UserID,
		"client_id":  clientId,
	})
	return sess, nil
}

func (s *sessionService) Get(ctx context.Context, sessionId string) (*store.Session, error) {
	sess, ok := s.runtime.Get(ctx, sessionId)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionService) PatchState(ctx context.Context, sessionId string, patch map[string]interface{}) error {
	sess, err := s.Get(ctx, sessionId)
	if err != nil {
		return err
	}
	sess.Patch(patch)
	return s.runtime.Save(ctx, sess)
}

func (s *sessionService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishEvent(ctx, eventType, data); err != nil {
		s.logger.Warn(sessionLogModule, "Failed to publish lifecycle event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}

// keyedLock hands out one mutex per key and forgets keys nobody holds.
type keyedLock struct {
	mu    sync.Mutex
	locks map[string]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedLock() *keyedLock {
	return &keyedLock{locks: make(map[string]*refMutex)}
}

func (k *keyedLock) Lock(key string) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
