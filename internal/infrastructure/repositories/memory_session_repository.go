package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"outfit-studio/internal/domain/entities"
	domainrepos "outfit-studio/internal/domain/repositories"
)

type MemorySessionRepository struct {
	sessions map[entities.SessionID]*entities.Session
	ttl      time.Duration
	mu       sync.RWMutex
}

// NewMemorySessionRepository keeps sessions in process memory. Sessions idle
// for longer than ttl are evicted; ttl <= 0 disables eviction.
func NewMemorySessionRepository(ttl time.Duration) domainrepos.SessionRepository {
	return &MemorySessionRepository{
		sessions: make(map[entities.SessionID]*entities.Session),
		ttl:      ttl,
	}
}

func (r *MemorySessionRepository) Save(ctx context.Context, session *entities.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictExpired(time.Now())
	r.sessions[session.ID()] = session.Clone()
	return nil
}

func (r *MemorySessionRepository) FindByID(ctx context.Context, id entities.SessionID) (*entities.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, exists := r.sessions[id]
	if !exists || r.expired(session, time.Now()) {
		return nil, fmt.Errorf("%w: %s", entities.ErrSessionNotFound, id)
	}

	return session.Clone(), nil
}

func (r *MemorySessionRepository) Update(
	ctx context.Context,
	id entities.SessionID,
	fn func(*entities.Session) error,
) (*entities.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.sessions[id]
	if !exists || r.expired(session, time.Now()) {
		return nil, fmt.Errorf("%w: %s", entities.ErrSessionNotFound, id)
	}

	err := fn(session)
	return session.Clone(), err
}

func (r *MemorySessionRepository) Delete(ctx context.Context, id entities.SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

func (r *MemorySessionRepository) expired(session *entities.Session, now time.Time) bool {
	return r.ttl > 0 && now.Sub(session.UpdatedAt()) > r.ttl
}

// 呼び出し側でロックを取得していること
func (r *MemorySessionRepository) evictExpired(now time.Time) {
	for id, session := range r.sessions {
		if r.expired(session, now) {
			delete(r.sessions, id)
		}
	}
}
