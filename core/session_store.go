package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MemorySessionStore holds negotiation sessions keyed by handle. Every
// mutation of a session is a read-modify-write under the store lock, so
// concurrent turns on one handle never lose transcript entries.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]NegotiationSession
	Now      func() time.Time
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions: map[string]NegotiationSession{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemorySessionStore) GetOrCreate(_ context.Context, id string) (NegotiationSession, bool, error) {
	if s == nil {
		return NegotiationSession{}, false, fmt.Errorf("core: session store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NegotiationSession{}, false, ErrSessionIDRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	session, created := s.getOrCreateLocked(id)
	return cloneSession(session), created, nil
}

func (s *MemorySessionStore) AppendUserTurn(_ context.Context, id string, turn UserTurn) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("core: session store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NegotiationSession{}, ErrSessionIDRequired
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, _ := s.getOrCreateLocked(id)
	session.Transcript = append(session.Transcript, TranscriptEntry{
		Actor:   ActorUser,
		At:      now,
		Message: turn.Message,
		Offer:   turn.RequestedPrice,
	})
	if turn.Request != nil {
		session.Request = copyAnyMap(turn.Request)
	}
	if session.Status.Terminal() && turn.Reopen {
		session.Status = SessionStatusPending
		session.Result = nil
	}
	session.LastUpdate = now
	s.sessions[id] = session
	return cloneSession(session), nil
}

func (s *MemorySessionStore) RecordResult(_ context.Context, id string, result NegotiationResult) (NegotiationSession, error) {
	if s == nil {
		return NegotiationSession{}, fmt.Errorf("core: session store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return NegotiationSession{}, ErrSessionIDRequired
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	session, _ := s.getOrCreateLocked(id)
	session.Transcript = append(session.Transcript, TranscriptEntry{
		Actor:   ActorAgent,
		At:      now,
		Message: result.Reason,
		Offer:   result.Price,
	})
	stored := result
	session.Result = &stored
	session.Status = SessionStatusComplete
	session.LastUpdate = now
	s.sessions[id] = session
	return cloneSession(session), nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (NegotiationSession, bool, error) {
	if s == nil {
		return NegotiationSession{}, false, fmt.Errorf("core: session store is not configured")
	}
	id = strings.TrimSpace(id)
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return NegotiationSession{}, false, nil
	}
	return cloneSession(session), true, nil
}

func (s *MemorySessionStore) PurgeExpired(_ context.Context, policy RetentionPolicy) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: session store is not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, session := range s.sessions {
		if policy.expired(now, session.Status.Terminal(), session.LastUpdate, session.LastUpdate) {
			delete(s.sessions, id)
			purged++
		}
	}
	return purged, nil
}

func (s *MemorySessionStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

func (s *MemorySessionStore) getOrCreateLocked(id string) (NegotiationSession, bool) {
	if session, ok := s.sessions[id]; ok {
		return session, false
	}
	now := s.now()
	session := NegotiationSession{
		ID:         id,
		Status:     SessionStatusPending,
		StartedAt:  now,
		LastUpdate: now,
		Request:    map[string]any{},
	}
	s.sessions[id] = session
	return session, true
}

func (s *MemorySessionStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ SessionStore = (*MemorySessionStore)(nil)
