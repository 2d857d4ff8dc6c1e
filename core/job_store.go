package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryJobStore keeps jobs for the process lifetime, or until purged by a
// RetentionPolicy. Status only moves from pending to done.
type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]Job
	Now  func() time.Time
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{
		jobs: map[string]Job{},
		Now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func (s *MemoryJobStore) Create(_ context.Context, job Job) (Job, error) {
	if s == nil {
		return Job{}, fmt.Errorf("core: job store is not configured")
	}
	job.ID = strings.TrimSpace(job.ID)
	if job.ID == "" {
		return Job{}, ErrJobIDRequired
	}
	job.Status = JobStatusPending
	job.Echo = nil
	job.Result = nil
	job.CompletedAt = time.Time{}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = s.now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.ID]; exists {
		return Job{}, fmt.Errorf("core: job %q already exists", job.ID)
	}
	s.jobs[job.ID] = cloneJob(job)
	return cloneJob(job), nil
}

func (s *MemoryJobStore) Complete(_ context.Context, id string, echo any, result []Load) (Job, error) {
	if s == nil {
		return Job{}, fmt.Errorf("core: job store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Job{}, ErrJobIDRequired
	}
	if result == nil {
		result = []Load{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("%w: id %q", ErrJobNotFound, id)
	}
	job.Status = JobStatusDone
	job.CompletedAt = s.now()
	job.Echo = echo
	job.Result = slices.Clone(result)
	s.jobs[id] = job
	return cloneJob(job), nil
}

func (s *MemoryJobStore) Get(_ context.Context, id string) (Job, error) {
	if s == nil {
		return Job{}, fmt.Errorf("core: job store is not configured")
	}
	id = strings.TrimSpace(id)
	s.mu.RLock()
	job, ok := s.jobs[id]
	s.mu.RUnlock()
	if !ok {
		return Job{}, fmt.Errorf("%w: id %q", ErrJobNotFound, id)
	}
	return cloneJob(job), nil
}

func (s *MemoryJobStore) PurgeExpired(_ context.Context, policy RetentionPolicy) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: job store is not configured")
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	purged := 0
	for id, job := range s.jobs {
		if policy.expired(now, job.Status.Terminal(), job.CreatedAt, job.CompletedAt) {
			delete(s.jobs, id)
			purged++
		}
	}
	return purged, nil
}

func (s *MemoryJobStore) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.jobs)
}

func (s *MemoryJobStore) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

var _ JobStore = (*MemoryJobStore)(nil)
