package core

import (
	"context"
	"sync"
)

// MemoryLoadRepository serves a fixed load set through the same matching
// policy the SQL repository implements.
type MemoryLoadRepository struct {
	mu    sync.RWMutex
	loads []Load
	// Err, when set, is returned by every query.
	Err error
}

func NewMemoryLoadRepository(loads ...Load) *MemoryLoadRepository {
	return &MemoryLoadRepository{loads: append([]Load(nil), loads...)}
}

func (r *MemoryLoadRepository) Add(loads ...Load) {
	r.mu.Lock()
	r.loads = append(r.loads, loads...)
	r.mu.Unlock()
}

func (r *MemoryLoadRepository) Search(_ context.Context, query LoadQuery) ([]Load, error) {
	snapshot, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return MatchLoads(snapshot, query), nil
}

func (r *MemoryLoadRepository) ClosestByWeight(_ context.Context, target float64, limit int) ([]Load, error) {
	snapshot, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return ClosestLoadsByWeight(snapshot, target, limit), nil
}

func (r *MemoryLoadRepository) Recent(_ context.Context, limit int) ([]Load, error) {
	snapshot, err := r.snapshot()
	if err != nil {
		return nil, err
	}
	return RecentLoads(snapshot, limit), nil
}

func (r *MemoryLoadRepository) snapshot() ([]Load, error) {
	if r == nil {
		return nil, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]Load(nil), r.loads...), nil
}

var _ LoadRepository = (*MemoryLoadRepository)(nil)
