package core

import (
	"context"
	"errors"
	"time"
)

// RetentionPolicy decides when in-memory records may be dropped. A zero TTL
// keeps the matching records forever.
type RetentionPolicy struct {
	TerminalTTL time.Duration
	PendingTTL  time.Duration
}

func (p RetentionPolicy) expired(now time.Time, terminal bool, createdAt time.Time, settledAt time.Time) bool {
	if terminal {
		if p.TerminalTTL <= 0 {
			return false
		}
		if settledAt.IsZero() {
			settledAt = createdAt
		}
		return !now.Before(settledAt.Add(p.TerminalTTL))
	}
	if p.PendingTTL <= 0 {
		return false
	}
	return !now.Before(createdAt.Add(p.PendingTTL))
}

type SweepResult struct {
	Jobs     int
	Sessions int
}

// Sweeper purges expired jobs and sessions on a fixed interval.
type Sweeper struct {
	Jobs     JobStore
	Sessions SessionStore
	Policy   RetentionPolicy
	Interval time.Duration
	Logger   Logger
}

func (s *Sweeper) SweepOnce(ctx context.Context) (SweepResult, error) {
	if s == nil {
		return SweepResult{}, nil
	}
	var result SweepResult
	var errs []error
	if s.Jobs != nil {
		purged, err := s.Jobs.PurgeExpired(ctx, s.Policy)
		if err != nil {
			errs = append(errs, err)
		}
		result.Jobs = purged
	}
	if s.Sessions != nil {
		purged, err := s.Sessions.PurgeExpired(ctx, s.Policy)
		if err != nil {
			errs = append(errs, err)
		}
		result.Sessions = purged
	}
	return result, errors.Join(errs...)
}

// Run blocks until ctx is cancelled. A non-positive interval or an empty
// policy returns immediately.
func (s *Sweeper) Run(ctx context.Context) error {
	if s == nil || s.Interval <= 0 || (s.Policy.TerminalTTL <= 0 && s.Policy.PendingTTL <= 0) {
		return nil
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			result, err := s.SweepOnce(ctx)
			if s.Logger == nil {
				continue
			}
			if err != nil {
				s.Logger.Error("retention sweep failed", "error", err.Error())
				continue
			}
			if result.Jobs > 0 || result.Sessions > 0 {
				s.Logger.Info("retention sweep purged records", "jobs", result.Jobs, "sessions", result.Sessions)
			}
		}
	}
}
