package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-loadrelay/core"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

const defaultEventPageSize = 25

// EventStore is the analytics event log written by the matcher strategies.
type EventStore struct {
	db   *bun.DB
	repo repository.Repository[*eventRecord]
}

func NewEventStore(db *bun.DB) (*EventStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*eventRecord](db, eventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid event repository wiring: %w", err)
		}
	}
	return &EventStore{db: db, repo: repo}, nil
}

func (s *EventStore) Record(ctx context.Context, event core.Event) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: event store is not configured")
	}
	name := strings.TrimSpace(event.Name)
	if name == "" {
		return fmt.Errorf("sqlstore: event name is required")
	}
	source := strings.TrimSpace(event.Source)
	if source == "" {
		source = "system"
	}
	status := strings.TrimSpace(event.Status)
	if status == "" {
		status = "ok"
	}
	createdAt := event.CreatedAt.UTC()
	if event.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.repo.Create(ctx, &eventRecord{
		ID:         recordID(event.ID),
		Source:     source,
		Name:       name,
		Status:     status,
		DurationMS: event.DurationMS,
		Route:      strings.TrimSpace(event.Route),
		Payload:    copyAnyMap(event.Payload),
		CreatedAt:  createdAt,
	})
	return err
}

// Recent returns the newest events first.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]core.Event, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: event store is not configured")
	}
	if limit <= 0 {
		limit = defaultEventPageSize
	}
	records, _, err := s.repo.List(ctx,
		repository.OrderBy("created_at DESC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Event, 0, len(records))
	for _, record := range records {
		if record == nil {
			continue
		}
		out = append(out, core.Event{
			ID:         record.ID,
			Source:     record.Source,
			Name:       record.Name,
			Status:     record.Status,
			DurationMS: record.DurationMS,
			Route:      record.Route,
			Payload:    copyAnyMap(record.Payload),
			CreatedAt:  record.CreatedAt.UTC(),
		})
	}
	return out, nil
}
