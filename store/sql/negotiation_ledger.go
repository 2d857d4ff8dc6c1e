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

type NegotiationLedger struct {
	db   *bun.DB
	repo repository.Repository[*negotiationRecord]
}

func NewNegotiationLedger(db *bun.DB) (*NegotiationLedger, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*negotiationRecord](db, negotiationHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid negotiation repository wiring: %w", err)
		}
	}
	return &NegotiationLedger{db: db, repo: repo}, nil
}

func (s *NegotiationLedger) AppendRound(ctx context.Context, round core.NegotiationRound) (core.NegotiationRound, error) {
	if s == nil || s.repo == nil {
		return core.NegotiationRound{}, fmt.Errorf("sqlstore: negotiation ledger is not configured")
	}
	sessionID := strings.TrimSpace(round.SessionID)
	if sessionID == "" {
		return core.NegotiationRound{}, fmt.Errorf("sqlstore: negotiation session_id is required")
	}
	createdAt := round.CreatedAt.UTC()
	if round.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	record := &negotiationRecord{
		ID:                 recordID(round.ID),
		SessionID:          sessionID,
		LoadID:             strings.TrimSpace(round.LoadID),
		Miles:              round.Miles,
		LoadboardRate:      round.LoadboardRate,
		Price:              round.Price,
		UserMessage:        round.UserMessage,
		UserRequestedPrice: round.UserRequestedPrice,
		CurRound:           round.CurRound,
		MaxRounds:          round.MaxRounds,
		AgentPrice:         round.AgentPrice,
		AgentReason:        round.AgentReason,
		History:            round.History,
		Sentiment:          round.Sentiment,
		CreatedAt:          createdAt,
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.NegotiationRound{}, err
	}
	return toDomainRound(created), nil
}

// ListRounds returns every round of a session, oldest first.
func (s *NegotiationLedger) ListRounds(ctx context.Context, sessionID string) ([]core.NegotiationRound, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("sqlstore: negotiation ledger is not configured")
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return []core.NegotiationRound{}, nil
	}
	records := make([]*negotiationRecord, 0)
	err := s.db.NewSelect().
		Model(&records).
		Where("?TableAlias.session_id = ?", sessionID).
		OrderExpr("?TableAlias.created_at ASC").
		OrderExpr("?TableAlias.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]core.NegotiationRound, 0, len(records))
	for _, record := range records {
		out = append(out, toDomainRound(record))
	}
	return out, nil
}

func toDomainRound(record *negotiationRecord) core.NegotiationRound {
	if record == nil {
		return core.NegotiationRound{}
	}
	return core.NegotiationRound{
		ID:                 record.ID,
		SessionID:          record.SessionID,
		LoadID:             record.LoadID,
		Miles:              record.Miles,
		LoadboardRate:      record.LoadboardRate,
		Price:              record.Price,
		UserMessage:        record.UserMessage,
		UserRequestedPrice: record.UserRequestedPrice,
		CurRound:           record.CurRound,
		MaxRounds:          record.MaxRounds,
		AgentPrice:         record.AgentPrice,
		AgentReason:        record.AgentReason,
		History:            record.History,
		Sentiment:          record.Sentiment,
		CreatedAt:          record.CreatedAt.UTC(),
	}
}
