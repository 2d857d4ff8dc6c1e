package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

func negotiationHandlers() repository.ModelHandlers[*negotiationRecord] {
	return repository.ModelHandlers[*negotiationRecord]{
		NewRecord: func() *negotiationRecord {
			return &negotiationRecord{}
		},
		GetID: func(record *negotiationRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *negotiationRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *negotiationRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func eventHandlers() repository.ModelHandlers[*eventRecord] {
	return repository.ModelHandlers[*eventRecord]{
		NewRecord: func() *eventRecord {
			return &eventRecord{}
		},
		GetID: func(record *eventRecord) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return parseUUID(record.ID)
		},
		SetID: func(record *eventRecord, id uuid.UUID) {
			if record == nil {
				return
			}
			record.ID = id.String()
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(record *eventRecord) string {
			if record == nil {
				return ""
			}
			return strings.TrimSpace(record.ID)
		},
	}
}

func parseUUID(value string) uuid.UUID {
	parsed, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return uuid.Nil
	}
	return parsed
}

// recordID keeps a caller supplied uuid and replaces anything else, since the
// repository identifies rows by uuid.
func recordID(candidate string) string {
	if id := parseUUID(candidate); id != uuid.Nil {
		return id.String()
	}
	return uuid.NewString()
}
