package sqlstore

import (
	"fmt"

	"github.com/goliatone/go-loadrelay/core"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

type RepositoryFactory struct {
	db *bun.DB

	loadRepository    *LoadRepository
	negotiationLedger *NegotiationLedger
	eventStore        *EventStore
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{}
}

func NewRepositoryFactoryFromPersistence(client *persistence.Client) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(client); err != nil {
		return nil, err
	}
	return factory, nil
}

func NewRepositoryFactoryFromDB(db *bun.DB) (*RepositoryFactory, error) {
	factory := NewRepositoryFactory()
	if err := factory.BuildStores(db); err != nil {
		return nil, err
	}
	return factory, nil
}

// BuildStores accepts a *bun.DB or anything exposing DB() *bun.DB, such as a
// go-persistence-bun client.
func (f *RepositoryFactory) BuildStores(persistenceClient any) error {
	if f == nil {
		return fmt.Errorf("sqlstore: repository factory is nil")
	}
	if f.db == nil {
		db, err := resolveBunDB(persistenceClient)
		if err != nil {
			return err
		}
		f.db = db
	}
	if f.loadRepository != nil && f.negotiationLedger != nil && f.eventStore != nil {
		return nil
	}
	return f.initStores()
}

func (f *RepositoryFactory) DB() *bun.DB {
	if f == nil {
		return nil
	}
	return f.db
}

func (f *RepositoryFactory) Loads() *LoadRepository {
	if f == nil {
		return nil
	}
	return f.loadRepository
}

func (f *RepositoryFactory) LoadRepository() core.LoadRepository {
	if f == nil || f.loadRepository == nil {
		return nil
	}
	return f.loadRepository
}

func (f *RepositoryFactory) NegotiationLedger() core.NegotiationLedger {
	if f == nil || f.negotiationLedger == nil {
		return nil
	}
	return f.negotiationLedger
}

func (f *RepositoryFactory) EventRecorder() core.EventRecorder {
	if f == nil || f.eventStore == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) EventStore() *EventStore {
	if f == nil {
		return nil
	}
	return f.eventStore
}

func (f *RepositoryFactory) initStores() error {
	loadRepository, err := NewLoadRepository(f.db)
	if err != nil {
		return err
	}
	negotiationLedger, err := NewNegotiationLedger(f.db)
	if err != nil {
		return err
	}
	eventStore, err := NewEventStore(f.db)
	if err != nil {
		return err
	}
	f.loadRepository = loadRepository
	f.negotiationLedger = negotiationLedger
	f.eventStore = eventStore
	return nil
}

func resolveBunDB(candidate any) (*bun.DB, error) {
	switch typed := candidate.(type) {
	case nil:
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	case *bun.DB:
		return typed, nil
	case interface{ DB() *bun.DB }:
		db := typed.DB()
		if db == nil {
			return nil, fmt.Errorf("sqlstore: persistence client returned nil bun db")
		}
		return db, nil
	default:
		return nil, fmt.Errorf("sqlstore: unsupported persistence client type %T", candidate)
	}
}
