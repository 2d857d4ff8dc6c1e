package sqlstore

import "github.com/goliatone/go-loadrelay/core"

var (
	_ core.LoadRepository    = (*LoadRepository)(nil)
	_ core.NegotiationLedger = (*NegotiationLedger)(nil)
	_ core.EventRecorder     = (*EventStore)(nil)
	_ core.LoadRepository    = (*CachedLoadRepository)(nil)
)
