// Package core contains the relay domain entities, the load matching policy,
// the in-memory job and negotiation stores, and the orchestration service.
// Storage, transport and inbound adapters depend on this package; core must
// not depend on any of them.
package core
