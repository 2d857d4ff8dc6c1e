package loadrelay

import "github.com/goliatone/go-loadrelay/core"

type Config = core.Config

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies

type Load = core.Load
type LoadQuery = core.LoadQuery
type LoadRepository = core.LoadRepository
type Job = core.Job
type NegotiationSession = core.NegotiationSession
type NegotiationRound = core.NegotiationRound
type NegotiationLedger = core.NegotiationLedger
type EventRecorder = core.EventRecorder
type Relay = core.Relay
type CarrierEligibility = core.CarrierEligibility

type SubmitJobRequest = core.SubmitJobRequest
type CallbackRequest = core.CallbackRequest
type StartNegotiationRequest = core.StartNegotiationRequest
type NegotiationResultRequest = core.NegotiationResultRequest

var (
	WithLogger            = core.WithLogger
	WithLoggerProvider    = core.WithLoggerProvider
	WithMetricsRecorder   = core.WithMetricsRecorder
	WithConfigProvider    = core.WithConfigProvider
	WithOptionsResolver   = core.WithOptionsResolver
	WithLoadRepository    = core.WithLoadRepository
	WithJobStore          = core.WithJobStore
	WithSessionStore      = core.WithSessionStore
	WithNegotiationLedger = core.WithNegotiationLedger
	WithEventRecorder     = core.WithEventRecorder
	WithRelay             = core.WithRelay
	WithClock             = core.WithClock
	WithHandleGenerator   = core.WithHandleGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}
