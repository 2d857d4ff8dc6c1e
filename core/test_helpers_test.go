package core

import (
	"context"
	"sync"
	"time"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu       sync.Mutex
	counters []capturedCounter
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(context.Context, string, float64, map[string]string) {}

func (m *captureMetricsRecorder) hasCounter(name string, status string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, counter := range m.counters {
		if counter.name == name && counter.tags["status"] == status {
			return true
		}
	}
	return false
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) hasLog(level string, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, record := range *l.records {
		if record.level == level && record.msg == msg {
			return true
		}
	}
	return false
}

type stubLoggerProvider struct {
	logger Logger
}

func (p stubLoggerProvider) GetLogger(string) Logger {
	return p.logger
}

type recordingRelay struct {
	mu       sync.Mutex
	requests []DeliveryRequest
	result   DeliveryResult
	deliver  func(DeliveryRequest) DeliveryResult
}

func (r *recordingRelay) Deliver(_ context.Context, req DeliveryRequest) DeliveryResult {
	r.mu.Lock()
	r.requests = append(r.requests, req)
	deliver := r.deliver
	result := r.result
	r.mu.Unlock()
	if deliver != nil {
		return deliver(req)
	}
	return result
}

func (r *recordingRelay) calls() []DeliveryRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]DeliveryRequest(nil), r.requests...)
}

type memoryLedger struct {
	mu     sync.Mutex
	rounds []NegotiationRound
	err    error
}

func (l *memoryLedger) AppendRound(_ context.Context, round NegotiationRound) (NegotiationRound, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return NegotiationRound{}, l.err
	}
	l.rounds = append(l.rounds, round)
	return round, nil
}

func (l *memoryLedger) ListRounds(_ context.Context, sessionID string) ([]NegotiationRound, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
	}
	out := []NegotiationRound{}
	for _, round := range l.rounds {
		if round.SessionID == sessionID {
			out = append(out, round)
		}
	}
	return out, nil
}

type memoryEvents struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (e *memoryEvents) Record(_ context.Context, event Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return e.err
	}
	e.events = append(e.events, event)
	return nil
}

func floatPtr(value float64) *float64 { return &value }

func intPtr(value int) *int { return &value }

func timePtr(value time.Time) *time.Time { return &value }

var fixtureBase = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func fixtureLoads() []Load {
	return []Load{
		{LoadID: "L1", Origin: "Dallas, TX", Destination: "Atlanta, GA", PickupAt: timePtr(fixtureBase.Add(48 * time.Hour)), Rate: floatPtr(2100), Weight: floatPtr(1000), Miles: floatPtr(780)},
		{LoadID: "L2", Origin: "Dallas, TX", Destination: "Atlanta, GA", PickupAt: timePtr(fixtureBase.Add(24 * time.Hour)), Rate: floatPtr(1800), Weight: floatPtr(1080), Miles: floatPtr(800)},
		{LoadID: "L3", Origin: "Dallas, TX", Destination: "Atlanta, GA", PickupAt: timePtr(fixtureBase.Add(24 * time.Hour)), Rate: floatPtr(2400), Weight: floatPtr(950), Miles: floatPtr(760)},
		{LoadID: "L4", Origin: "Houston, TX", Destination: "Chicago, IL", PickupAt: nil, Rate: nil, Weight: floatPtr(5000), Miles: floatPtr(1080)},
		{LoadID: "L5", Origin: "dallas", Destination: "Memphis, TN", PickupAt: timePtr(fixtureBase.Add(72 * time.Hour)), Rate: floatPtr(900), Weight: nil, Miles: floatPtr(450)},
	}
}

func loadIDs(loads []Load) []string {
	out := make([]string, 0, len(loads))
	for _, load := range loads {
		out = append(out, load.LoadID)
	}
	return out
}

func newTestService(t interface{ Fatalf(string, ...any) }, cfg Config, opts ...Option) *Service {
	svc, err := NewService(cfg, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Auth.Token = "incoming-token"
	cfg.Workflow.URL = "https://workflow.example/hook"
	cfg.Workflow.APIKey = "workflow-key"
	cfg.Negotiation.WebhookURL = "https://workflow.example/negotiate"
	cfg.Negotiation.APIKey = "negotiation-key"
	cfg.Carrier.APIKey = "carrier-key"
	return cfg
}
