package health

import (
	"context"
	"encoding/json"
	"time"
)

// Checker fetches the health payload of a downstream dependency.
type Checker interface {
	Health(ctx context.Context) (json.RawMessage, error)
}

// Status is the liveness payload of this service.
type Status struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
}

// LLMStatus reports reachability of the parsing service.
type LLMStatus struct {
	LLMStatus   string          `json:"llm_status"`
	LLMResponse json.RawMessage `json:"llm_response,omitempty"`
	Error       string          `json:"error,omitempty"`
}

// Service encapsulates health-related checks.
type Service struct {
	name   string
	parser Checker
	now    func() time.Time
}

// NewService constructs a new health service.
func NewService(name string, parser Checker) *Service {
	return &Service{name: name, parser: parser, now: time.Now}
}

// Status returns the liveness payload.
func (s *Service) Status() Status {
	return Status{
		Status:    "healthy",
		Timestamp: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		Service:   s.name,
	}
}

// LLM asks the parsing service for its health and reports whether it answered.
func (s *Service) LLM(ctx context.Context) (LLMStatus, bool) {
	payload, err := s.parser.Health(ctx)
	if err != nil {
		return LLMStatus{LLMStatus: "disconnected", Error: err.Error()}, false
	}
	return LLMStatus{LLMStatus: "connected", LLMResponse: payload}, true
}
