package amqp

import (
	"encoding/json"
	"time"

	"finance/internal/resolver"
)

// RouteResolvedMessage announces that a route key was discovered on a backend.
type RouteResolvedMessage struct {
	Key       string    `json:"key"`
	Path      string    `json:"path"`
	BaseURL   string    `json:"base_url"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRouteResolvedMessage builds a message from a resolution. A route without
// a resolution time is stamped with the current time.
func NewRouteResolvedMessage(route resolver.ResolvedRoute) *RouteResolvedMessage {
	ts := route.ResolvedAt
	if ts.IsZero() {
		ts = time.Now()
	}
	return &RouteResolvedMessage{
		Key:       string(route.Key),
		Path:      route.Path,
		BaseURL:   route.BaseURL,
		Timestamp: ts.UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RouteResolvedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RouteResolvedMessageFromJSON parses a message body.
func RouteResolvedMessageFromJSON(data []byte) (*RouteResolvedMessage, error) {
	var msg RouteResolvedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
