package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// eventTypePattern validates event names: hierarchical, full-stop delimited, [a-zA-Z0-9_-]
var eventTypePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+(\.[a-zA-Z0-9_-]+)*$`)

const (
	// TestField marks synthetic payloads produced by a test fire
	TestField = "test"

	// EventField and TimestampField are set on every test payload
	EventField     = "event"
	TimestampField = "timestamp"
)

// Test builds the payload of a test delivery.
// Caller fields are merged over the event name and timestamp; the test flag always wins.
func Test(event string, extra map[string]any, at time.Time) map[string]any {
	p := make(map[string]any, len(extra)+3)
	p[EventField] = event
	p[TimestampField] = at.UTC().Format(time.RFC3339Nano)
	for k, v := range extra {
		p[k] = v
	}
	p[TestField] = true
	return p
}

// IsTest reports whether a serialized payload carries test=true
func IsTest(body []byte) bool {
	var p map[string]any
	if err := json.Unmarshal(body, &p); err != nil {
		return false
	}
	v, ok := p[TestField].(bool)
	return ok && v
}

// Encode returns the JSON body for a payload.
// Raw JSON is compacted so that identical payloads produce identical bytes.
func Encode(p any) (json.RawMessage, error) {
	if raw, ok := p.(json.RawMessage); ok && len(raw) > 0 {
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
		return buf.Bytes(), nil
	}

	body, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshaling payload: %w", err)
	}
	return body, nil
}

// MatchesEventType checks if the event matches any of the given event types
// Supports exact matching and prefix matching (e.g., "payment.*" matches "payment.succeeded")
func MatchesEventType(event string, eventTypes []string) bool {
	if len(eventTypes) == 0 {
		// No filter means accept all
		return true
	}

	for _, eventType := range eventTypes {
		if event == eventType {
			return true
		}

		if prefix, ok := strings.CutSuffix(eventType, ".*"); ok && prefix != "" {
			if strings.HasPrefix(event, prefix+".") {
				return true
			}
		}
	}

	return false
}

// ValidateEvent validates a concrete event name
func ValidateEvent(event string) error {
	if event == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if !eventTypePattern.MatchString(event) {
		return fmt.Errorf("event name must be hierarchical and contain only [a-zA-Z0-9_-.]: %s", event)
	}
	return nil
}

// ValidateEventType validates an event type filter, which may end in ".*"
func ValidateEventType(eventType string) error {
	if eventType == "" {
		return fmt.Errorf("event type cannot be empty")
	}

	// Allow wildcard suffix for filtering
	if prefix, ok := strings.CutSuffix(eventType, ".*"); ok {
		eventType = prefix
	}

	if !eventTypePattern.MatchString(eventType) {
		return fmt.Errorf("event type must be hierarchical and contain only [a-zA-Z0-9_-.]: %s", eventType)
	}

	return nil
}
