//go:build integration

package webhook

import (
	"fmt"
	"testing"
	"time"
)

// GenerateSubscriberID generates a unique subscriber ID for testing
func GenerateSubscriberID(t *testing.T, index int) string {
	t.Helper()
	return fmt.Sprintf("test-subscriber-%d-%d", index, time.Now().UnixNano())
}
