package webhook

import (
	"errors"
	"fmt"

	"github.com/marcelsud/webhook-outbox/webhook/signature"
)

/* Configuration errors are fatal for the current call and never retried.
 * Callers classify with errors.Is(err, ErrConfiguration).
 */
var (
	ErrConfiguration      = errors.New("webhook configuration error")
	ErrSubscriberNotFound = fmt.Errorf("%w: subscriber not found", ErrConfiguration)
	ErrSubscriberInactive = fmt.Errorf("%w: subscriber is inactive", ErrConfiguration)
	ErrInvalidEvent       = fmt.Errorf("%w: invalid event name", ErrConfiguration)

	// ErrNoRecentPayload means nothing was delivered for the pair within the retention window
	ErrNoRecentPayload = errors.New("no recent payload")

	// ErrMissingSecret is a signing defect, propagated to the caller and never retried
	ErrMissingSecret = signature.ErrMissingSecret
)

// IsConfigurationError reports whether err is a configuration error
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
