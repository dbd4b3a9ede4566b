package webhook

import "time"

const (
	// BackoffBase is the delay unit multiplied by 2^failures
	BackoffBase = time.Second

	// MaxBackoff caps the delay between retries
	MaxBackoff = time.Minute
)

// Backoff returns min(MaxBackoff, 2^failures * BackoffBase).
// failures is the number of failed attempts so far, so the first retry waits 2s.
func Backoff(failures int) time.Duration {
	if failures <= 0 {
		return 0
	}
	// 2^6 seconds already exceeds the cap; stop shifting before it can overflow
	if failures >= 6 {
		return MaxBackoff
	}
	d := BackoffBase << failures
	if d > MaxBackoff {
		return MaxBackoff
	}
	return d
}
