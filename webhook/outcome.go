package webhook

import "fmt"

// Outcome classifies a delivery attempt
type Outcome int

const (
	Success Outcome = iota + 1
	Failure
)

// String returns the string representation of the outcome
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// NewOutcome creates an Outcome from a string
func NewOutcome(s string) Outcome {
	switch s {
	case "success":
		return Success
	default:
		return Failure
	}
}

// Validate checks if the outcome is valid
func (o Outcome) Validate() error {
	if o != Success && o != Failure {
		return fmt.Errorf("invalid outcome: %d", o)
	}
	return nil
}

// Classify maps an HTTP status code to an outcome; 0 means no response
func Classify(statusCode int) Outcome {
	if statusCode >= 200 && statusCode < 300 {
		return Success
	}
	return Failure
}
