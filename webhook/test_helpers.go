package webhook

import "github.com/stretchr/testify/mock"

// MatchAttempt creates a custom matcher for attempt arguments in mocks
func MatchAttempt(matcher func(Attempt) bool) interface{} {
	return mock.MatchedBy(matcher)
}

