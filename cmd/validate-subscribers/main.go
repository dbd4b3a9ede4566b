package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/marcelsud/webhook-outbox/subscribers"
)

/* validate-subscribers - Standalone CLI tool to validate subscribers.yaml
 * Usage: go run cmd/validate-subscribers/main.go [subscribers.yaml]
 * Exit codes: 0 = valid, 1 = invalid
 */

func main() {
	subscribersFile := "subscribers.yaml"
	if len(os.Args) > 1 {
		subscribersFile = os.Args[1]
	}

	fmt.Printf("Validating subscribers file: %s\n", subscribersFile)
	fmt.Println(strings.Repeat("-", 50))

	subs, err := subscribers.Load(subscribersFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ VALIDATION FAILED\n\n")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ VALIDATION PASSED\n\n")
	fmt.Printf("Loaded %d subscriber(s):\n", len(subs))

	for i, s := range subs {
		fmt.Printf("\n%d. Subscriber: %s\n", i+1, s.ID)
		fmt.Printf("   URL:         %s\n", s.URL)
		fmt.Printf("   Active:      %t\n", s.Active)
		if len(s.EventTypes) == 0 {
			fmt.Printf("   Event types: (all)\n")
		} else {
			fmt.Printf("   Event types: %s\n", strings.Join(s.EventTypes, ", "))
		}
	}

	fmt.Printf("\n✓ All subscribers are valid!\n")
	os.Exit(0)
}
