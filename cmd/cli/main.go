package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/marcelsud/webhook-outbox/config"
	"github.com/marcelsud/webhook-outbox/internal/app"
	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/rs/zerolog"
)

/* cli - operator commands run against the configured stores
 * Usage:
 *   cli test-fire <subscriber_id> <event> [key=value ...]
 *   cli deliver <subscriber_id> <event> '<json>'
 *   cli redeliver <subscriber_id> <event>
 *   cli history <subscriber_id>
 * Retries of failed deliveries are only picked up by a running api when
 * REDIS_ADDR is set.
 */

const usage = `usage:
  cli test-fire <subscriber_id> <event> [key=value ...]
  cli deliver <subscriber_id> <event> '<json>'
  cli redeliver <subscriber_id> <event>
  cli history <subscriber_id>`

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 2 {
		return errors.New(usage)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(cfg.GetLogLevel()).
		With().Timestamp().Logger()

	ctx := context.Background()
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		ctxTimeout, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.Close(ctxTimeout); err != nil {
			logger.Error().Err(err).Msg("closing delivery engine")
		}
	}()

	command, subscriberID := args[0], args[1]
	rest := args[2:]

	switch command {
	case "test-fire":
		if len(rest) < 1 {
			return errors.New(usage)
		}
		extra, err := parseFields(rest[1:])
		if err != nil {
			return err
		}
		result, err := a.Service.TestFire(ctx, subscriberID, rest[0], extra)
		return report(a, result, err)

	case "deliver":
		if len(rest) != 2 {
			return errors.New(usage)
		}
		if !json.Valid([]byte(rest[1])) {
			return errors.New("payload must be a JSON document")
		}
		result, err := a.Service.DeliverEvent(ctx, subscriberID, rest[0], json.RawMessage(rest[1]))
		return report(a, result, err)

	case "redeliver":
		if len(rest) != 1 {
			return errors.New(usage)
		}
		result, err := a.Service.RedeliverLast(ctx, subscriberID, rest[0])
		return report(a, result, err)

	case "history":
		history, err := a.Service.History(ctx, subscriberID)
		if err != nil {
			return err
		}
		printHistory(history)
		return nil

	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

// parseFields turns key=value arguments into payload fields
func parseFields(args []string) (map[string]any, error) {
	fields := make(map[string]any, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q, expected key=value", arg)
		}
		fields[key] = value
	}
	return fields, nil
}

func report(a *app.App, result webhook.DeliveryResult, err error) error {
	if err != nil {
		return err
	}

	fmt.Printf("outcome:  %s\n", result.Outcome)
	fmt.Printf("attempt:  %d\n", result.Attempt)
	fmt.Printf("status:   %d\n", result.StatusCode)
	fmt.Printf("duration: %s\n", result.Duration)
	if result.Error != "" {
		fmt.Printf("error:    %s\n", result.Error)
	}
	if result.ResponseBody != "" {
		fmt.Printf("response: %s\n", result.ResponseBody)
	}
	if !result.Succeeded() && !a.Shared {
		fmt.Println("\nretry queued in memory only; it is lost when this command exits")
	}
	return nil
}

func printHistory(h webhook.History) {
	fmt.Printf("Recent attempts for %s (%d):\n", h.SubscriberID, len(h.Recent))
	for _, at := range h.Recent {
		printAttempt(at)
	}
	fmt.Printf("\nDurable history (%d):\n", len(h.Durable))
	for _, at := range h.Durable {
		printAttempt(at)
	}
}

func printAttempt(a webhook.Attempt) {
	line := fmt.Sprintf("  %s  %-18s #%d  %-7s  %3d  %s",
		a.CreatedAt.Format(time.RFC3339), a.Event, a.AttemptNumber, a.Outcome, a.StatusCode, a.Duration)
	if a.Error != "" {
		line += "  " + a.Error
	}
	fmt.Println(line)
}
