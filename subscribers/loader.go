package subscribers

import (
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/marcelsud/webhook-outbox/webhook/payload"
	"gopkg.in/yaml.v3"
)

/* Loader reads subscriber registrations from subscribers.yaml
 * Registration is owned by the marketplace; the file seeds the registry and
 * the postgres store for local and single-node deployments
 */

// File represents the structure of subscribers.yaml
type File struct {
	Subscribers []Entry `yaml:"subscribers"`
}

// Entry represents a single subscriber in the YAML file
type Entry struct {
	ID         string   `yaml:"id"`
	URL        string   `yaml:"url"`
	Secret     string   `yaml:"secret"`
	SecretEnv  string   `yaml:"secret_env"` // Optional: read the secret from this variable
	Active     *bool    `yaml:"active"`     // Default: true
	EventTypes []string `yaml:"event_types"`
}

// Subscriber converts the entry, resolving the secret and the active default
func (e Entry) Subscriber() webhook.Subscriber {
	secret := e.Secret
	if e.SecretEnv != "" {
		secret = os.Getenv(e.SecretEnv)
	}
	active := true
	if e.Active != nil {
		active = *e.Active
	}
	return webhook.Subscriber{
		ID:         e.ID,
		URL:        e.URL,
		Secret:     secret,
		Active:     active,
		EventTypes: e.EventTypes,
	}
}

// Validate checks if a subscriber registration is usable
func Validate(s webhook.Subscriber) error {
	if s.ID == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if s.URL == "" {
		return fmt.Errorf("url cannot be empty for subscriber %s", s.ID)
	}
	u, err := url.Parse(s.URL)
	if err != nil {
		return fmt.Errorf("invalid url for subscriber %s: %w", s.ID, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url must be http or https for subscriber %s (got %q)", s.ID, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url must have a host for subscriber %s", s.ID)
	}
	if s.Secret == "" {
		return fmt.Errorf("secret cannot be empty for subscriber %s", s.ID)
	}
	for _, eventType := range s.EventTypes {
		if err := payload.ValidateEventType(eventType); err != nil {
			return fmt.Errorf("invalid event_type '%s' for subscriber %s: %w", eventType, s.ID, err)
		}
	}
	return nil
}

// Load reads, parses and validates a subscribers file
func Load(filePath string) ([]webhook.Subscriber, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("reading subscribers file: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates subscribers YAML
func Parse(data []byte) ([]webhook.Subscriber, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing subscribers YAML: %w", err)
	}

	seen := make(map[string]bool, len(file.Subscribers))
	subs := make([]webhook.Subscriber, 0, len(file.Subscribers))
	for _, entry := range file.Subscribers {
		sub := entry.Subscriber()
		if err := Validate(sub); err != nil {
			return nil, fmt.Errorf("validating subscriber: %w", err)
		}
		if seen[sub.ID] {
			return nil, fmt.Errorf("duplicate subscriber id: %s", sub.ID)
		}
		seen[sub.ID] = true
		subs = append(subs, sub)
	}

	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
