package subscribers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marcelsud/webhook-outbox/subscribers"
	"github.com/marcelsud/webhook-outbox/webhook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subscribers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("success - valid subscribers file", func(t *testing.T) {
		t.Setenv("LOGISTICS_SECRET", "from-env")
		path := writeFile(t, `
subscribers:
  - id: "payments-erp"
    url: "https://erp.example.com/hooks"
    secret: "s3cret"
    event_types: ["payment.*", "order.created"]
  - id: "logistics"
    url: "http://logistics.internal/webhook"
    secret_env: "LOGISTICS_SECRET"
    active: false
`)

		subs, err := subscribers.Load(path)
		require.NoError(t, err)
		require.Len(t, subs, 2)

		// sorted by id
		assert.Equal(t, "logistics", subs[0].ID)
		assert.Equal(t, "from-env", subs[0].Secret)
		assert.False(t, subs[0].Active)

		assert.Equal(t, "payments-erp", subs[1].ID)
		assert.Equal(t, "https://erp.example.com/hooks", subs[1].URL)
		assert.Equal(t, "s3cret", subs[1].Secret)
		assert.True(t, subs[1].Active)
		assert.Equal(t, []string{"payment.*", "order.created"}, subs[1].EventTypes)
	})

	t.Run("error - file not found", func(t *testing.T) {
		_, err := subscribers.Load("nonexistent.yaml")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "reading subscribers file")
	})

	t.Run("error - invalid YAML", func(t *testing.T) {
		_, err := subscribers.Load(writeFile(t, `invalid yaml content: [[[`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "parsing subscribers YAML")
	})

	t.Run("error - duplicate id", func(t *testing.T) {
		_, err := subscribers.Parse([]byte(`
subscribers:
  - {id: "a", url: "https://a.example.com", secret: "x"}
  - {id: "a", url: "https://b.example.com", secret: "y"}
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate subscriber id")
	})

	t.Run("error - secret env not set", func(t *testing.T) {
		_, err := subscribers.Parse([]byte(`
subscribers:
  - {id: "a", url: "https://a.example.com", secret_env: "WEBHOOK_OUTBOX_UNSET_SECRET"}
`))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "secret cannot be empty")
	})
}

func TestValidate(t *testing.T) {
	valid := webhook.Subscriber{ID: "sub", URL: "https://example.com/hook", Secret: "s", Active: true}

	t.Run("valid subscriber", func(t *testing.T) {
		require.NoError(t, subscribers.Validate(valid))
	})

	tests := []struct {
		name   string
		modify func(*webhook.Subscriber)
		want   string
	}{
		{"error - empty id", func(s *webhook.Subscriber) { s.ID = "" }, "id cannot be empty"},
		{"error - empty url", func(s *webhook.Subscriber) { s.URL = "" }, "url cannot be empty"},
		{"error - unsupported scheme", func(s *webhook.Subscriber) { s.URL = "ftp://example.com" }, "url must be http or https"},
		{"error - missing host", func(s *webhook.Subscriber) { s.URL = "https:///path" }, "url must have a host"},
		{"error - empty secret", func(s *webhook.Subscriber) { s.Secret = "" }, "secret cannot be empty"},
		{"error - invalid event type", func(s *webhook.Subscriber) { s.EventTypes = []string{"payment..x"} }, "invalid event_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.modify(&sub)

			err := subscribers.Validate(sub)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
