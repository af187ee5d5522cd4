// Package processor implements the event processor service: it turns
// triggers into events, maps events onto camera video segments, and submits
// both to the storage APIs for archival.
package processor

import (
	"log/slog"
	"time"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/observability"
)

// Config is the event processor configuration file. Durations are given in
// seconds.
type Config struct {
	// StateStore is the directory where active events and the archive
	// retry queue are persisted.
	StateStore string `mapstructure:"state_store"`

	// HTTPServerAddress is the listen address for the trigger API.
	HTTPServerAddress string `mapstructure:"http_server_address"`

	EventProcessInterval time.Duration `mapstructure:"event_process_interval"`
	ArchiveRetryInterval time.Duration `mapstructure:"archive_retry_interval"`

	// ArchiveFailedTaskTTL bounds how long a failed archive task is
	// retried before being dropped.
	ArchiveFailedTaskTTL time.Duration `mapstructure:"archive_failed_task_ttl"`

	// EventTTL is how long after its end time an event stays active.
	EventTTL time.Duration `mapstructure:"event_ttl"`

	// ArchiveWorkers is the number of concurrent archive task submissions.
	ArchiveWorkers int `mapstructure:"archive_workers"`

	StorageAPIURLs []string `mapstructure:"storage_api_urls"`

	Cameras []CameraConfig `mapstructure:"cameras"`

	Triggers TriggersConfig `mapstructure:"triggers"`

	Logging observability.LoggingConfig `mapstructure:"logging"`
}

// defaultArchiveWorkers applies when archive_workers is unset.
const defaultArchiveWorkers = 8

// ApplyDefaults fills unset optional fields.
func (c *Config) ApplyDefaults() {
	if c.ArchiveWorkers <= 0 {
		c.ArchiveWorkers = defaultArchiveWorkers
	}
}

// CameraConfig names one camera and the URL of its agent's HLS endpoint.
type CameraConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

// TriggersConfig supplies defaults for sparse trigger commands: a template
// per known trigger id, plus a fallback for the rest.
type TriggersConfig struct {
	Templates map[string]event.TriggerTemplate `mapstructure:"templates"`
	Fallback  event.TriggerTemplate            `mapstructure:"fallback"`
}

// CreateTrigger resolves a trigger command against the matching template.
func (c TriggersConfig) CreateTrigger(cmd event.TriggerCommand, now time.Time) event.Trigger {
	template, ok := c.Templates[cmd.ID]
	if ok {
		slog.Info("Found predefined template for ID", "id", cmd.ID)
	} else {
		slog.Info("No template matches ID, using fallback", "id", cmd.ID)
		template = c.Fallback
	}

	return template.Resolve(cmd, now)
}
