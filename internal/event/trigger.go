package event

import "time"

// Trigger is the fully resolved notification that a scenario of interest is
// happening. Triggers sharing an id merge into a single event.
type Trigger struct {
	Metadata Metadata `json:"metadata"`

	Reason string `json:"reason"`

	Cameras []string `json:"cameras"`

	// Pre and Post extend the recording window either side of the trigger
	// timestamp.
	Pre  Seconds `json:"pre"`
	Post Seconds `json:"post"`
}

// StartTime returns the start of the recording window this trigger asks for.
func (t Trigger) StartTime() time.Time {
	return t.Metadata.Timestamp.Add(-t.Pre.Duration())
}

// EndTime returns the end of the recording window this trigger asks for.
func (t Trigger) EndTime() time.Time {
	return t.Metadata.Timestamp.Add(t.Post.Duration())
}

// TriggerCommand is the sparse trigger request accepted over HTTP. Every
// field except the id is optional; missing fields are filled from a
// configured template.
type TriggerCommand struct {
	ID        string     `json:"id"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
	Cameras   []string   `json:"cameras,omitempty"`
	Reason    *string    `json:"reason,omitempty"`
	Pre       *Seconds   `json:"pre,omitempty"`
	Post      *Seconds   `json:"post,omitempty"`
}

// TriggerTemplate supplies defaults for trigger commands. Templates are
// configured per trigger id, with a fallback for unknown ids.
type TriggerTemplate struct {
	Cameras []string      `mapstructure:"cameras"`
	Reason  string        `mapstructure:"reason"`
	Pre     time.Duration `mapstructure:"pre"`
	Post    time.Duration `mapstructure:"post"`
}

// Resolve combines a trigger command with the template's defaults into a
// complete trigger. A missing timestamp defaults to now.
func (tpl TriggerTemplate) Resolve(cmd TriggerCommand, now time.Time) Trigger {
	t := Trigger{
		Metadata: Metadata{
			ID:        cmd.ID,
			Timestamp: now,
		},
		Reason:  tpl.Reason,
		Cameras: tpl.Cameras,
		Pre:     Seconds(tpl.Pre),
		Post:    Seconds(tpl.Post),
	}

	if cmd.Timestamp != nil {
		t.Metadata.Timestamp = *cmd.Timestamp
	}
	if cmd.Reason != nil {
		t.Reason = *cmd.Reason
	}
	if cmd.Cameras != nil {
		t.Cameras = cmd.Cameras
	}
	if cmd.Pre != nil {
		t.Pre = *cmd.Pre
	}
	if cmd.Post != nil {
		t.Post = *cmd.Post
	}

	return t
}
