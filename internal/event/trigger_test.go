package event

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerJSONSecondsEncoding(t *testing.T) {
	trigger := Trigger{
		Metadata: Metadata{ID: "test-1", Timestamp: ts(t, "2023-01-01T12:00:00Z")},
		Reason:   "motion",
		Cameras:  []string{"front"},
		Pre:      Seconds(30 * time.Second),
		Post:     Seconds(2 * time.Minute),
	}

	data, err := json.Marshal(trigger)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `30`, string(raw["pre"]))
	assert.JSONEq(t, `120`, string(raw["post"]))

	var decoded Trigger
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 30*time.Second, decoded.Pre.Duration())
	assert.Equal(t, 2*time.Minute, decoded.Post.Duration())
}

func TestTriggerWindow(t *testing.T) {
	trigger := Trigger{
		Metadata: Metadata{ID: "test-1", Timestamp: ts(t, "2023-01-01T12:00:00Z")},
		Pre:      Seconds(30 * time.Second),
		Post:     Seconds(60 * time.Second),
	}

	assert.True(t, trigger.StartTime().Equal(ts(t, "2023-01-01T11:59:30Z")))
	assert.True(t, trigger.EndTime().Equal(ts(t, "2023-01-01T12:01:00Z")))
}

func TestResolveUsesTemplateDefaults(t *testing.T) {
	tpl := TriggerTemplate{
		Cameras: []string{"front", "back"},
		Reason:  "motion detected",
		Pre:     30 * time.Second,
		Post:    90 * time.Second,
	}

	now := ts(t, "2023-01-01T12:00:00Z")
	trigger := tpl.Resolve(TriggerCommand{ID: "test-1"}, now)

	assert.Equal(t, "test-1", trigger.Metadata.ID)
	assert.True(t, trigger.Metadata.Timestamp.Equal(now))
	assert.Equal(t, "motion detected", trigger.Reason)
	assert.Equal(t, []string{"front", "back"}, trigger.Cameras)
	assert.Equal(t, 30*time.Second, trigger.Pre.Duration())
	assert.Equal(t, 90*time.Second, trigger.Post.Duration())
}

func TestResolveCommandOverridesTemplate(t *testing.T) {
	tpl := TriggerTemplate{
		Cameras: []string{"front"},
		Reason:  "motion detected",
		Pre:     30 * time.Second,
		Post:    90 * time.Second,
	}

	when := ts(t, "2023-01-01T11:00:00Z")
	reason := "door opened"
	pre := Seconds(5 * time.Second)
	post := Seconds(10 * time.Second)

	trigger := tpl.Resolve(TriggerCommand{
		ID:        "test-1",
		Timestamp: &when,
		Cameras:   []string{"garage"},
		Reason:    &reason,
		Pre:       &pre,
		Post:      &post,
	}, ts(t, "2023-01-01T12:00:00Z"))

	assert.True(t, trigger.Metadata.Timestamp.Equal(when))
	assert.Equal(t, []string{"garage"}, trigger.Cameras)
	assert.Equal(t, "door opened", trigger.Reason)
	assert.Equal(t, 5*time.Second, trigger.Pre.Duration())
	assert.Equal(t, 10*time.Second, trigger.Post.Duration())
}

func TestTriggerCommandSparseJSON(t *testing.T) {
	var cmd TriggerCommand
	require.NoError(t, json.Unmarshal([]byte(`{"id":"test-1","pre":15}`), &cmd))

	assert.Equal(t, "test-1", cmd.ID)
	assert.Nil(t, cmd.Timestamp)
	assert.Nil(t, cmd.Reason)
	require.NotNil(t, cmd.Pre)
	assert.Equal(t, 15*time.Second, cmd.Pre.Duration())
	assert.Nil(t, cmd.Post)
}
