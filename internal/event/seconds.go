package event

import (
	"encoding/json"
	"time"
)

// Seconds is a duration carried on the wire as a bare integer count of
// seconds. Trigger pre/post windows use this encoding.
type Seconds time.Duration

// DurationSeconds builds a Seconds from a time.Duration.
func DurationSeconds(d time.Duration) Seconds {
	return Seconds(d)
}

// Duration returns the underlying time.Duration.
func (s Seconds) Duration() time.Duration {
	return time.Duration(s)
}

// MarshalJSON encodes the duration as whole seconds.
func (s Seconds) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(time.Duration(s) / time.Second))
}

// UnmarshalJSON decodes a bare integer as seconds.
func (s *Seconds) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = Seconds(time.Duration(n) * time.Second)
	return nil
}
