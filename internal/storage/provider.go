package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/satori-nvr/satori/internal/event"
	"github.com/satori-nvr/satori/internal/storage/encryption"
)

const (
	eventsPrefix   = "events"
	segmentsPrefix = "segments"

	eventExtension   = ".json"
	segmentExtension = ".ts"
)

// Config is the storage section of the archiver and CLI configuration.
type Config struct {
	URL        string           `mapstructure:"url"`
	Encryption EncryptionConfig `mapstructure:"encryption"`
}

// EncryptionConfig optionally assigns an encryption key to each object
// class. A missing key means that class is stored in the clear.
type EncryptionConfig struct {
	Event   *encryption.KeyConfig `mapstructure:"event"`
	Segment *encryption.KeyConfig `mapstructure:"segment"`
}

// Provider stores events and video segments in a backend using the archive
// layout:
//
//	events/<timestamp>_<id>.json
//	segments/<camera>/<timestamp>.ts
//
// When encryption keys are configured, objects are sealed with their
// identity as additional authenticated data, so renaming an object in the
// store breaks decryption.
type Provider struct {
	backend    Backend
	eventKey   *encryption.Key
	segmentKey *encryption.Key
}

// NewProvider opens the configured backend and loads the encryption keys.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	backend, err := Open(ctx, cfg.URL)
	if err != nil {
		return nil, err
	}

	var eventKey, segmentKey *encryption.Key
	if cfg.Encryption.Event != nil {
		if eventKey, err = cfg.Encryption.Event.Key(); err != nil {
			return nil, fmt.Errorf("loading event encryption key: %w", err)
		}
	}
	if cfg.Encryption.Segment != nil {
		if segmentKey, err = cfg.Encryption.Segment.Key(); err != nil {
			return nil, fmt.Errorf("loading segment encryption key: %w", err)
		}
	}

	return NewProviderWithBackend(backend, eventKey, segmentKey), nil
}

// NewProviderWithBackend wraps an existing backend. Either key may be nil.
func NewProviderWithBackend(backend Backend, eventKey, segmentKey *encryption.Key) *Provider {
	return &Provider{
		backend:    backend,
		eventKey:   eventKey,
		segmentKey: segmentKey,
	}
}

func eventIdentity(filename string) []byte {
	return []byte(filename)
}

func segmentIdentity(camera, filename string) []byte {
	return []byte(camera + " " + filename)
}

// PutEvent stores an event under its metadata filename.
func (p *Provider) PutEvent(ctx context.Context, e event.Event) error {
	filename := e.Metadata.Filename()

	data, err := json.MarshalIndent(e, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", filename, err)
	}

	if p.eventKey != nil {
		if data, err = p.eventKey.Encrypt(eventIdentity(filename), data); err != nil {
			return fmt.Errorf("encrypting event %s: %w", filename, err)
		}
	}

	return p.backend.Put(ctx, eventsPrefix+"/"+filename, data)
}

// GetEvent retrieves and decodes an event by filename.
func (p *Provider) GetEvent(ctx context.Context, filename string) (event.Event, error) {
	data, err := p.backend.Get(ctx, eventsPrefix+"/"+filename)
	if err != nil {
		return event.Event{}, err
	}

	if p.eventKey != nil {
		if data, err = p.eventKey.Decrypt(eventIdentity(filename), data); err != nil {
			return event.Event{}, fmt.Errorf("decrypting event %s: %w", filename, err)
		}
	}

	var e event.Event
	if err := json.Unmarshal(data, &e); err != nil {
		return event.Event{}, fmt.Errorf("decoding event %s: %w", filename, err)
	}
	return e, nil
}

// DeleteEvent removes an event object.
func (p *Provider) DeleteEvent(ctx context.Context, filename string) error {
	return p.backend.Delete(ctx, eventsPrefix+"/"+filename)
}

// ListEvents returns the sorted filenames of every archived event.
func (p *Provider) ListEvents(ctx context.Context) ([]string, error) {
	names, err := p.backend.List(ctx, eventsPrefix)
	if err != nil {
		return nil, err
	}
	return filterExtension(names, eventExtension), nil
}

// PutSegment stores one video segment for a camera.
func (p *Provider) PutSegment(ctx context.Context, camera, filename string, data []byte) error {
	if p.segmentKey != nil {
		var err error
		if data, err = p.segmentKey.Encrypt(segmentIdentity(camera, filename), data); err != nil {
			return fmt.Errorf("encrypting segment %s/%s: %w", camera, filename, err)
		}
	}

	return p.backend.Put(ctx, segmentsPrefix+"/"+camera+"/"+filename, data)
}

// GetSegment retrieves one video segment for a camera.
func (p *Provider) GetSegment(ctx context.Context, camera, filename string) ([]byte, error) {
	data, err := p.backend.Get(ctx, segmentsPrefix+"/"+camera+"/"+filename)
	if err != nil {
		return nil, err
	}

	if p.segmentKey != nil {
		if data, err = p.segmentKey.Decrypt(segmentIdentity(camera, filename), data); err != nil {
			return nil, fmt.Errorf("decrypting segment %s/%s: %w", camera, filename, err)
		}
	}
	return data, nil
}

// DeleteSegment removes one video segment for a camera.
func (p *Provider) DeleteSegment(ctx context.Context, camera, filename string) error {
	return p.backend.Delete(ctx, segmentsPrefix+"/"+camera+"/"+filename)
}

// ListSegments returns the sorted segment filenames archived for a camera.
// Names sort chronologically because they start with the segment timestamp.
func (p *Provider) ListSegments(ctx context.Context, camera string) ([]string, error) {
	names, err := p.backend.List(ctx, segmentsPrefix+"/"+camera)
	if err != nil {
		return nil, err
	}
	return filterExtension(names, segmentExtension), nil
}

// ListCameras returns the sorted names of every camera with archived
// segments.
func (p *Provider) ListCameras(ctx context.Context) ([]string, error) {
	return p.backend.ListPrefixes(ctx, segmentsPrefix)
}

func filterExtension(names []string, ext string) []string {
	result := make([]string, 0, len(names))
	for _, name := range names {
		if strings.HasSuffix(name, ext) {
			result = append(result, name)
		}
	}
	return result
}
