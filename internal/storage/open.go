package storage

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Open builds a backend from a storage URL:
//
//	memory://                      in-memory, for tests
//	file:///var/lib/satori         local filesystem
//	s3://bucket/prefix             S3, credentials from the environment
//
// S3 URLs accept "endpoint" and "region" query parameters for S3 compatible
// stores.
func Open(ctx context.Context, rawURL string) (Backend, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing storage URL %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "memory":
		return NewMemoryBackend(), nil

	case "file":
		return NewFileBackend(u.Path)

	case "s3":
		return NewS3Backend(ctx, u.Host, strings.Trim(u.Path, "/"), S3Options{
			Endpoint: u.Query().Get("endpoint"),
			Region:   u.Query().Get("region"),
		})

	default:
		return nil, fmt.Errorf("no storage backend for URL %q", rawURL)
	}
}
