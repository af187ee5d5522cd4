package processor

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/satori-nvr/satori/internal/hls"
)

// HLSClient fetches camera playlists from the agents.
type HLSClient struct {
	httpClient *http.Client
	cameraURLs map[string]*url.URL
}

// NewHLSClient builds a client for the configured cameras. Agents commonly
// sit behind self-signed TLS, so certificate verification is disabled.
func NewHLSClient(cameras []CameraConfig) (*HLSClient, error) {
	cameraURLs := make(map[string]*url.URL, len(cameras))
	for _, camera := range cameras {
		u, err := url.Parse(camera.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing URL for camera %q: %w", camera.Name, err)
		}
		cameraURLs[camera.Name] = u
	}

	return &HLSClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
		cameraURLs: cameraURLs,
	}, nil
}

// CameraURL returns the playlist URL for a configured camera.
func (c *HLSClient) CameraURL(camera string) (*url.URL, error) {
	u, ok := c.cameraURLs[camera]
	if !ok {
		return nil, fmt.Errorf("no such camera %q", camera)
	}
	return u, nil
}

// GetPlaylist fetches and parses a camera's current playlist.
func (c *HLSClient) GetPlaylist(ctx context.Context, camera string) ([]hls.Segment, error) {
	u, err := c.CameraURL(camera)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching playlist for camera %q: %w", camera, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("camera %q returned status %d", camera, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading playlist for camera %q: %w", camera, err)
	}

	media, err := hls.ParseMediaPlaylist(body)
	if err != nil {
		return nil, err
	}

	return hls.Segments(media)
}

// SegmentURL resolves a playlist segment URI against the camera's playlist
// URL, giving the absolute URL the archiver can fetch the segment from.
func (c *HLSClient) SegmentURL(camera string, segment hls.Segment) (string, error) {
	base, err := c.CameraURL(camera)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(segment.URI)
	if err != nil {
		return "", fmt.Errorf("parsing segment URI %q: %w", segment.URI, err)
	}

	return base.ResolveReference(ref).String(), nil
}
