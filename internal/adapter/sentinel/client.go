// Package sentinel implements the imagery catalog client. The catalog
// service fronts the Sentinel-2 surface reflectance archive: scene search
// over a region/date window, and per-polygon pixel sampling of the four
// bands the indices need.
package sentinel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/observability"
)

// Client queries the imagery catalog over HTTP.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a catalog client for the given service base URL.
func NewClient(baseURL, token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Search returns candidate scenes over the region between from and to
// (inclusive, "2006-01-02") at or below maxCloud percent cloud cover. The
// cloud ceiling is inclusive and enforced client-side as well, and scenes
// whose footprint does not intersect the region are dropped. An empty
// result is a normal outcome, not an error; transport, auth, and server
// failures wrap domain.ErrProviderUnavailable.
func (c *Client) Search(ctx context.Context, region domain.BBox, from, to string, maxCloud float64) ([]domain.Scene, error) {
	params := url.Values{
		"bbox": {fmt.Sprintf("%.6f,%.6f,%.6f,%.6f",
			region.West, region.South, region.East, region.North)},
		"from":      {from},
		"to":        {to},
		"max_cloud": {strconv.FormatFloat(maxCloud, 'f', -1, 64)},
	}

	start := time.Now()
	body, err := c.get(ctx, c.baseURL+"/v1/scenes?"+params.Encode())
	c.metrics.CatalogRequestDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("scene search: %w: %w", domain.ErrProviderUnavailable, err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("scene search: decode: %w: %w", domain.ErrProviderUnavailable, err)
	}

	scenes := make([]domain.Scene, 0, len(resp.Scenes))
	for _, s := range resp.Scenes {
		scene := s.toDomain()
		if scene.CloudCover > maxCloud {
			continue
		}
		if !scene.Footprint.Intersects(region) {
			c.logger.Debug("scene footprint outside region, dropped", "scene", scene.ID, "date", scene.Date)
			continue
		}
		scenes = append(scenes, scene)
	}
	return scenes, nil
}

// SamplePixels fetches per-pixel band reflectance for one field polygon in
// one scene at the given ground scale in meters. Failures here are ordinary
// errors: they fail the candidate date, not the run.
func (c *Client) SamplePixels(ctx context.Context, sceneID string, field domain.Field, scale int) ([]domain.BandSample, error) {
	reqBody, err := json.Marshal(samplesRequest{
		Polygon: field.Boundary,
		Scale:   scale,
	})
	if err != nil {
		return nil, fmt.Errorf("encode sample request: %w", err)
	}

	u := fmt.Sprintf("%s/v1/scenes/%s/samples", c.baseURL, url.PathEscape(sceneID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create sample request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.CatalogRequestDuration.WithLabelValues("samples").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("sample scene %s: %w", sceneID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sample scene %s: status %d: %s", sceneID, resp.StatusCode, body)
	}

	var sr samplesResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("sample scene %s: decode: %w", sceneID, err)
	}
	return sr.Samples, nil
}

func (c *Client) get(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog API error: status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

// Catalog API wire types.

type searchResponse struct {
	Scenes []sceneEntry `json:"scenes"`
}

type sceneEntry struct {
	ID         string     `json:"id"`
	Date       string     `json:"date"`
	CloudCover float64    `json:"cloud_cover"`
	BBox       [4]float64 `json:"bbox"` // [west, south, east, north]
}

func (s sceneEntry) toDomain() domain.Scene {
	return domain.Scene{
		ID:         s.ID,
		Date:       s.Date,
		CloudCover: s.CloudCover,
		Footprint: domain.BBox{
			West:  s.BBox[0],
			South: s.BBox[1],
			East:  s.BBox[2],
			North: s.BBox[3],
		},
	}
}

type samplesRequest struct {
	Polygon []domain.LatLon `json:"polygon"`
	Scale   int             `json:"scale"`
}

type samplesResponse struct {
	Samples []domain.BandSample `json:"samples"`
}
