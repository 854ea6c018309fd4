// Package registry loads the static list of monitored field parcels.
//
// Two inputs define the field set: a CSV target list (polygon_uu, address)
// naming which parcels to monitor, and a GeoJSON FeatureCollection holding
// the parcel polygons keyed by the same polygon_uu property. Parcels in the
// polygon file but not in the target list are ignored.
package registry

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

// Load reads the target list and polygon collection and returns the fields
// to monitor, in target-list order.
func Load(fieldsPath, polygonsPath string, logger *slog.Logger) ([]domain.Field, error) {
	targets, err := loadTargets(fieldsPath)
	if err != nil {
		return nil, fmt.Errorf("load target list: %w", err)
	}

	polygons, err := loadPolygons(polygonsPath)
	if err != nil {
		return nil, fmt.Errorf("load polygons: %w", err)
	}

	fields := make([]domain.Field, 0, len(targets))
	for _, t := range targets {
		boundary, ok := polygons[t.id]
		if !ok {
			logger.Warn("target parcel has no polygon, skipping", "polygon_uu", t.id, "address", t.address)
			continue
		}
		fields = append(fields, domain.Field{
			ID:       t.id,
			Name:     t.address,
			Boundary: boundary,
		})
	}

	if len(fields) == 0 {
		return nil, fmt.Errorf("no target parcels with polygons in %s", fieldsPath)
	}
	return fields, nil
}

type target struct {
	id      string
	address string
}

// loadTargets parses the CSV target list. The first row is a header; column
// order is (polygon_uu, address).
func loadTargets(path string) ([]target, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var targets []target
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 1 || rec[0] == "" {
			continue
		}
		t := target{id: rec[0]}
		if len(rec) > 1 {
			t.address = rec[1]
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// GeoJSON subset: only Polygon features with a polygon_uu property matter.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Geometry   geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"` // shape depends on Type
}

func loadPolygons(path string) (map[string][]domain.LatLon, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var fc featureCollection
	if err := json.Unmarshal(raw, &fc); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}

	polygons := make(map[string][]domain.LatLon, len(fc.Features))
	for _, ft := range fc.Features {
		if ft.Geometry.Type != "Polygon" {
			continue
		}
		id, _ := ft.Properties["polygon_uu"].(string)
		if id == "" {
			continue
		}
		var rings [][][2]float64 // rings of [lon, lat]
		if err := json.Unmarshal(ft.Geometry.Coordinates, &rings); err != nil {
			return nil, fmt.Errorf("parse polygon %s: %w", id, err)
		}
		if len(rings) == 0 {
			continue
		}
		ring := rings[0] // outer ring; holes are not monitored
		boundary := make([]domain.LatLon, len(ring))
		for i, c := range ring {
			boundary[i] = domain.LatLon{Lon: c[0], Lat: c[1]}
		}
		polygons[id] = boundary
	}
	return polygons, nil
}
