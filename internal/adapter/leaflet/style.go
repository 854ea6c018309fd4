package leaflet

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

// Stop is one color band in an index ramp. Values below Upto take Color;
// the final stop leaves Upto nil as the catch-all, so out-of-range values
// clamp to the edge bands at render time.
type Stop struct {
	Upto  *float64 `yaml:"upto"`
	Color string   `yaml:"color"`
	Label string   `yaml:"label"`
}

// Style describes how one index kind renders: title block, gradient, ramp.
type Style struct {
	Title        string `yaml:"title"`
	LegendTitle  string `yaml:"legendTitle"`
	GradientFrom string `yaml:"gradientFrom"`
	GradientTo   string `yaml:"gradientTo"`
	NoDataColor  string `yaml:"noDataColor"`
	Stops        []Stop `yaml:"stops"`
}

// ColorFor maps a pixel value to its ramp color. Nil is the explicit
// no-data marker.
func (s Style) ColorFor(v *float64) string {
	if v == nil {
		return s.NoDataColor
	}
	for _, stop := range s.Stops {
		if stop.Upto == nil || *v < *stop.Upto {
			return stop.Color
		}
	}
	return s.NoDataColor
}

// Styles maps each index kind to its render style.
type Styles map[domain.IndexKind]Style

func ptr(v float64) *float64 { return &v }

// DefaultStyles returns the operationally tuned ramps for the three maps.
func DefaultStyles() Styles {
	return Styles{
		domain.NDVI: {
			Title:        "NDVI Map (vegetation vigor)",
			LegendTitle:  "NDVI (vegetation)",
			GradientFrom: "#11998e",
			GradientTo:   "#38ef7d",
			NoDataColor:  "#808080",
			Stops: []Stop{
				{Upto: ptr(0.2), Color: "#d73027", Label: "low (<0.2)"},
				{Upto: ptr(0.4), Color: "#fc8d59", Label: "moderately low (0.2-0.4)"},
				{Upto: ptr(0.6), Color: "#fee08b", Label: "medium (0.4-0.6)"},
				{Upto: ptr(0.8), Color: "#91cf60", Label: "high (0.6-0.8)"},
				{Color: "#1a9850", Label: "very high (>0.8)"},
			},
		},
		domain.NDWI: {
			Title:        "NDWI Map (water status)",
			LegendTitle:  "NDWI (moisture)",
			GradientFrom: "#4169E1",
			GradientTo:   "#87CEEB",
			NoDataColor:  "#808080",
			Stops: []Stop{
				{Upto: ptr(-0.3), Color: "#8B4513", Label: "dry (<-0.3)"},
				{Upto: ptr(-0.1), Color: "#D2691E", Label: "somewhat dry (-0.3 to -0.1)"},
				{Upto: ptr(0.1), Color: "#F4A460", Label: "adequate (-0.1 to 0.1)"},
				{Upto: ptr(0.3), Color: "#87CEEB", Label: "moist (0.1 to 0.3)"},
				{Color: "#4169E1", Label: "wet (>0.3)"},
			},
		},
		domain.GNDVI: {
			Title:        "GNDVI Map (chlorophyll)",
			LegendTitle:  "GNDVI (chlorophyll)",
			GradientFrom: "#228B22",
			GradientTo:   "#32CD32",
			NoDataColor:  "#808080",
			Stops: []Stop{
				{Upto: ptr(0.2), Color: "#FFFF00", Label: "low (<0.2)"},
				{Upto: ptr(0.4), Color: "#9ACD32", Label: "moderately low (0.2-0.4)"},
				{Upto: ptr(0.6), Color: "#32CD32", Label: "medium (0.4-0.6)"},
				{Upto: ptr(0.8), Color: "#228B22", Label: "high (0.6-0.8)"},
				{Color: "#006400", Label: "very high (>0.8)"},
			},
		},
	}
}

// LoadStyles reads an optional YAML style file and merges it over the
// defaults. The cloud threshold was tuned between seasons; the visual
// thresholds get the same run-time treatment. An empty path returns the
// defaults unchanged.
func LoadStyles(path string) (Styles, error) {
	styles := DefaultStyles()
	if path == "" {
		return styles, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read style file: %w", err)
	}

	var overrides map[string]Style
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("parse style file: %w", err)
	}

	for name, o := range overrides {
		kind := domain.IndexKind(name)
		base, ok := styles[kind]
		if !ok {
			return nil, fmt.Errorf("style file: unknown index kind %q", name)
		}
		styles[kind] = mergeStyle(base, o)
	}
	return styles, nil
}

func mergeStyle(base, o Style) Style {
	if o.Title != "" {
		base.Title = o.Title
	}
	if o.LegendTitle != "" {
		base.LegendTitle = o.LegendTitle
	}
	if o.GradientFrom != "" {
		base.GradientFrom = o.GradientFrom
	}
	if o.GradientTo != "" {
		base.GradientTo = o.GradientTo
	}
	if o.NoDataColor != "" {
		base.NoDataColor = o.NoDataColor
	}
	if len(o.Stops) > 0 {
		base.Stops = o.Stops
	}
	return base
}
