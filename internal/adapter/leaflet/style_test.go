package leaflet_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/leaflet"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

func ptr(v float64) *float64 { return &v }

func TestStyle_ColorFor_NDVIBands(t *testing.T) {
	style := leaflet.DefaultStyles()[domain.NDVI]

	tests := []struct {
		name  string
		value *float64
		want  string
	}{
		{name: "no data", value: nil, want: "#808080"},
		{name: "low", value: ptr(0.1), want: "#d73027"},
		{name: "moderately low", value: ptr(0.3), want: "#fc8d59"},
		{name: "medium", value: ptr(0.5), want: "#fee08b"},
		{name: "high", value: ptr(0.7), want: "#91cf60"},
		{name: "very high", value: ptr(0.9), want: "#1a9850"},
		{name: "boundary belongs to next band", value: ptr(0.2), want: "#fc8d59"},
		{name: "below range clamps to lowest band", value: ptr(-2), want: "#d73027"},
		{name: "above range clamps to highest band", value: ptr(2), want: "#1a9850"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, style.ColorFor(tt.value))
		})
	}
}

func TestStyle_ColorFor_NDWINegativeBands(t *testing.T) {
	style := leaflet.DefaultStyles()[domain.NDWI]

	assert.Equal(t, "#8B4513", style.ColorFor(ptr(-0.5)))
	assert.Equal(t, "#F4A460", style.ColorFor(ptr(0.0)))
	assert.Equal(t, "#4169E1", style.ColorFor(ptr(0.4)))
}

func TestDefaultStyles_CoverAllKinds(t *testing.T) {
	styles := leaflet.DefaultStyles()
	for _, kind := range domain.Kinds() {
		s, ok := styles[kind]
		require.True(t, ok, "missing style for %s", kind)
		assert.NotEmpty(t, s.Title)
		assert.NotEmpty(t, s.Stops)
		assert.Nil(t, s.Stops[len(s.Stops)-1].Upto, "%s last stop must be the catch-all", kind)
	}
}

func TestLoadStyles_EmptyPathReturnsDefaults(t *testing.T) {
	styles, err := leaflet.LoadStyles("")
	require.NoError(t, err)
	assert.Equal(t, leaflet.DefaultStyles(), styles)
}

func TestLoadStyles_MergesOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	body := `NDVI:
  title: "Winter wheat NDVI"
  stops:
    - upto: 0.5
      color: "#ff0000"
      label: "below median"
    - color: "#00ff00"
      label: "above median"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	styles, err := leaflet.LoadStyles(path)
	require.NoError(t, err)

	ndvi := styles[domain.NDVI]
	assert.Equal(t, "Winter wheat NDVI", ndvi.Title)
	require.Len(t, ndvi.Stops, 2)
	assert.Equal(t, "#ff0000", ndvi.ColorFor(ptr(0.3)))
	assert.Equal(t, "#00ff00", ndvi.ColorFor(ptr(0.7)))
	// Untouched attributes keep their defaults.
	assert.Equal(t, "NDVI (vegetation)", ndvi.LegendTitle)
	assert.Equal(t, leaflet.DefaultStyles()[domain.NDWI], styles[domain.NDWI])
}

func TestLoadStyles_UnknownKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "style.yaml")
	require.NoError(t, os.WriteFile(path, []byte("EVI:\n  title: nope\n"), 0o644))

	_, err := leaflet.LoadStyles(path)
	assert.Error(t, err)
}

func TestLoadStyles_MissingFile(t *testing.T) {
	_, err := leaflet.LoadStyles(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
