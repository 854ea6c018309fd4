package leaflet_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/adapter/leaflet"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

func testLayers() []domain.DateLayer {
	field := func(pixels ...domain.PixelIndexes) []domain.FieldLayer {
		return []domain.FieldLayer{{
			FieldID:  "uu-001",
			Name:     "Shinjo North Block 3",
			Boundary: []domain.LatLon{{Lat: 38.770, Lon: 140.300}, {Lat: 38.774, Lon: 140.305}, {Lat: 38.770, Lon: 140.300}},
			Pixels:   pixels,
		}}
	}
	return []domain.DateLayer{
		{Date: "2026-01-11", Fields: field(
			domain.PixelIndexes{Lat: 38.771, Lon: 140.301, NDVI: ptr(0.65), NDWI: ptr(0.2), GNDVI: ptr(0.5)},
		)},
		{Date: "2025-12-06", Fields: field(
			domain.PixelIndexes{Lat: 38.771, Lon: 140.301, NDVI: ptr(0.3), NDWI: nil, GNDVI: ptr(0.25)},
			domain.PixelIndexes{Lat: 38.772, Lon: 140.302, NDVI: ptr(0.35), NDWI: ptr(0.05), GNDVI: ptr(0.3)},
		)},
	}
}

func publish(t *testing.T, layers []domain.DateLayer) string {
	t.Helper()
	dir := t.TempDir()
	c := leaflet.NewComposer(dir, leaflet.DefaultStyles(), 10, 50, slog.Default())
	require.NoError(t, c.Publish(layers))
	return dir
}

func readDoc(t *testing.T, dir, name string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	return string(raw)
}

func TestComposer_Publish_WritesAllThreeDocuments(t *testing.T) {
	dir := publish(t, testLayers())

	for _, name := range []string{"index.html", "ndwi.html", "gndvi.html"} {
		doc := readDoc(t, dir, name)
		assert.Contains(t, doc, "<!DOCTYPE html>")
		assert.Contains(t, doc, "leaflet")
	}

	assert.Contains(t, readDoc(t, dir, "index.html"), "NDVI Map")
	assert.Contains(t, readDoc(t, dir, "ndwi.html"), "NDWI Map")
	assert.Contains(t, readDoc(t, dir, "gndvi.html"), "GNDVI Map")
}

func TestComposer_Publish_Deterministic(t *testing.T) {
	layers := testLayers()
	first := publish(t, layers)

	// Reversed input order must not change the output bytes.
	reversed := []domain.DateLayer{layers[1], layers[0]}
	second := publish(t, reversed)

	for _, name := range []string{"index.html", "ndwi.html", "gndvi.html"} {
		assert.Equal(t, readDoc(t, first, name), readDoc(t, second, name), name)
	}
}

func TestComposer_Publish_NewestLayerVisible(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	// Exactly one layer is shown by default, and it is the newest date.
	assert.Equal(t, 1, strings.Count(doc, `"show":true`))
	newestIdx := strings.Index(doc, `"date":"2026-01-11"`)
	require.GreaterOrEqual(t, newestIdx, 0)
	assert.Contains(t, doc[newestIdx:newestIdx+60], `"show":true`)
}

func TestComposer_Publish_LayersSortedAscending(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	older := strings.Index(doc, `"date":"2025-12-06"`)
	newer := strings.Index(doc, `"date":"2026-01-11"`)
	require.GreaterOrEqual(t, older, 0)
	require.GreaterOrEqual(t, newer, 0)
	assert.Less(t, older, newer)
}

func TestComposer_Publish_NoDataPixel(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "ndwi.html")

	assert.Contains(t, doc, `"v":"N/A"`)
	assert.Contains(t, doc, `"c":"#808080"`)
}

func TestComposer_Publish_TitleBlock(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	assert.Contains(t, doc, "2025-12-06 to 2026-01-11")
	assert.Contains(t, doc, "(2 dates)")
	assert.Contains(t, doc, "1 parcels")
	assert.Contains(t, doc, "3 px")
	assert.Contains(t, doc, "latest: 2026-01-11")
	assert.Contains(t, doc, "50")
}

func TestComposer_Publish_Legend(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	for _, label := range []string{"low (&lt;0.2)", "medium (0.4-0.6)", "very high (&gt;0.8)"} {
		assert.Contains(t, doc, label)
	}
	assert.Contains(t, doc, "#1a9850")
}

func TestComposer_Publish_PixelRectangleHalfSize(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	// 10m scale: half a pixel is 5/111320 degrees.
	assert.Contains(t, doc, "var half = 0.0000449155")
}

func TestComposer_Publish_SelectButtons(t *testing.T) {
	doc := readDoc(t, publish(t, testLayers()), "index.html")

	assert.Contains(t, doc, "selectAllLayers")
	assert.Contains(t, doc, "deselectAllLayers")
}

func TestComposer_Publish_EmptyLayerSet(t *testing.T) {
	dir := publish(t, nil)

	doc := readDoc(t, dir, "index.html")
	assert.Contains(t, doc, "no observations")
	assert.Contains(t, doc, "(0 dates)")
}
