package registry_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/registry"
)

const testGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"polygon_uu": "uu-001"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[140.300, 38.770], [140.305, 38.770], [140.305, 38.774], [140.300, 38.770]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"polygon_uu": "uu-002"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[140.310, 38.780], [140.315, 38.780], [140.315, 38.784], [140.310, 38.780]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"name": "no id"},
      "geometry": {"type": "Polygon", "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 0]]]}
    },
    {
      "type": "Feature",
      "properties": {"polygon_uu": "uu-point"},
      "geometry": {"type": "Point", "coordinates": [140.3, 38.77]}
    }
  ]
}`

func writeInputs(t *testing.T, csvBody, geojsonBody string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	fieldsPath := filepath.Join(dir, "fields.csv")
	polygonsPath := filepath.Join(dir, "polygons.geojson")
	require.NoError(t, os.WriteFile(fieldsPath, []byte(csvBody), 0o644))
	require.NoError(t, os.WriteFile(polygonsPath, []byte(geojsonBody), 0o644))
	return fieldsPath, polygonsPath
}

func TestLoad(t *testing.T) {
	csvBody := "polygon_uu,address\nuu-001,Shinjo North Block 3\nuu-002,Shinjo East Block 1\n"
	fieldsPath, polygonsPath := writeInputs(t, csvBody, testGeoJSON)

	fields, err := registry.Load(fieldsPath, polygonsPath, slog.Default())
	require.NoError(t, err)

	require.Len(t, fields, 2)
	assert.Equal(t, "uu-001", fields[0].ID)
	assert.Equal(t, "Shinjo North Block 3", fields[0].Name)
	assert.Equal(t, domain.LatLon{Lat: 38.770, Lon: 140.300}, fields[0].Boundary[0])
	assert.Equal(t, "uu-002", fields[1].ID)
	assert.Len(t, fields[1].Boundary, 4)
}

func TestLoad_TargetWithoutPolygonSkipped(t *testing.T) {
	csvBody := "polygon_uu,address\nuu-001,Shinjo North Block 3\nuu-999,Retired parcel\n"
	fieldsPath, polygonsPath := writeInputs(t, csvBody, testGeoJSON)

	fields, err := registry.Load(fieldsPath, polygonsPath, slog.Default())
	require.NoError(t, err)

	require.Len(t, fields, 1)
	assert.Equal(t, "uu-001", fields[0].ID)
}

func TestLoad_NoUsableFields(t *testing.T) {
	csvBody := "polygon_uu,address\nuu-999,Retired parcel\n"
	fieldsPath, polygonsPath := writeInputs(t, csvBody, testGeoJSON)

	_, err := registry.Load(fieldsPath, polygonsPath, slog.Default())
	assert.Error(t, err)
}

func TestLoad_MissingFiles(t *testing.T) {
	fieldsPath, polygonsPath := writeInputs(t, "polygon_uu,address\n", testGeoJSON)

	_, err := registry.Load(filepath.Join(t.TempDir(), "absent.csv"), polygonsPath, slog.Default())
	assert.Error(t, err)

	_, err = registry.Load(fieldsPath, filepath.Join(t.TempDir(), "absent.geojson"), slog.Default())
	assert.Error(t, err)
}

func TestLoad_BadGeoJSON(t *testing.T) {
	fieldsPath, polygonsPath := writeInputs(t, "polygon_uu,address\nuu-001,x\n", "{not json")

	_, err := registry.Load(fieldsPath, polygonsPath, slog.Default())
	assert.Error(t, err)
}
