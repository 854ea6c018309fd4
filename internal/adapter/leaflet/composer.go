// Package leaflet renders the accumulated date layers into self-contained,
// browsable Leaflet HTML documents, one per index kind. Documents are
// rebuilt in full from the layer history on every publish; output is
// deterministic for identical input.
package leaflet

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/kitsukisaiseikyo-byte/mugimap-shinjo2026/internal/domain"
)

//go:embed map.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "map.html.tmpl"))

// metersPerDegree approximates one degree of latitude; pixel rectangles are
// drawn at the sampling scale around each sample center.
const metersPerDegree = 111320

// Composer writes the three map documents into the output directory.
type Composer struct {
	outputDir string
	styles    Styles
	scale     int // sampling scale in meters, sets rectangle size
	cloudMax  float64
	logger    *slog.Logger
}

// NewComposer creates a Composer. scale is the provider sampling resolution
// in meters; cloudMax only appears in the title block.
func NewComposer(outputDir string, styles Styles, scale int, cloudMax float64, logger *slog.Logger) *Composer {
	return &Composer{
		outputDir: outputDir,
		styles:    styles,
		scale:     scale,
		cloudMax:  cloudMax,
		logger:    logger,
	}
}

// fileNames maps index kinds to output documents; the NDVI map is the
// landing page.
var fileNames = map[domain.IndexKind]string{
	domain.NDVI:  "index.html",
	domain.NDWI:  "ndwi.html",
	domain.GNDVI: "gndvi.html",
}

// Publish regenerates all three documents from the given layers. Layers are
// ordered by date ascending regardless of input order; the newest date is
// the only layer visible by default. Any write failure is fatal to the run:
// stale published maps are worse than a visible failure.
func (c *Composer) Publish(layerList []domain.DateLayer) error {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	sorted := make([]domain.DateLayer, len(layerList))
	copy(sorted, layerList)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date < sorted[j].Date })

	for _, kind := range domain.Kinds() {
		doc, err := c.compose(kind, sorted)
		if err != nil {
			return fmt.Errorf("compose %s: %w", kind, err)
		}
		path := filepath.Join(c.outputDir, fileNames[kind])
		if err := os.WriteFile(path, doc, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", fileNames[kind], err)
		}
		c.logger.Info("map document written", "kind", string(kind), "path", path, "layers", len(sorted))
	}
	return nil
}

func (c *Composer) compose(kind domain.IndexKind, sorted []domain.DateLayer) ([]byte, error) {
	style := c.styles[kind]

	model, err := c.buildPage(kind, style, sorted)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, model); err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}
	return buf.Bytes(), nil
}

// page is the template model for one document.
type page struct {
	Kind         string
	Title        string
	LegendTitle  string
	GradientFrom template.CSS
	GradientTo   template.CSS
	Legend       []legendRow

	DateSpan   string
	DateCount  int
	FieldCount int
	PixelCount int
	NewestDate string
	CloudMax   float64

	CenterLat float64
	CenterLon float64
	Zoom      int
	HalfSize  float64

	LayersJSON template.JS
}

type legendRow struct {
	Color template.CSS
	Label string
}

// JSON shape consumed by the embedded layer-builder script. Field and pixel
// order follow the input, so identical layers produce identical documents.

type renderLayer struct {
	Date   string        `json:"date"`
	Show   bool          `json:"show"`
	Fields []renderField `json:"fields"`
}

type renderField struct {
	Name     string        `json:"name"`
	Boundary [][2]float64  `json:"boundary"` // [lat, lon] for L.polygon
	Pixels   []renderPixel `json:"pixels"`
}

type renderPixel struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	C   string  `json:"c"` // ramp color
	V   string  `json:"v"` // display value, "N/A" for no-data
}

func (c *Composer) buildPage(kind domain.IndexKind, style Style, sorted []domain.DateLayer) (page, error) {
	render := make([]renderLayer, len(sorted))
	fieldIDs := make(map[string]bool)
	pixels := 0
	var boundaryPoints []domain.LatLon

	for i, layer := range sorted {
		rl := renderLayer{
			Date:   layer.Date,
			Show:   i == len(sorted)-1, // newest layer visible by default
			Fields: make([]renderField, 0, len(layer.Fields)),
		}
		for _, f := range layer.Fields {
			fieldIDs[f.FieldID] = true
			rf := renderField{
				Name:     f.Name,
				Boundary: make([][2]float64, len(f.Boundary)),
				Pixels:   make([]renderPixel, len(f.Pixels)),
			}
			for j, p := range f.Boundary {
				rf.Boundary[j] = [2]float64{p.Lat, p.Lon}
			}
			for j, p := range f.Pixels {
				v := p.Value(kind)
				rf.Pixels[j] = renderPixel{
					Lat: p.Lat,
					Lon: p.Lon,
					C:   style.ColorFor(v),
					V:   formatValue(v),
				}
				pixels++
			}
			rl.Fields = append(rl.Fields, rf)
			boundaryPoints = append(boundaryPoints, f.Boundary...)
		}
		render[i] = rl
	}
	region := domain.Region([]domain.Field{{Boundary: boundaryPoints}})

	layersJSON, err := encodeLayers(render)
	if err != nil {
		return page{}, err
	}

	center := region.Center()
	model := page{
		Kind:         string(kind),
		Title:        style.Title,
		LegendTitle:  style.LegendTitle,
		GradientFrom: template.CSS(style.GradientFrom),
		GradientTo:   template.CSS(style.GradientTo),

		DateSpan:   dateSpan(sorted),
		DateCount:  len(sorted),
		FieldCount: len(fieldIDs),
		PixelCount: pixels,
		NewestDate: newestDate(sorted),
		CloudMax:   c.cloudMax,

		CenterLat: center.Lat,
		CenterLon: center.Lon,
		Zoom:      15,
		HalfSize:  float64(c.scale) / 2 / metersPerDegree,

		LayersJSON: layersJSON,
	}
	for _, stop := range style.Stops {
		model.Legend = append(model.Legend, legendRow{Color: template.CSS(stop.Color), Label: stop.Label})
	}
	return model, nil
}

// encodeLayers marks the layer JSON as safe for direct embedding in the
// script block. Values are produced by encoding/json, never raw input.
func encodeLayers(render []renderLayer) (template.JS, error) {
	data, err := json.Marshal(render)
	if err != nil {
		return "", fmt.Errorf("encode layers: %w", err)
	}
	return template.JS(data), nil
}

func formatValue(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.3f", *v)
}

func dateSpan(sorted []domain.DateLayer) string {
	if len(sorted) == 0 {
		return "no observations"
	}
	first, last := sorted[0].Date, sorted[len(sorted)-1].Date
	return first + " to " + last
}

func newestDate(sorted []domain.DateLayer) string {
	if len(sorted) == 0 {
		return time.Time{}.Format("2006-01-02")
	}
	return sorted[len(sorted)-1].Date
}
