package domain

// IndexKind names one of the three fixed per-pixel formulas.
type IndexKind string

const (
	NDVI  IndexKind = "NDVI"
	NDWI  IndexKind = "NDWI"
	GNDVI IndexKind = "GNDVI"
)

// Kinds lists all index kinds in document order (NDVI map is the landing page).
func Kinds() []IndexKind {
	return []IndexKind{NDVI, NDWI, GNDVI}
}

// NormalizedDifference computes (a-b)/(a+b). A zero denominator returns nil
// (no-data) so division errors never reach rendering as NaN or Inf.
func NormalizedDifference(a, b float64) *float64 {
	sum := a + b
	if sum == 0 {
		return nil
	}
	v := (a - b) / sum
	return &v
}

// PixelIndexes holds the three index values for one pixel. A nil value is an
// explicit no-data marker, distinct from zero.
type PixelIndexes struct {
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	NDVI  *float64 `json:"ndvi"`
	NDWI  *float64 `json:"ndwi"`
	GNDVI *float64 `json:"gndvi"`
}

// Value returns the pixel's value for the given kind.
func (p PixelIndexes) Value(kind IndexKind) *float64 {
	switch kind {
	case NDVI:
		return p.NDVI
	case NDWI:
		return p.NDWI
	case GNDVI:
		return p.GNDVI
	default:
		return nil
	}
}

// ComputePixel derives all three indices from one band sample. Pure; safe to
// call concurrently.
func ComputePixel(s BandSample) PixelIndexes {
	return PixelIndexes{
		Lat:   s.Lat,
		Lon:   s.Lon,
		NDVI:  NormalizedDifference(s.NIR, s.Red),
		NDWI:  NormalizedDifference(s.NIR, s.SWIR),
		GNDVI: NormalizedDifference(s.NIR, s.Green),
	}
}

// ComputePixels maps ComputePixel over a sample slice, preserving order.
func ComputePixels(samples []BandSample) []PixelIndexes {
	out := make([]PixelIndexes, len(samples))
	for i, s := range samples {
		out[i] = ComputePixel(s)
	}
	return out
}
