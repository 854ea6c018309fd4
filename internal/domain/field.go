package domain

// LatLon is a WGS-84 coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// BBox is an axis-aligned bounding box in WGS-84 degrees.
type BBox struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// Intersects reports whether two boxes overlap, edges included.
func (b BBox) Intersects(o BBox) bool {
	return b.West <= o.East && o.West <= b.East &&
		b.South <= o.North && o.South <= b.North
}

// Center returns the midpoint of the box.
func (b BBox) Center() LatLon {
	return LatLon{Lat: (b.South + b.North) / 2, Lon: (b.West + b.East) / 2}
}

// Field is one monitored wheat parcel. Immutable for the duration of a run.
type Field struct {
	ID       string   `json:"polygon_uu"`
	Name     string   `json:"address"`
	Boundary []LatLon `json:"boundary"` // closed outer ring
}

// Bounds returns the bounding box of the field boundary.
func (f Field) Bounds() BBox {
	if len(f.Boundary) == 0 {
		return BBox{}
	}
	b := BBox{
		West:  f.Boundary[0].Lon,
		South: f.Boundary[0].Lat,
		East:  f.Boundary[0].Lon,
		North: f.Boundary[0].Lat,
	}
	for _, p := range f.Boundary[1:] {
		if p.Lon < b.West {
			b.West = p.Lon
		}
		if p.Lon > b.East {
			b.East = p.Lon
		}
		if p.Lat < b.South {
			b.South = p.Lat
		}
		if p.Lat > b.North {
			b.North = p.Lat
		}
	}
	return b
}

// Region returns the union bounding box of all field boundaries. It is the
// area-of-interest sent to the imagery catalog.
func Region(fields []Field) BBox {
	var region BBox
	for i, f := range fields {
		fb := f.Bounds()
		if i == 0 {
			region = fb
			continue
		}
		if fb.West < region.West {
			region.West = fb.West
		}
		if fb.East > region.East {
			region.East = fb.East
		}
		if fb.South < region.South {
			region.South = fb.South
		}
		if fb.North > region.North {
			region.North = fb.North
		}
	}
	return region
}
