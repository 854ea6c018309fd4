package domain

// FieldLayer is one field's computed pixels for a single acquisition date.
type FieldLayer struct {
	FieldID  string         `json:"polygon_uu"`
	Name     string         `json:"address"`
	Boundary []LatLon       `json:"boundary"`
	Pixels   []PixelIndexes `json:"pixels"`
}

// DateLayer is the persisted derived product of one observation date: every
// monitored field's per-pixel index values. Date layers are written once on
// successful processing and only read afterwards; the map documents are
// rebuilt from the full accumulated set on every run.
type DateLayer struct {
	Date   string       `json:"date"`
	Fields []FieldLayer `json:"fields"`
}

// PixelCount returns the total number of pixels across all fields.
func (l DateLayer) PixelCount() int {
	n := 0
	for _, f := range l.Fields {
		n += len(f.Pixels)
	}
	return n
}
