package domain

// Scene is one catalog entry: a satellite pass over the region on a given
// acquisition date. Scenes are transient; only derived index layers persist.
type Scene struct {
	ID         string  `json:"id"`
	Date       string  `json:"date"` // acquisition date, UTC "2006-01-02"
	CloudCover float64 `json:"cloud_cover"`
	Footprint  BBox    `json:"footprint"`
}

// BandSample is one pixel's surface reflectance in the four bands the
// indices need (Sentinel-2 B3/B4/B8/B11).
type BandSample struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Green float64 `json:"green"`
	Red   float64 `json:"red"`
	NIR   float64 `json:"nir"`
	SWIR  float64 `json:"swir"`
}

// BestScenePerDate collapses a scene list to one scene per acquisition
// date, keeping the lowest cloud cover for each date.
func BestScenePerDate(scenes []Scene) map[string]Scene {
	best := make(map[string]Scene, len(scenes))
	for _, s := range scenes {
		cur, ok := best[s.Date]
		if !ok || s.CloudCover < cur.CloudCover {
			best[s.Date] = s
		}
	}
	return best
}
