// Package domain models wheat-field vegetation observations derived from
// Sentinel-2 surface reflectance scenes.
//
// # Data Source
//
// Scenes come from an imagery catalog service fronting the Sentinel-2
// archive. A scene is one satellite pass over the monitored region on a
// given acquisition date, annotated with a provider-reported cloud-cover
// percentage. Band values are surface reflectance floats, nominally in
// [0, 1] after scaling, sampled at a fixed ground resolution (10 m).
//
// # Spectral Indices
//
// Three normalized-difference indices are computed per pixel:
//
//	NDVI  = (NIR − Red)   / (NIR + Red)     vegetation vigor
//	NDWI  = (NIR − SWIR)  / (NIR + SWIR)    canopy water content
//	GNDVI = (NIR − Green) / (NIR + Green)   chlorophyll
//
// On Sentinel-2 the bands map to B3 (Green), B4 (Red), B8 (NIR) and
// B11 (SWIR). A zero denominator yields an explicit no-data pixel (nil),
// never NaN or Inf. Sensor noise can push valid results slightly outside
// [-1, 1]; such values are stored as-is and clamped only at render time.
//
// # Acquisition Dates
//
// The pipeline is keyed by acquisition date (UTC, "2006-01-02"). When the
// catalog returns several scenes for one date, the scene with the lowest
// cloud cover represents that date. A date processed successfully once is
// never reprocessed; failed dates stay outside the processed set and are
// retried on the next run.
package domain
