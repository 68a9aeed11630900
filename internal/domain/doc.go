// Package domain models earthquake events from the USGS FDSN event service
// and the rules that decide which of them are announced.
//
// # Data Source
//
// Events come from https://earthquake.usgs.gov/fdsnws/event/1/query as a
// GeoJSON FeatureCollection, newest first. Each feature carries:
//
//	id                      e.g. "us7000abcd", unique per source
//	properties.place        free text, e.g. "10 km NE of Chiang Mai, Thailand"
//	properties.mag          decimal magnitude, may be null
//	properties.time         epoch milliseconds (UTC), may be null
//	geometry.coordinates    [longitude, latitude, depth]
//
// # Country Resolution
//
// The feed names the country after the last comma of the place text. When
// that segment is absent or not a target ("Banda Sea", "Mindanao region"),
// the coordinates are reverse geocoded. Only ASEAN members and their common
// aliases are targets; see [DefaultTargetCountries].
//
// # Batching
//
// All qualifying events of one polling cycle are announced in a single
// message. The first qualifying event anchors a 20 minute window and at most
// ten events fit in one carousel; see [BuildBatch]. Events outside the batch
// are left unmarked so a later cycle can pick them up.
package domain
