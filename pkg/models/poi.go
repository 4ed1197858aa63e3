package models

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CandidatePOI is a point of interest under consideration for ranking.
// Category is canonical (see internal/taxonomy); ProviderCategory keeps the
// raw string from the upstream map provider. DistanceMeters is relative to
// the query origin and filled in by the POI provider.
type CandidatePOI struct {
	ID               string   `json:"id"`
	Name             string   `json:"name,omitempty"`
	Category         string   `json:"category"`
	ProviderCategory string   `json:"provider_category,omitempty"`
	Location         GeoPoint `json:"location"`
	Rating           float64  `json:"rating"`
	ReviewCount      int      `json:"review_count"`
	PriceLevel       int      `json:"price_level"` // 1 (cheap) .. 4 (expensive)
	PopularityScore  float64  `json:"popularity_score"`
	DistanceMeters   float64  `json:"distance_meters"`
	OpenNow          *bool    `json:"open_now,omitempty"`
}
