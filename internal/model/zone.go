package model

import "github.com/paulmach/orb/geojson"

// Severity levels
const (
	SeverityCritical = "critical"
	SeverityModerate = "moderate"
	SeverityMild     = "mild"
)

// CriticalZone one ranked intervention zone inside the parcel
type CriticalZone struct {
	Priority        int               `json:"priority"` // dense rank, 1 = most urgent
	Severity        string            `json:"severity"`
	Label           string            `json:"label"` // commercial label, report language
	Cause           string            `json:"cause"` // dominant cause kind
	AreaHa          float64           `json:"area_ha"`
	MedianNDVI      float64           `json:"median_ndvi"`
	CentroidLon     float64           `json:"centroid_lon"`
	CentroidLat     float64           `json:"centroid_lat"`
	CentroidCol     int               `json:"centroid_col"`
	CentroidRow     int               `json:"centroid_row"`
	BBoxPixel       [4]int            `json:"bbox_pixel"` // minCol,minRow,maxCol,maxRow
	Polygon         *geojson.Geometry `json:"polygon"`
	Recommendations []string          `json:"recommendations"`
}
