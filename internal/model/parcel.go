package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb/geojson"
)

// Parcel registered production unit
type Parcel struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Geometry        *geojson.Geometry `json:"geometry"` // Polygon or MultiPolygon, EPSG:4326
	AreaHa          float64           `json:"area_ha"`
	CropType        string            `json:"crop_type"`
	ExternalFieldID string            `json:"external_field_id,omitempty"`
}

// Acquisition one satellite observation of a parcel
type Acquisition struct {
	ViewID           string  `json:"view_id"`
	ParcelID         string  `json:"parcel_id"`
	Date             string  `json:"date"` // YYYY-MM-DD
	Sensor           string  `json:"sensor"`
	CloudFractionAOI float64 `json:"cloud_fraction_aoi"`
}

// Period returns the YYYY-MM month the acquisition falls in
func (a Acquisition) Period() string {
	if len(a.Date) >= 7 {
		return a.Date[:7]
	}
	return a.Date
}

// Window inclusive month range of a diagnosis
type Window struct {
	From string `json:"from"` // YYYY-MM
	To   string `json:"to"`   // YYYY-MM
}

// ParseWindow parses "YYYY-MM:YYYY-MM"
func ParseWindow(s string) (Window, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Window{}, fmt.Errorf("window must be YYYY-MM:YYYY-MM, got %q", s)
	}
	w := Window{From: parts[0], To: parts[1]}
	for _, p := range []string{w.From, w.To} {
		if _, err := time.Parse("2006-01", p); err != nil {
			return Window{}, fmt.Errorf("invalid month %q: %w", p, err)
		}
	}
	if w.To < w.From {
		return Window{}, fmt.Errorf("window end %s before start %s", w.To, w.From)
	}
	return w, nil
}

// String renders the window back to YYYY-MM:YYYY-MM
func (w Window) String() string {
	return w.From + ":" + w.To
}

// Months enumerates every YYYY-MM period in the window, in order
func (w Window) Months() []string {
	start, err := time.Parse("2006-01", w.From)
	if err != nil {
		return nil
	}
	end, err := time.Parse("2006-01", w.To)
	if err != nil {
		return nil
	}
	var months []string
	for t := start; !t.After(end); t = t.AddDate(0, 1, 0) {
		months = append(months, t.Format("2006-01"))
	}
	return months
}

// Previous the same-length window ending right before this one starts
func (w Window) Previous() Window {
	start, err := time.Parse("2006-01", w.From)
	if err != nil {
		return Window{}
	}
	months := len(w.Months())
	return Window{
		From: start.AddDate(0, -months, 0).Format("2006-01"),
		To:   start.AddDate(0, -1, 0).Format("2006-01"),
	}
}

// Contains reports whether a YYYY-MM period lies in the window
func (w Window) Contains(period string) bool {
	return period >= w.From && period <= w.To
}
