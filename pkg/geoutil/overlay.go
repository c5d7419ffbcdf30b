package geoutil

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/peterstace/simplefeatures/geom"
)

// toSimple converts an orb geometry into a simplefeatures geometry
// via its GeoJSON form.
func toSimple(g orb.Geometry) (geom.Geometry, error) {
	data, err := json.Marshal(geojson.NewGeometry(g))
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("encode geometry: %w", err)
	}
	sg, err := geom.UnmarshalGeoJSON(data)
	if err != nil {
		return geom.Geometry{}, fmt.Errorf("decode geometry: %w", err)
	}
	return sg, nil
}

// fromSimple converts a simplefeatures geometry back into orb
func fromSimple(sg geom.Geometry) (orb.Geometry, error) {
	data, err := json.Marshal(sg)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	gg, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, fmt.Errorf("decode geometry: %w", err)
	}
	return gg.Geometry(), nil
}

// Intersect exact polygon intersection. Returns nil when the
// geometries do not overlap.
func Intersect(a, b orb.Geometry) (orb.Geometry, error) {
	sa, err := toSimple(a)
	if err != nil {
		return nil, err
	}
	sb, err := toSimple(b)
	if err != nil {
		return nil, err
	}
	out, err := geom.Intersection(sa, sb)
	if err != nil {
		return nil, fmt.Errorf("intersection: %w", err)
	}
	if out.IsEmpty() {
		return nil, nil
	}
	return fromSimple(out)
}
