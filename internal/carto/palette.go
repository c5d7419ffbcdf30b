package carto

// paletteStop one anchor of a colour ramp
type paletteStop struct {
	value   float64
	r, g, b float64
}

// Palette a value-to-colour ramp with labelled colorbar breakpoints
type Palette struct {
	stops       []paletteStop
	Breakpoints []float64
}

// Palettes per index: diverging red-yellow-green for NDVI, sequential
// blues for NDMI, sequential yellow-green for SAVI/MSAVI.
var palettes = map[string]Palette{
	"ndvi": {
		stops: []paletteStop{
			{-1.0, 0.647, 0.000, 0.149}, // #a50026
			{0.0, 0.992, 0.682, 0.380},  // #fdae61
			{0.3, 0.996, 0.878, 0.545},  // #fee08b
			{0.5, 0.651, 0.851, 0.416},  // #a6d96a
			{0.7, 0.102, 0.596, 0.314},  // #1a9850
			{1.0, 0.000, 0.408, 0.216},  // #006837
		},
		Breakpoints: []float64{-0.2, 0.0, 0.2, 0.4, 0.6, 0.8},
	},
	"ndmi": {
		stops: []paletteStop{
			{-1.0, 0.969, 0.984, 1.000}, // #f7fbff
			{0.0, 0.776, 0.859, 0.937},  // #c6dbef
			{0.2, 0.420, 0.682, 0.839},  // #6baed6
			{0.4, 0.129, 0.443, 0.710},  // #2171b5
			{1.0, 0.031, 0.188, 0.420},  // #08306b
		},
		Breakpoints: []float64{-0.2, 0.0, 0.2, 0.4, 0.6},
	},
	"savi": {
		stops: []paletteStop{
			{-1.0, 1.000, 1.000, 0.898}, // #ffffe5
			{0.0, 0.851, 0.941, 0.639},  // #d9f0a3
			{0.3, 0.471, 0.776, 0.475},  // #78c679
			{0.6, 0.137, 0.518, 0.263},  // #238443
			{1.0, 0.000, 0.271, 0.161},  // #004529
		},
		Breakpoints: []float64{-0.2, 0.0, 0.2, 0.4, 0.6},
	},
}

// PaletteFor resolves the ramp for an index; msavi shares savi's ramp
func PaletteFor(index string) Palette {
	if p, ok := palettes[index]; ok {
		return p
	}
	return palettes["savi"]
}

// Color linearly interpolates the ramp at a value
func (p Palette) Color(v float64) (r, g, b float64) {
	stops := p.stops
	if v <= stops[0].value {
		return stops[0].r, stops[0].g, stops[0].b
	}
	last := stops[len(stops)-1]
	if v >= last.value {
		return last.r, last.g, last.b
	}
	for i := 1; i < len(stops); i++ {
		if v <= stops[i].value {
			a, b2 := stops[i-1], stops[i]
			t := (v - a.value) / (b2.value - a.value)
			return a.r + t*(b2.r-a.r), a.g + t*(b2.g-a.g), a.b + t*(b2.b-a.b)
		}
	}
	return last.r, last.g, last.b
}

// ScaleBarFor picks the adaptive scale-bar length for a map width:
// 100 m, 500 m, 1 km or 5 km, widest first to narrowest.
func ScaleBarFor(widthKm float64) (label string, lengthM float64) {
	switch {
	case widthKm < 1:
		return "100 m", 100
	case widthKm < 5:
		return "500 m", 500
	case widthKm < 10:
		return "1 km", 1000
	default:
		return "5 km", 5000
	}
}
