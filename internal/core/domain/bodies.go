package domain

import "strconv"

// Body identifies a celestial body by its Swiss Ephemeris planet number.
// The values are part of the ephemeris contract and must not be renumbered.
type Body int

const (
	Sun     Body = 0
	Moon    Body = 1
	Mercury Body = 2
	Venus   Body = 3
	Mars    Body = 4
	Jupiter Body = 5
	Saturn  Body = 6
	Uranus  Body = 7
	Neptune Body = 8
	Pluto   Body = 9
	// MeanNode is the mean ascending lunar node.
	MeanNode Body = 10
	// MeanApogee is the mean lunar apogee, commonly called Lilith.
	MeanApogee Body = 12
	Chiron     Body = 15
)

// ChartBodies is the fixed, ordered list of bodies placed in every chart.
// Placement output order follows this slice exactly.
var ChartBodies = []Body{
	Sun, Moon, Mercury, Venus, Mars,
	Jupiter, Saturn, Uranus, Neptune, Pluto,
	Chiron, MeanNode, MeanApogee,
}

var bodyNames = map[Body]string{
	Sun:        "Sun",
	Moon:       "Moon",
	Mercury:    "Mercury",
	Venus:      "Venus",
	Mars:       "Mars",
	Jupiter:    "Jupiter",
	Saturn:     "Saturn",
	Uranus:     "Uranus",
	Neptune:    "Neptune",
	Pluto:      "Pluto",
	MeanNode:   "mean Node",
	MeanApogee: "mean Apogee",
	Chiron:     "Chiron",
}

// String returns the conventional display name for the body. The ephemeris
// provider's BodyName is authoritative for chart keys; this is the fallback
// used in error messages when the provider itself is the thing that failed.
func (b Body) String() string {
	if n, ok := bodyNames[b]; ok {
		return n
	}
	return "body #" + strconv.Itoa(int(b))
}

// Chart angle names, in output order after the bodies.
const (
	AngleAscendant  = "Ascendant"
	AngleMidheaven  = "Midheaven"
	AngleDescendant = "Descendant"
	AngleIC         = "IC"
)

// ChartAngles is the fixed, ordered list of angle keys appended to every chart.
var ChartAngles = []string{AngleAscendant, AngleMidheaven, AngleDescendant, AngleIC}

// HouseSystemPlacidus is the house-system code passed to the ephemeris.
const HouseSystemPlacidus = 'P'
