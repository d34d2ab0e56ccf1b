package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// ChartRequest is the raw inbound payload before validation. Latitude and
// longitude are pointers so a missing field is distinguishable from zero.
type ChartRequest struct {
	Name        *string  `json:"name,omitempty"`
	DatetimeUTC string   `json:"datetime_utc"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
}

// ChartInput is the canonical, validated form of a ChartRequest.
// Once constructed it is guaranteed valid; nothing downstream re-validates.
type ChartInput struct {
	Name      *string
	Time      time.Time // naive UTC wall clock
	Latitude  float64
	Longitude float64
}

// FractionalHour returns hour + minute/60 + second/3600 for the ephemeris
// calendar routine. Sub-second precision is truncated, never rounded.
func (in ChartInput) FractionalHour() float64 {
	h, m, s := in.Time.Clock()
	return float64(h) + float64(m)/60.0 + float64(s)/3600.0
}

// BodyPlacement is the ecliptic position of one body or angle.
type BodyPlacement struct {
	Longitude  float64 `json:"longitude"`
	Latitude   float64 `json:"latitude"`
	DistanceAU float64 `json:"distance_au"`
	Speed      float64 `json:"speed"`
	Retrograde bool    `json:"retrograde"`
}

// NamedPlacement pairs a placement with its chart key.
type NamedPlacement struct {
	Name      string
	Placement BodyPlacement
}

// PlacementList is an insertion-ordered placement mapping. It serializes as a
// JSON object whose keys keep list order, which a plain Go map cannot do.
type PlacementList []NamedPlacement

// Get returns the placement with the given key.
func (pl PlacementList) Get(name string) (BodyPlacement, bool) {
	for _, p := range pl {
		if p.Name == name {
			return p.Placement, true
		}
	}
	return BodyPlacement{}, false
}

// Keys returns the chart keys in order.
func (pl PlacementList) Keys() []string {
	keys := make([]string, len(pl))
	for i, p := range pl {
		keys[i] = p.Name
	}
	return keys
}

// MarshalJSON emits an ordered JSON object.
func (pl PlacementList) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pl {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(p.Placement)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object back preserving key order.
func (pl *PlacementList) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("placements: expected object, got %v", tok)
	}
	out := (*pl)[:0]
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("placements: non-string key %v", keyTok)
		}
		var p BodyPlacement
		if err := dec.Decode(&p); err != nil {
			return err
		}
		out = append(out, NamedPlacement{Name: key, Placement: p})
	}
	*pl = out
	return nil
}

// ChartResult is the assembled chart for one validated input.
type ChartResult struct {
	Name        *string       `json:"name,omitempty"`
	DatetimeUTC string        `json:"datetime_utc"`
	Latitude    float64       `json:"latitude"`
	Longitude   float64       `json:"longitude"`
	JulianDay   float64       `json:"julian_day"`
	Placements  PlacementList `json:"placements"`
}

// LunarPhases holds the next New Moon and Full Moon after a given instant.
type LunarPhases struct {
	After       string  `json:"after"`
	NewMoonUTC  string  `json:"new_moon_utc"`
	NewMoonJD   float64 `json:"new_moon_jd"`
	FullMoonUTC string  `json:"full_moon_utc"`
	FullMoonJD  float64 `json:"full_moon_jd"`
}

// UTCFormat is the canonical serialization of chart instants: ISO-8601 with a
// literal Z and seconds truncated.
const UTCFormat = "2006-01-02T15:04:05Z"
