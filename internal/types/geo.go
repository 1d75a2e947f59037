// README: Identifiers and coordinates shared by every module.
package types

import "math"

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether p is a usable coordinate. (0,0) is treated as missing data.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return false
	}
	return !p.IsNull()
}

// IsNull reports whether p sits exactly on (0,0).
func (p Point) IsNull() bool {
	return p.Lat == 0 && p.Lng == 0
}
