// README: Common value objects shared across modules.
package types

// ID is an opaque entity identifier (32-char hex from the ID generator).
type ID string

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// IsZero reports whether the point carries no usable coordinate.
func (p Point) IsZero() bool {
	return p.Lat == 0 && p.Lng == 0
}
