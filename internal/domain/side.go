package domain

import "fmt"

// Side is the binary outcome a participant stakes on: Up (end price above
// start price) or Down (everything else, including an unchanged price).
type Side string

const (
	SideUp   Side = "up"
	SideDown Side = "down"
)

// Valid reports whether s is one of the two recognized sides.
func (s Side) Valid() bool {
	return s == SideUp || s == SideDown
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideUp {
		return SideDown
	}
	return SideUp
}

// ParseSide converts free text into a Side, rejecting anything that is not
// exactly "up" or "down".
func ParseSide(s string) (Side, error) {
	side := Side(s)
	if !side.Valid() {
		return "", fmt.Errorf("%w: side %q", ErrInvalidPrediction, s)
	}
	return side, nil
}
