package types

// Side is the direction of a position.
type Side int8

const (
	// SideLong profits when the mark price rises.
	SideLong Side = iota
	// SideShort profits when the mark price falls.
	SideShort
)

// IsLong returns whether this is the long side.
func (s Side) IsLong() bool {
	return s == SideLong
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideLong {
		return SideShort
	}
	return SideLong
}

func (s Side) String() string {
	if s == SideLong {
		return "long"
	}
	return "short"
}
