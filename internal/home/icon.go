package home

// IconSize is the display size of a site icon.
type IconSize int

const (
	IconSmall IconSize = iota
	IconLarge
)

// Pixels returns the nominal edge length of the icon.
func (s IconSize) Pixels() int {
	if s == IconLarge {
		return 25
	}
	return 16
}

// Cells returns how many terminal cells the icon occupies.
func (s IconSize) Cells() int {
	if s == IconLarge {
		return 2
	}
	return 1
}

func (s IconSize) String() string {
	if s == IconLarge {
		return "large"
	}
	return "small"
}
