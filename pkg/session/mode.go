package session

import "fmt"

// Mode is the active edit mode. Exactly one is active at a time; the crop
// and mask state only exist while their mode is active.
type Mode int

const (
	Standard Mode = iota
	Cropping
	Masking
	Expanding
)

func (m Mode) String() string {
	switch m {
	case Standard:
		return "standard"
	case Cropping:
		return "cropping"
	case Masking:
		return "masking"
	case Expanding:
		return "expanding"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode parses a mode name
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{Standard, Cropping, Masking, Expanding} {
		if m.String() == s {
			return m, nil
		}
	}
	return Standard, fmt.Errorf("unknown mode %q", s)
}
