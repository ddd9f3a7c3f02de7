package physics

import "fmt"

// Kind identifies a charge carrier species.
type Kind byte

const (
	Electron Kind = 'e'
	Hole     Kind = 'h'
)

// ParseKind maps the single-character record code to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "e":
		return Electron, nil
	case "h":
		return Hole, nil
	}
	return 0, fmt.Errorf("unknown carrier type %q", s)
}

// Sign is -1 for electrons and +1 for holes: electrons drift against the
// field, holes along it.
func (k Kind) Sign() float64 {
	if k == Electron {
		return -1
	}
	return 1
}

func (k Kind) String() string {
	switch k {
	case Electron:
		return "electron"
	case Hole:
		return "hole"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}
