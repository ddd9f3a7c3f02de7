package carrier

type Phase int

const (
	Generated Phase = iota
	Diffusing
	Drifting
	Exited
)

func (p Phase) String() string {
	switch p {
	case Generated:
		return "generated"
	case Diffusing:
		return "diffusing"
	case Drifting:
		return "drifting"
	case Exited:
		return "exited"
	}
	return "unknown"
}
