package volume

// GenState tracks one channel's regeneration lifecycle.
type GenState int

const (
	// Clean channels hold texels generated from their current settings.
	Clean GenState = iota
	// Dirty channels have settings newer than their texels.
	Dirty
	// InProgress channels are being regenerated right now.
	InProgress
)

func (s GenState) String() string {
	switch s {
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case InProgress:
		return "in-progress"
	}
	return "unknown"
}
