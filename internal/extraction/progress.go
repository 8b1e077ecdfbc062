package extraction

import "fmt"

// Phase is a stage of one extraction run.
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseExtracting
	PhaseProcessing
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhasePreparing:
		return "preparing"
	case PhaseExtracting:
		return "extracting"
	case PhaseProcessing:
		return "processing"
	case PhaseComplete:
		return "complete"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Progress is a presentational snapshot of a run. Percent is monotonic
// within a run.
type Progress struct {
	Phase   Phase `json:"phase"`
	Percent int   `json:"percent"`
}

// Observer receives progress snapshots. It is called from the extracting
// goroutine and must not block.
type Observer func(Progress)

func (o Observer) report(phase Phase, percent int) {
	if o != nil {
		o(Progress{Phase: phase, Percent: percent})
	}
}
