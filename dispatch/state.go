// Package dispatch submits uploaded recordings to the processing backend and
// owns the processing-state machine the UI reads.
package dispatch

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseUploading
	// PhaseProcessing is defined for completeness but never entered: there is
	// no signal between "uploaded" and "backend accepted", so the pipeline
	// collapses it into Uploading.
	PhaseProcessing
	PhaseSuccess
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseUploading:
		return "uploading"
	case PhaseProcessing:
		return "processing"
	case PhaseSuccess:
		return "success"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// State is what the UI renders. Success and Error are terminal until Reset.
type State struct {
	Phase   Phase
	Message string
}
