package models

// RequestPhase is the lifecycle phase of the most recent search request.
type RequestPhase string

const (
	PhaseIdle      RequestPhase = "idle"
	PhaseLoading   RequestPhase = "loading"
	PhaseSucceeded RequestPhase = "succeeded"
	PhaseFailed    RequestPhase = "failed"
)

// RequestStatus is a phase plus, for PhaseFailed only, a user-facing message.
type RequestStatus struct {
	Phase   RequestPhase `json:"phase"`
	Message string       `json:"message,omitempty"`
}

func Idle() RequestStatus      { return RequestStatus{Phase: PhaseIdle} }
func Loading() RequestStatus   { return RequestStatus{Phase: PhaseLoading} }
func Succeeded() RequestStatus { return RequestStatus{Phase: PhaseSucceeded} }

// Failed builds a failed status carrying msg.
func Failed(msg string) RequestStatus {
	return RequestStatus{Phase: PhaseFailed, Message: msg}
}
