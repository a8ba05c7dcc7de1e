// internal/room/phase.go
package room

// Phase is the room's lifecycle state. A room cycles LOBBY -> COUNTDOWN ->
// PLAYING -> RESULTS -> RESET -> LOBBY; there is no terminal phase.
type Phase string

const (
	PhaseLobby     Phase = "LOBBY"
	PhaseCountdown Phase = "COUNTDOWN"
	PhasePlaying   Phase = "PLAYING"
	PhaseResults   Phase = "RESULTS"
	PhaseReset     Phase = "RESET"
)

// transitions is the legal transition table. A target not listed under the
// current phase is rejected without mutating state.
var transitions = map[Phase][]Phase{
	PhaseLobby:     {PhaseCountdown},
	PhaseCountdown: {PhasePlaying, PhaseLobby},
	PhasePlaying:   {PhaseResults},
	PhaseResults:   {PhaseReset, PhaseLobby},
	PhaseReset:     {PhaseLobby},
}

// CanTransitionTo reports whether target is reachable from p. A
// self-transition is always allowed and treated as a no-op by the caller.
func (p Phase) CanTransitionTo(target Phase) bool {
	if p == target {
		return true
	}
	for _, t := range transitions[p] {
		if t == target {
			return true
		}
	}
	return false
}

// Timed reports whether the phase normally carries a deadline.
func (p Phase) Timed() bool {
	switch p {
	case PhaseCountdown, PhaseResults, PhaseReset:
		return true
	}
	return false
}
