package pipeline

// State is a release pipeline state. Transitions are strictly
// sequential; Failed is reachable from every state except Done, and no
// step is ever retried. The unit of recovery is a full re-run.
type State string

const (
	StateIdle              State = "Idle"
	StateAuthenticating    State = "Authenticating"
	StateBuilding          State = "Building"
	StateTagging           State = "Tagging"
	StatePushing           State = "Pushing"
	StateDescriptorWritten State = "DescriptorWritten"
	StateDone              State = "Done"
	StateFailed            State = "Failed"
)

// Terminal reports whether the state ends a run.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
