package sensorpipeline

// State is one node of the pipeline's state machine:
//
//	Idle --start--> Connecting --> Running --stop--> Draining --> Idle
//	         |                         |
//	         +--error-----------------+--> Faulted --backoff--> Connecting
type State int

const (
	Idle State = iota
	Connecting
	Running
	Faulted
	Draining
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Connecting:
		return "CONNECTING"
	case Running:
		return "RUNNING"
	case Faulted:
		return "FAULTED"
	case Draining:
		return "DRAINING"
	default:
		return "UNKNOWN"
	}
}
