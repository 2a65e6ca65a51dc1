// Package ipc provides the single-instance unix-socket control channel.
package ipc

// Commands accepted by a running dictee session.
const (
	CommandStatus = "status"
	CommandPause  = "pause"
	CommandResume = "resume"
	CommandStop   = "stop"
)

// Request is one JSON-line control command.
type Request struct {
	Command string `json:"command"`
}

// Response reports command outcome plus the current session state.
type Response struct {
	OK      bool   `json:"ok"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
