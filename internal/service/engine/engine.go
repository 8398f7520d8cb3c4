package engine

import (
	"context"
	"encoding/json"
	"errors"

	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/model/session"
)

// ErrEngine wraps every transport, protocol or timeout failure of a dialog
// engine call. The core never retries: engine calls are not idempotent
// against conversation state.
var ErrEngine = errors.New("dialog engine error")

// InputKind classifies what an interaction sends to the engine.
type InputKind string

const (
	// InputLaunch starts a fresh dialog for a session with no state yet.
	InputLaunch InputKind = "launch"
	// InputText continues the dialog with free-form user text.
	InputText InputKind = "text"
	// InputResume continues the dialog from a previously offered option.
	InputResume InputKind = "resume"
)

// Input is one user interaction handed to the engine.
type Input struct {
	Kind    InputKind       `json:"kind"`
	Text    string          `json:"text,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Engine is the dialog-engine contract the orchestration core consumes.
// state is the opaque token from the previous call (nil on launch); the
// returned state must be passed back verbatim on the next call.
type Engine interface {
	Interact(ctx context.Context, keys session.Keys, state json.RawMessage, input Input) (json.RawMessage, []dialog.Event, error)
}
