package client

import "time"

// UpdateKind classifies a normalized inbound platform update.
type UpdateKind string

const (
	// UpdateText is free-form user input.
	UpdateText UpdateKind = "text"
	// UpdateResume is a selection on a previously sent interactive block.
	UpdateResume UpdateKind = "resume"
	// UpdateNavigate moves the cursor of a pending carousel to another card.
	// Pure presentation: it never reaches the dialog engine.
	UpdateNavigate UpdateKind = "navigate"
)

// Update is the platform-neutral shape of one inbound webhook event, already
// decoded by the transport layer.
type Update struct {
	ChatID string
	Kind   UpdateKind
	// Text carries the user's message for UpdateText updates.
	Text string
	// SelectedIndex is the option or card position picked, for UpdateResume
	// and UpdateNavigate.
	SelectedIndex int
	At            time.Time
}
