package dialog

import "fmt"

// Message is the ordered block sequence built from one engine response.
// Ended marks that the engine signalled the end of the dialog; the
// orchestration layer turns that into session invalidation.
type Message struct {
	Blocks []Block
	Ended  bool
}

// Prepend inserts a block before the existing sequence. Used to surface the
// URL of a picked open-url button ahead of the engine's follow-up blocks.
func (m *Message) Prepend(b Block) {
	m.Blocks = append([]Block{b}, m.Blocks...)
}

// BuildError reports that a raw event list could not be folded into blocks.
// The events are kept for diagnostics.
type BuildError struct {
	Reason string
	Events []Event
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build message: %s (%d raw events)", e.Reason, len(e.Events))
}
