package session

import (
	"time"

	"dialogrelay/internal/model/dialog"
)

// SentRecord remembers the last interactive block delivered to a chat: the
// platform message it became and the options it offered. Only this record is
// resumable; sending a newer interactive block overwrites it.
type SentRecord struct {
	MessageID string
	Block     dialog.Block
	SentAt    time.Time
}

// Button resolves option index i against the recorded block. The second
// return is false when the record holds no button at that position, which the
// orchestrator reports as a stale or malformed selection.
func (r *SentRecord) Button(i int) (dialog.Button, bool) {
	if r == nil || i < 0 {
		return dialog.Button{}, false
	}
	switch block := r.Block.(type) {
	case dialog.ButtonMenu:
		if i < len(block.Buttons) {
			return block.Buttons[i], true
		}
	case dialog.Card:
		if i == 0 && block.Button != nil {
			return *block.Button, true
		}
	case dialog.Carousel:
		if i < len(block.Cards) && block.Cards[i].Button != nil {
			return *block.Cards[i].Button, true
		}
	}
	return dialog.Button{}, false
}

// Carousel returns the recorded carousel, if that is what was sent.
func (r *SentRecord) Carousel() (dialog.Carousel, bool) {
	if r == nil {
		return dialog.Carousel{}, false
	}
	c, ok := r.Block.(dialog.Carousel)
	return c, ok
}
