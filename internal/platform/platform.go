// Package platform defines the capability contract one chat platform
// implements: decoding its webhook payloads into normalized updates and
// sending built blocks back out. The orchestration core is written once
// against these interfaces, never against a concrete platform.
package platform

import (
	"errors"

	"dialogrelay/internal/service/client"
)

// ErrIgnoredUpdate marks webhook payloads that are valid for the platform
// but carry nothing to handle (delivery receipts, edits, statuses). The
// transport acknowledges them without engaging the core.
var ErrIgnoredUpdate = errors.New("update carries no handleable interaction")

// Platform couples a webhook parser with the matching sender.
type Platform interface {
	// Name is the stable identifier used in webhook routes.
	Name() string
	// ParseUpdate decodes a raw webhook body into a normalized update.
	ParseUpdate(body []byte) (client.Update, error)
	// Sender returns the block sender for this platform.
	Sender() client.Sender
}
