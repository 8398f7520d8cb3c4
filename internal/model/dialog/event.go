package dialog

import "encoding/json"

// EventType discriminates the raw records a dialog engine emits for one turn.
type EventType string

const (
	EventText     EventType = "text"
	EventImage    EventType = "image"
	EventChoice   EventType = "choice"
	EventCard     EventType = "card"
	EventCarousel EventType = "carousel"
	EventEnd      EventType = "end"
)

// Event is one raw record from the engine's response stream. Only the fields
// matching the type are populated; the payload on a button is passed back to
// the engine verbatim when the user picks it.
type Event struct {
	Type    EventType    `json:"type"`
	Message string       `json:"message,omitempty"`
	URL     string       `json:"url,omitempty"`
	Buttons []ButtonSpec `json:"buttons,omitempty"`
	Card    *CardSpec    `json:"card,omitempty"`
	Cards   []CardSpec   `json:"cards,omitempty"`
}

// ButtonSpec describes one selectable option offered by a choice event.
type ButtonSpec struct {
	Label   string          `json:"label"`
	URL     string          `json:"url,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// CardSpec describes one card offered by a card or carousel event.
type CardSpec struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Buttons     []ButtonSpec `json:"buttons,omitempty"`
}
