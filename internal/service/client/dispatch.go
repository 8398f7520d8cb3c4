package client

import (
	"context"

	"dialogrelay/internal/model/dialog"
)

// Sender delivers one block to the platform chat, in call order, and returns
// the platform message identifier. The orchestrator only ever sees this
// interface; concrete platforms live behind it.
type Sender interface {
	Send(ctx context.Context, chatID string, block dialog.Block) (messageID string, err error)
}

// PlanStatus is the terminal state of one handled update.
type PlanStatus string

const (
	StatusOK PlanStatus = "ok"
	// StatusInvalidated means the interaction succeeded but ended the
	// dialog; the session was invalidated so the next update starts fresh.
	StatusInvalidated PlanStatus = "invalidated"
)

// Dispatch records one delivered block.
type Dispatch struct {
	MessageID string       `json:"messageId"`
	Block     dialog.Block `json:"block"`
}

// DispatchPlan is the audit record of everything an update caused the
// platform to send.
type DispatchPlan struct {
	ID         string     `json:"id"`
	ClientID   string     `json:"clientId"`
	ChatID     string     `json:"chatId"`
	Dispatched []Dispatch `json:"dispatched"`
	Status     PlanStatus `json:"status"`
}
