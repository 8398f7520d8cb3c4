package client

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"dialogrelay/internal/model/dialog"
	sessmodel "dialogrelay/internal/model/session"
	"dialogrelay/internal/service/engine"
	"dialogrelay/internal/service/session"
)

var (
	// ErrMalformedUpdate reports an update whose chat identity or resume
	// target cannot be resolved, including selections against a replaced
	// interactive block.
	ErrMalformedUpdate = errors.New("malformed update")
	// ErrSessionInvalidated reports that the session died between lookup and
	// lock acquisition; the next update gets a fresh one.
	ErrSessionInvalidated = errors.New("session invalidated")
	// ErrClientInactive rejects updates for an administratively disabled
	// client.
	ErrClientInactive = errors.New("client is deactivated")
)

// Config is the per-client configuration the core consumes.
type Config struct {
	ID           string
	WebhookToken string
	Sessions     session.Policy
}

// Client is one platform bot: a session manager, a dialog-engine handle and
// the orchestration entry point the transport calls per update.
type Client struct {
	id       string
	engine   engine.Engine
	sessions *session.Manager

	active atomic.Bool

	tokenMu      sync.RWMutex
	webhookToken string
}

// New wires a client around its engine and session policy. hub may be nil.
func New(cfg Config, eng engine.Engine, hub *session.Hub) *Client {
	c := &Client{
		id:           cfg.ID,
		engine:       eng,
		sessions:     session.NewManager(cfg.ID, cfg.Sessions, hub),
		webhookToken: cfg.WebhookToken,
	}
	c.active.Store(true)
	return c
}

// ID returns the client identifier webhooks route on.
func (c *Client) ID() string { return c.id }

// Sessions exposes the session manager for the admin surface.
func (c *Client) Sessions() *session.Manager { return c.sessions }

// Active reports whether the client accepts updates.
func (c *Client) Active() bool { return c.active.Load() }

// Activate re-enables update handling.
func (c *Client) Activate() { c.active.Store(true) }

// Deactivate makes the client reject updates until reactivated.
func (c *Client) Deactivate() { c.active.Store(false) }

// VerifyToken checks a webhook auth token. An empty configured token
// disables verification.
func (c *Client) VerifyToken(token string) bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.webhookToken == "" || c.webhookToken == token
}

// SetWebhookToken rotates the webhook auth token.
func (c *Client) SetWebhookToken(token string) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()
	c.webhookToken = token
}

// Close stops the client's background session sweeper.
func (c *Client) Close() { c.sessions.Close() }

// HandleUpdate runs one inbound update end to end: session resolve, lock,
// classify, engine call, block build, in-order dispatch through sender and
// bookkeeping of the one resumable record. Updates for the same chat
// serialize on the session lock; different chats proceed in parallel.
func (c *Client) HandleUpdate(ctx context.Context, upd Update, sender Sender) (*DispatchPlan, error) {
	if !c.Active() {
		return nil, fmt.Errorf("client %s: %w", c.id, ErrClientInactive)
	}
	if upd.ChatID == "" {
		return nil, fmt.Errorf("%w: missing chat id", ErrMalformedUpdate)
	}

	sess, err := c.sessions.GetOrCreate(upd.ChatID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	// The session may have been invalidated while this update waited for a
	// concurrent interaction to finish.
	if !sess.Valid() {
		return nil, fmt.Errorf("chat %s: %w", upd.ChatID, ErrSessionInvalidated)
	}

	if upd.Kind == UpdateNavigate {
		return c.navigate(ctx, sess, upd, sender)
	}

	input, urlText, err := c.classify(sess, upd)
	if err != nil {
		return nil, err
	}

	newState, events, err := c.engine.Interact(ctx, sess.Keys(), sess.DialogState(), input)
	if err != nil {
		c.sessions.Invalidate(upd.ChatID)
		return nil, fmt.Errorf("client %s chat %s: %w", c.id, upd.ChatID, err)
	}

	msg, err := dialog.Build(events)
	if err != nil {
		return nil, err
	}
	if urlText != "" {
		msg.Prepend(dialog.Text{Content: urlText})
	}

	sess.SetDialogState(newState)
	sess.Touch(time.Now())

	plan := &DispatchPlan{
		ID:       uuid.NewString(),
		ClientID: c.id,
		ChatID:   upd.ChatID,
		Status:   StatusOK,
	}

	var record *sessmodel.SentRecord
	for _, block := range msg.Blocks {
		messageID, err := sender.Send(ctx, upd.ChatID, block)
		if err != nil {
			return nil, fmt.Errorf("client %s chat %s: send %s block: %w", c.id, upd.ChatID, block.Kind(), err)
		}
		plan.Dispatched = append(plan.Dispatched, Dispatch{MessageID: messageID, Block: block})
		if dialog.Interactive(block) {
			record = &sessmodel.SentRecord{MessageID: messageID, Block: block, SentAt: time.Now()}
		}
	}
	if record != nil {
		sess.SetPending(record)
	}

	if msg.Ended {
		c.sessions.Invalidate(upd.ChatID)
		plan.Status = StatusInvalidated
		log.Printf("[client] client=%s chat=%s dialog ended, session invalidated", c.id, upd.ChatID)
	}

	return plan, nil
}

// navigate moves the pending carousel's cursor and re-renders it. The dialog
// engine is never involved: the record stays pending at the new index, so the
// user can keep browsing and still resume any card's action later.
func (c *Client) navigate(ctx context.Context, sess *sessmodel.Session, upd Update, sender Sender) (*DispatchPlan, error) {
	carousel, ok := sess.Pending().Carousel()
	if !ok {
		return nil, fmt.Errorf("%w: no pending carousel to navigate", ErrMalformedUpdate)
	}
	if upd.SelectedIndex < 0 || upd.SelectedIndex >= len(carousel.Cards) {
		return nil, fmt.Errorf("%w: carousel has no card at index %d", ErrMalformedUpdate, upd.SelectedIndex)
	}

	carousel.Index = upd.SelectedIndex
	messageID, err := sender.Send(ctx, upd.ChatID, carousel)
	if err != nil {
		return nil, fmt.Errorf("client %s chat %s: send carousel block: %w", c.id, upd.ChatID, err)
	}

	sess.SetPending(&sessmodel.SentRecord{MessageID: messageID, Block: carousel, SentAt: time.Now()})
	sess.Touch(time.Now())

	return &DispatchPlan{
		ID:         uuid.NewString(),
		ClientID:   c.id,
		ChatID:     upd.ChatID,
		Dispatched: []Dispatch{{MessageID: messageID, Block: carousel}},
		Status:     StatusOK,
	}, nil
}

// classify decides between a resume call and free-form input. A resume
// selection consumes the pending record before the engine call: a failed
// call invalidates rather than restores it, so a now-stale option can never
// replay.
func (c *Client) classify(sess *sessmodel.Session, upd Update) (engine.Input, string, error) {
	if upd.Kind == UpdateResume {
		pending := sess.Pending()
		button, ok := pending.Button(upd.SelectedIndex)
		if !ok {
			return engine.Input{}, "", fmt.Errorf("%w: no pending option at index %d", ErrMalformedUpdate, upd.SelectedIndex)
		}
		sess.SetPending(nil)

		urlText := ""
		if button.Action == dialog.ActionOpenURL {
			urlText = button.URL
		}
		return engine.Input{Kind: engine.InputResume, Text: button.Label, Payload: button.Payload}, urlText, nil
	}

	if sess.DialogState() == nil {
		return engine.Input{Kind: engine.InputLaunch, Text: upd.Text}, "", nil
	}
	return engine.Input{Kind: engine.InputText, Text: upd.Text}, "", nil
}
