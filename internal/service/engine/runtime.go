package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/model/session"
)

// RuntimeConfig configures the remote dialog-engine runtime client.
type RuntimeConfig struct {
	BaseURL   string
	APIKey    string
	ProjectID string
	VersionID string
	Timeout   time.Duration
}

// Runtime talks to the remote dialog-engine interact API. One POST per
// interaction: session identity plus state and input go out, the new state
// and the raw event list come back.
type Runtime struct {
	cfg    RuntimeConfig
	client *http.Client
}

// NewRuntime creates the runtime client. Timeout <= 0 falls back to 30s.
func NewRuntime(cfg RuntimeConfig) *Runtime {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runtime{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

type interactRequest struct {
	Session session.Keys    `json:"session"`
	State   json.RawMessage `json:"state,omitempty"`
	Input   Input           `json:"input"`
}

type interactResponse struct {
	State  json.RawMessage `json:"state"`
	Events []dialog.Event  `json:"events"`
}

// Interact performs one dialog turn against the remote runtime.
func (r *Runtime) Interact(ctx context.Context, keys session.Keys, state json.RawMessage, input Input) (json.RawMessage, []dialog.Event, error) {
	body, err := json.Marshal(interactRequest{Session: keys, State: state, Input: input})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encode request: %v", ErrEngine, err)
	}

	url := fmt.Sprintf("%s/v2/interact/%s/%s", r.cfg.BaseURL, r.cfg.ProjectID, r.cfg.VersionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: build request: %v", ErrEngine, err)
	}
	req.Header.Set("Authorization", r.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, nil, fmt.Errorf("%w: runtime returned %d: %s", ErrEngine, resp.StatusCode, payload)
	}

	var decoded interactResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, nil, fmt.Errorf("%w: decode response: %v", ErrEngine, err)
	}
	return decoded.State, decoded.Events, nil
}
