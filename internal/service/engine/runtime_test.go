package engine_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/model/session"
	"dialogrelay/internal/service/engine"
)

func TestRuntimeInteract(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]json.RawMessage

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"state": {"turn": 2},
			"events": [{"type": "text", "message": "hi"}]
		}`))
	}))
	defer srv.Close()

	r := engine.NewRuntime(engine.RuntimeConfig{
		BaseURL:   srv.URL,
		APIKey:    "vf-key",
		ProjectID: "proj",
		VersionID: "production",
	})

	keys := session.DeriveKeys("bot-1", "chat-1")
	state, events, err := r.Interact(context.Background(), keys, json.RawMessage(`{"turn":1}`), engine.Input{
		Kind: engine.InputText,
		Text: "hello",
	})
	if err != nil {
		t.Fatalf("Interact err: %v", err)
	}

	if gotPath != "/v2/interact/proj/production" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "vf-key" {
		t.Fatalf("unexpected auth header: %q", gotAuth)
	}
	if string(gotBody["state"]) != `{"turn":1}` {
		t.Fatalf("request must carry prior state, got %s", gotBody["state"])
	}

	if string(state) != `{"turn": 2}` {
		t.Fatalf("unexpected state: %s", state)
	}
	if len(events) != 1 || events[0].Type != dialog.EventText || events[0].Message != "hi" {
		t.Fatalf("unexpected events: %#v", events)
	}
}

func TestRuntimeInteractOmitsNilState(t *testing.T) {
	var gotBody map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"state": {}, "events": [{"type": "text", "message": "x"}]}`))
	}))
	defer srv.Close()

	r := engine.NewRuntime(engine.RuntimeConfig{BaseURL: srv.URL, ProjectID: "proj", VersionID: "v"})
	if _, _, err := r.Interact(context.Background(), session.Keys{}, nil, engine.Input{Kind: engine.InputLaunch}); err != nil {
		t.Fatalf("Interact err: %v", err)
	}

	if _, ok := gotBody["state"]; ok {
		t.Fatal("first turn must not send a state field")
	}
}

func TestRuntimeInteractServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	r := engine.NewRuntime(engine.RuntimeConfig{BaseURL: srv.URL, ProjectID: "proj", VersionID: "v"})
	_, _, err := r.Interact(context.Background(), session.Keys{}, nil, engine.Input{Kind: engine.InputLaunch})
	if !errors.Is(err, engine.ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
}

func TestRuntimeInteractUnreachable(t *testing.T) {
	r := engine.NewRuntime(engine.RuntimeConfig{BaseURL: "http://127.0.0.1:1", ProjectID: "proj", VersionID: "v"})
	_, _, err := r.Interact(context.Background(), session.Keys{}, nil, engine.Input{Kind: engine.InputLaunch})
	if !errors.Is(err, engine.ErrEngine) {
		t.Fatalf("expected ErrEngine, got %v", err)
	}
}
