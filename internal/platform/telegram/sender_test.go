package telegram_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/platform/telegram"
)

type recordedCall struct {
	method  string
	payload map[string]any
}

func newAPIServer(t *testing.T, calls *[]recordedCall) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		parts := strings.Split(r.URL.Path, "/")
		*calls = append(*calls, recordedCall{method: parts[len(parts)-1], payload: payload})

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": true, "result": {"message_id": 77}}`))
	}))
}

func TestSenderText(t *testing.T) {
	var calls []recordedCall
	srv := newAPIServer(t, &calls)
	defer srv.Close()

	p := telegram.New("token", srv.URL)
	id, err := p.Sender().Send(context.Background(), "42", dialog.Text{Content: "hello"})
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}
	if id != "77" {
		t.Fatalf("unexpected message id: %q", id)
	}

	if len(calls) != 1 || calls[0].method != "sendMessage" {
		t.Fatalf("expected one sendMessage call, got %+v", calls)
	}
	if calls[0].payload["text"] != "hello" {
		t.Fatalf("unexpected payload: %v", calls[0].payload)
	}
}

func TestSenderButtonMenuCallbacks(t *testing.T) {
	var calls []recordedCall
	srv := newAPIServer(t, &calls)
	defer srv.Close()

	p := telegram.New("token", srv.URL)
	_, err := p.Sender().Send(context.Background(), "42", dialog.ButtonMenu{
		Text: "pick",
		Buttons: []dialog.Button{
			{Label: "a", Action: dialog.ActionResume},
			{Label: "docs", Action: dialog.ActionOpenURL, URL: "https://docs.example"},
		},
	})
	if err != nil {
		t.Fatalf("Send err: %v", err)
	}

	markup := calls[0].payload["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected one row per button, got %d", len(rows))
	}

	first := rows[0].([]any)[0].(map[string]any)
	if first["callback_data"] != "r:0" {
		t.Fatalf("resume button must carry its index, got %v", first["callback_data"])
	}
	second := rows[1].([]any)[0].(map[string]any)
	if second["url"] != "https://docs.example" {
		t.Fatalf("url button must carry the url, got %v", second["url"])
	}
	if _, ok := second["callback_data"]; ok {
		t.Fatal("url button must not carry callback data")
	}
}

func TestSenderCarouselNavigation(t *testing.T) {
	var calls []recordedCall
	srv := newAPIServer(t, &calls)
	defer srv.Close()

	buy := dialog.Button{Label: "buy", Action: dialog.ActionResume}
	carousel := dialog.Carousel{
		Cards: []dialog.Card{
			{Text: "first"},
			{Text: "second", Button: &buy},
			{Text: "third"},
		},
		Index: 1,
	}

	p := telegram.New("token", srv.URL)
	if _, err := p.Sender().Send(context.Background(), "42", carousel); err != nil {
		t.Fatalf("Send err: %v", err)
	}

	if calls[0].payload["text"] != "second" {
		t.Fatalf("must render the card at the cursor, got %v", calls[0].payload["text"])
	}

	markup := calls[0].payload["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	if len(rows) != 2 {
		t.Fatalf("expected button row + nav row, got %d rows", len(rows))
	}

	nav := rows[1].([]any)
	prev := nav[0].(map[string]any)
	next := nav[1].(map[string]any)
	if prev["callback_data"] != "n:0" {
		t.Fatalf("prev must navigate to the previous card, got %v", prev["callback_data"])
	}
	if next["callback_data"] != "n:2" {
		t.Fatalf("next must navigate to the next card, got %v", next["callback_data"])
	}

	button := rows[0].([]any)[0].(map[string]any)
	if button["callback_data"] != "r:0" {
		t.Fatalf("card action must stay a resume, got %v", button["callback_data"])
	}
}

func TestSenderAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	p := telegram.New("token", srv.URL)
	if _, err := p.Sender().Send(context.Background(), "42", dialog.Text{Content: "x"}); err == nil {
		t.Fatal("expected error from api failure")
	}
}
