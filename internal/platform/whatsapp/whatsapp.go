// Package whatsapp adapts the WhatsApp Cloud API to the platform contract:
// text and interactive button-reply webhook events in, text/image/interactive
// messages out.
package whatsapp

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"dialogrelay/internal/platform"
	"dialogrelay/internal/service/client"
)

// replyPrefix tags reply ids carrying a resume index; navPrefix tags
// carousel navigation, which never reaches the engine.
const (
	replyPrefix = "r:"
	navPrefix   = "n:"
)

// Platform is the WhatsApp Cloud API adapter for one business phone number.
type Platform struct {
	sender *Sender
}

// New creates the adapter. baseURL defaults to the Graph API host and is
// overridable for tests.
func New(accessToken, phoneNumberID, baseURL string) *Platform {
	if baseURL == "" {
		baseURL = "https://graph.facebook.com/v19.0"
	}
	return &Platform{
		sender: &Sender{
			endpoint: fmt.Sprintf("%s/%s/messages", baseURL, phoneNumberID),
			token:    accessToken,
			client:   &http.Client{Timeout: 15 * time.Second},
		},
	}
}

// Name implements platform.Platform.
func (p *Platform) Name() string { return "whatsapp" }

// Sender implements platform.Platform.
func (p *Platform) Sender() client.Sender { return p.sender }

type webhookBody struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []message `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type message struct {
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		ButtonReply *struct {
			ID string `json:"id"`
		} `json:"button_reply"`
		ListReply *struct {
			ID string `json:"id"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// ParseUpdate maps a Cloud API webhook to the normalized update. Status
// callbacks and other non-message changes are reported as ignored.
func (p *Platform) ParseUpdate(body []byte) (client.Update, error) {
	var decoded webhookBody
	if err := json.Unmarshal(body, &decoded); err != nil {
		return client.Update{}, fmt.Errorf("%w: %v", client.ErrMalformedUpdate, err)
	}

	msg, ok := firstMessage(decoded)
	if !ok {
		return client.Update{}, platform.ErrIgnoredUpdate
	}

	at := time.Now()
	if unix, err := strconv.ParseInt(msg.Timestamp, 10, 64); err == nil {
		at = time.Unix(unix, 0)
	}

	switch {
	case msg.Type == "text" && msg.Text != nil:
		return client.Update{
			ChatID: msg.From,
			Kind:   client.UpdateText,
			Text:   msg.Text.Body,
			At:     at,
		}, nil
	case msg.Type == "interactive" && msg.Interactive != nil:
		id := ""
		if msg.Interactive.ButtonReply != nil {
			id = msg.Interactive.ButtonReply.ID
		} else if msg.Interactive.ListReply != nil {
			id = msg.Interactive.ListReply.ID
		}
		kind := client.UpdateResume
		raw := ""
		switch {
		case strings.HasPrefix(id, replyPrefix):
			raw = strings.TrimPrefix(id, replyPrefix)
		case strings.HasPrefix(id, navPrefix):
			kind = client.UpdateNavigate
			raw = strings.TrimPrefix(id, navPrefix)
		default:
			return client.Update{}, fmt.Errorf("%w: unexpected reply id %q", client.ErrMalformedUpdate, id)
		}
		index, err := strconv.Atoi(raw)
		if err != nil {
			return client.Update{}, fmt.Errorf("%w: reply id %q: %v", client.ErrMalformedUpdate, id, err)
		}
		return client.Update{
			ChatID:        msg.From,
			Kind:          kind,
			SelectedIndex: index,
			At:            at,
		}, nil
	default:
		return client.Update{}, platform.ErrIgnoredUpdate
	}
}

func firstMessage(body webhookBody) (message, bool) {
	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			if len(change.Value.Messages) > 0 {
				return change.Value.Messages[0], true
			}
		}
	}
	return message{}, false
}
