// Package telegram adapts the Telegram Bot API to the platform contract:
// message and callback_query updates in, sendMessage/sendPhoto with inline
// keyboards out.
package telegram

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

// callbackPrefix tags inline-keyboard callback data carrying a resume index;
// navPrefix tags carousel navigation, which never reaches the engine.
const (
	callbackPrefix = "r:"
	navPrefix      = "n:"
)

// Platform is the Telegram adapter for one bot token.
type Platform struct {
	sender *Sender
}

// New creates the adapter. baseURL defaults to the public Bot API host and
// is overridable for tests.
func New(botToken, baseURL string) *Platform {
	if baseURL == "" {
		baseURL = "https://api.telegram.org"
	}
	return &Platform{
		sender: &Sender{
			api:    fmt.Sprintf("%s/bot%s", baseURL, botToken),
			client: &http.Client{Timeout: 15 * time.Second},
		},
	}
}

// Name implements platform.Platform.
func (p *Platform) Name() string { return "telegram" }

// Sender implements platform.Platform.
func (p *Platform) Sender() client.Sender { return p.sender }

type update struct {
	Message *struct {
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
		Date int64  `json:"date"`
	} `json:"message"`
	CallbackQuery *struct {
		Data    string `json:"data"`
		Message struct {
			Chat struct {
				ID int64 `json:"id"`
			} `json:"chat"`
		} `json:"message"`
	} `json:"callback_query"`
}

// ParseUpdate maps a Telegram update to the normalized shape: plain messages
// become text updates, inline-keyboard callbacks become resume selections.
func (p *Platform) ParseUpdate(body []byte) (client.Update, error) {
	var upd update
	if err := json.Unmarshal(body, &upd); err != nil {
		return client.Update{}, fmt.Errorf("%w: %v", client.ErrMalformedUpdate, err)
	}

	switch {
	case upd.CallbackQuery != nil:
		data := upd.CallbackQuery.Data
		kind := client.UpdateResume
		raw := ""
		switch {
		case strings.HasPrefix(data, callbackPrefix):
			raw = strings.TrimPrefix(data, callbackPrefix)
		case strings.HasPrefix(data, navPrefix):
			kind = client.UpdateNavigate
			raw = strings.TrimPrefix(data, navPrefix)
		default:
			return client.Update{}, fmt.Errorf("%w: unexpected callback data %q", client.ErrMalformedUpdate, data)
		}
		index, err := strconv.Atoi(raw)
		if err != nil {
			return client.Update{}, fmt.Errorf("%w: callback data %q: %v", client.ErrMalformedUpdate, data, err)
		}
		return client.Update{
			ChatID:        strconv.FormatInt(upd.CallbackQuery.Message.Chat.ID, 10),
			Kind:          kind,
			SelectedIndex: index,
			At:            time.Now(),
		}, nil
	case upd.Message != nil && upd.Message.Text != "":
		return client.Update{
			ChatID: strconv.FormatInt(upd.Message.Chat.ID, 10),
			Kind:   client.UpdateText,
			Text:   upd.Message.Text,
			At:     time.Unix(upd.Message.Date, 0),
		}, nil
	default:
		return client.Update{}, platform.ErrIgnoredUpdate
	}
}
