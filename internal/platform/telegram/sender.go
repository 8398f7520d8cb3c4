package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"dialogrelay/internal/model/dialog"
)

// Sender renders blocks as Telegram Bot API calls, one message per block.
type Sender struct {
	api    string
	client *http.Client
}

type inlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// Send implements the core sender contract for Telegram.
func (s *Sender) Send(ctx context.Context, chatID string, block dialog.Block) (string, error) {
	switch b := block.(type) {
	case dialog.Text:
		return s.call(ctx, "sendMessage", map[string]any{
			"chat_id": chatID,
			"text":    b.Content,
		})
	case dialog.Image:
		return s.call(ctx, "sendPhoto", map[string]any{
			"chat_id": chatID,
			"photo":   b.URL,
		})
	case dialog.ButtonMenu:
		markup := buttonRows(b.Buttons)
		if b.ImageURL != "" {
			payload := map[string]any{"chat_id": chatID, "photo": b.ImageURL, "reply_markup": markup}
			if b.Text != "" {
				payload["caption"] = b.Text
			}
			return s.call(ctx, "sendPhoto", payload)
		}
		text := b.Text
		if text == "" {
			text = dialog.PlaceholderCardText
		}
		return s.call(ctx, "sendMessage", map[string]any{
			"chat_id":      chatID,
			"text":         text,
			"reply_markup": markup,
		})
	case dialog.Card:
		return s.sendCard(ctx, chatID, b, nil)
	case dialog.Carousel:
		return s.sendCarousel(ctx, chatID, b)
	default:
		return "", fmt.Errorf("telegram: unsupported block %s", block.Kind())
	}
}

// sendCard renders one card; extraRows appends navigation for carousels.
func (s *Sender) sendCard(ctx context.Context, chatID string, card dialog.Card, extraRows [][]inlineButton) (string, error) {
	rows := make([][]inlineButton, 0, 2)
	if card.Button != nil {
		rows = buttonRows([]dialog.Button{*card.Button}).InlineKeyboard
	}
	rows = append(rows, extraRows...)

	payload := map[string]any{"chat_id": chatID}
	if len(rows) > 0 {
		payload["reply_markup"] = replyMarkup{InlineKeyboard: rows}
	}
	if card.ImageURL != "" {
		payload["photo"] = card.ImageURL
		payload["caption"] = card.Text
		return s.call(ctx, "sendPhoto", payload)
	}
	payload["text"] = card.Text
	return s.call(ctx, "sendMessage", payload)
}

// sendCarousel shows the current card with previous/next callbacks pointing
// at the neighbouring card indexes.
func (s *Sender) sendCarousel(ctx context.Context, chatID string, carousel dialog.Carousel) (string, error) {
	index := carousel.Index
	if index < 0 || index >= len(carousel.Cards) {
		index = 0
	}

	nav := make([]inlineButton, 0, 2)
	if index > 0 {
		nav = append(nav, inlineButton{Text: "<", CallbackData: navPrefix + strconv.Itoa(index-1)})
	}
	if index < len(carousel.Cards)-1 {
		nav = append(nav, inlineButton{Text: ">", CallbackData: navPrefix + strconv.Itoa(index+1)})
	}

	var extra [][]inlineButton
	if len(nav) > 0 {
		extra = [][]inlineButton{nav}
	}
	return s.sendCard(ctx, chatID, carousel.Cards[index], extra)
}

func buttonRows(buttons []dialog.Button) replyMarkup {
	rows := make([][]inlineButton, 0, len(buttons))
	for i, button := range buttons {
		ib := inlineButton{Text: button.Label}
		if button.Action == dialog.ActionOpenURL {
			ib.URL = button.URL
		} else {
			ib.CallbackData = callbackPrefix + strconv.Itoa(i)
		}
		rows = append(rows, []inlineButton{ib})
	}
	return replyMarkup{InlineKeyboard: rows}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (s *Sender) call(ctx context.Context, method string, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("telegram %s: encode: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.api+"/"+method, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("telegram %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("telegram %s: %w", method, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("telegram %s: read response: %w", method, err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !decoded.OK {
		return "", fmt.Errorf("telegram %s: api error: %s", method, decoded.Description)
	}
	return strconv.FormatInt(decoded.Result.MessageID, 10), nil
}
