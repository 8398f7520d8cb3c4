package whatsapp

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

// maxReplyButtons is the Cloud API limit on interactive reply buttons per
// message; overflow options are dropped rather than failing the send.
const maxReplyButtons = 3

// Sender renders blocks as WhatsApp Cloud API message sends.
type Sender struct {
	endpoint string
	token    string
	client   *http.Client
}

// Send implements the core sender contract for WhatsApp.
func (s *Sender) Send(ctx context.Context, chatID string, block dialog.Block) (string, error) {
	switch b := block.(type) {
	case dialog.Text:
		return s.call(ctx, textPayload(chatID, b.Content))
	case dialog.Image:
		return s.call(ctx, map[string]any{
			"messaging_product": "whatsapp",
			"to":                chatID,
			"type":              "image",
			"image":             map[string]any{"link": b.URL},
		})
	case dialog.ButtonMenu:
		body := b.Text
		if body == "" {
			body = dialog.PlaceholderCardText
		}
		return s.call(ctx, interactivePayload(chatID, body, b.ImageURL, b.Buttons))
	case dialog.Card:
		var buttons []dialog.Button
		if b.Button != nil {
			buttons = []dialog.Button{*b.Button}
		}
		if len(buttons) == 0 && b.ImageURL == "" {
			return s.call(ctx, textPayload(chatID, b.Text))
		}
		return s.call(ctx, interactivePayload(chatID, b.Text, b.ImageURL, buttons))
	case dialog.Carousel:
		return s.sendCarousel(ctx, chatID, b)
	default:
		return "", fmt.Errorf("whatsapp: unsupported block %s", block.Kind())
	}
}

// sendCarousel shows the current card; every reply id carries the card
// index it targets, because the core resolves carousel selections by card
// position in the recorded block.
func (s *Sender) sendCarousel(ctx context.Context, chatID string, carousel dialog.Carousel) (string, error) {
	index := carousel.Index
	if index < 0 || index >= len(carousel.Cards) {
		index = 0
	}
	card := carousel.Cards[index]

	replies := make([]map[string]any, 0, maxReplyButtons)
	if card.Button != nil {
		replies = append(replies, replyButton(index, card.Button.Label))
	}
	if index > 0 {
		replies = append(replies, navButton(index-1, "<"))
	}
	if index < len(carousel.Cards)-1 && len(replies) < maxReplyButtons {
		replies = append(replies, navButton(index+1, ">"))
	}

	return s.call(ctx, rawInteractivePayload(chatID, card.Text, card.ImageURL, replies))
}

func replyButton(index int, title string) map[string]any {
	return tappableButton(replyPrefix, index, title)
}

func navButton(index int, title string) map[string]any {
	return tappableButton(navPrefix, index, title)
}

func tappableButton(prefix string, index int, title string) map[string]any {
	return map[string]any{
		"type": "reply",
		"reply": map[string]any{
			"id":    prefix + strconv.Itoa(index),
			"title": title,
		},
	}
}

func textPayload(chatID, body string) map[string]any {
	if body == "" {
		body = dialog.PlaceholderCardText
	}
	return map[string]any{
		"messaging_product": "whatsapp",
		"to":                chatID,
		"type":              "text",
		"text":              map[string]any{"body": body},
	}
}

func interactivePayload(chatID, body, imageURL string, buttons []dialog.Button) map[string]any {
	replies := make([]map[string]any, 0, maxReplyButtons)
	for i, button := range buttons {
		if len(replies) == maxReplyButtons {
			break
		}
		title := button.Label
		if button.Action == dialog.ActionOpenURL {
			// The Cloud API has no URL reply button; surface the link in the
			// title so the selection still resumes through the core.
			title = button.Label + " (" + button.URL + ")"
		}
		replies = append(replies, replyButton(i, title))
	}
	return rawInteractivePayload(chatID, body, imageURL, replies)
}

func rawInteractivePayload(chatID, body, imageURL string, replies []map[string]any) map[string]any {
	if body == "" {
		body = dialog.PlaceholderCardText
	}

	interactive := map[string]any{
		"type":   "button",
		"body":   map[string]any{"text": body},
		"action": map[string]any{"buttons": replies},
	}
	if imageURL != "" {
		interactive["header"] = map[string]any{
			"type":  "image",
			"image": map[string]any{"link": imageURL},
		}
	}

	return map[string]any{
		"messaging_product": "whatsapp",
		"to":                chatID,
		"type":              "interactive",
		"interactive":       interactive,
	}
}

type apiResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Sender) call(ctx context.Context, payload map[string]any) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("whatsapp: encode: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("whatsapp: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whatsapp: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return "", fmt.Errorf("whatsapp: read response: %w", err)
	}

	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("whatsapp: decode response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("whatsapp: api error: %s", decoded.Error.Message)
	}
	if len(decoded.Messages) == 0 {
		return "", fmt.Errorf("whatsapp: response carries no message id")
	}
	return decoded.Messages[0].ID, nil
}
