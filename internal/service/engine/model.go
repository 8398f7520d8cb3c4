package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"dialogrelay/internal/model/dialog"
	"dialogrelay/internal/model/session"
)

// Model is an embedded dialog engine backed by a chat model, used for local
// development and as a fallback when no remote runtime is configured. The
// whole conversation history travels inside the opaque state token, so it
// honors the same contract as the remote engine: no storage of its own.
type Model struct {
	system string
	chain  compose.Runnable[map[string]any, *schema.Message]
}

type modelState struct {
	History []modelTurn `json:"history"`
}

type modelTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewModel compiles the prompt chain over the supplied chat model.
func NewModel(ctx context.Context, chatModel model.ChatModel, systemPrompt string) (*Model, error) {
	template := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.MessagesPlaceholder("history", true),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(template)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile model chain: %w", err)
	}

	return &Model{system: systemPrompt, chain: runnable}, nil
}

// Interact runs one conversation turn and returns a single text event plus
// the grown history as the new state.
func (m *Model) Interact(ctx context.Context, _ session.Keys, state json.RawMessage, input Input) (json.RawMessage, []dialog.Event, error) {
	var st modelState
	if len(state) > 0 {
		if err := json.Unmarshal(state, &st); err != nil {
			return nil, nil, fmt.Errorf("%w: decode state: %v", ErrEngine, err)
		}
	}

	query := queryFromInput(input)

	response, err := m.chain.Invoke(ctx, map[string]any{
		"system":  m.system,
		"history": historyMessages(st.History),
		"query":   query,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrEngine, err)
	}

	st.History = append(st.History,
		modelTurn{Role: "user", Content: query},
		modelTurn{Role: "assistant", Content: response.Content},
	)
	newState, err := json.Marshal(st)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: encode state: %v", ErrEngine, err)
	}

	events := []dialog.Event{{Type: dialog.EventText, Message: response.Content}}
	return newState, events, nil
}

// queryFromInput flattens the interaction into plain text. A resume payload
// carries the label of the picked option when the producer included one.
func queryFromInput(input Input) string {
	switch input.Kind {
	case InputResume:
		var picked struct {
			Label string `json:"label"`
		}
		if len(input.Payload) > 0 && json.Unmarshal(input.Payload, &picked) == nil && picked.Label != "" {
			return picked.Label
		}
		if input.Text != "" {
			return input.Text
		}
		return string(input.Payload)
	case InputLaunch:
		if input.Text != "" {
			return input.Text
		}
		return "Hello"
	default:
		return input.Text
	}
}

func historyMessages(turns []modelTurn) []*schema.Message {
	const limit = 20

	start := 0
	if len(turns) > limit {
		start = len(turns) - limit
	}

	history := make([]*schema.Message, 0, len(turns)-start)
	for _, turn := range turns[start:] {
		switch turn.Role {
		case "user":
			history = append(history, schema.UserMessage(turn.Content))
		case "assistant":
			history = append(history, schema.AssistantMessage(turn.Content, nil))
		}
	}
	return history
}
