package dialog

import "encoding/json"

// PlaceholderCardText replaces empty card text: several platforms reject
// messages with an empty caption.
const PlaceholderCardText = "No description"

// BlockType identifies the concrete variant behind a Block.
type BlockType string

const (
	BlockText       BlockType = "text"
	BlockImage      BlockType = "image"
	BlockButtonMenu BlockType = "buttonMenu"
	BlockCard       BlockType = "card"
	BlockCarousel   BlockType = "carousel"
)

// Block is one renderable unit of a built message. The concrete types form a
// closed set; senders switch on Kind.
type Block interface {
	Kind() BlockType
}

// ActionKind tells the sender what picking a button does.
type ActionKind string

const (
	ActionOpenURL ActionKind = "openUrl"
	ActionResume  ActionKind = "resume"
)

// Button is one option of an interactive block. Payload is the opaque data
// the engine needs to resume the dialog from this option.
type Button struct {
	Label   string          `json:"label"`
	Action  ActionKind      `json:"action"`
	URL     string          `json:"url,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Text is a plain text block.
type Text struct {
	Content string `json:"content"`
}

func (Text) Kind() BlockType { return BlockText }

// Image is a standalone image block.
type Image struct {
	URL string `json:"url"`
}

func (Image) Kind() BlockType { return BlockImage }

// ButtonMenu is an ordered option set, optionally attached to the text or
// image that immediately preceded it in the event stream.
type ButtonMenu struct {
	Text     string   `json:"text,omitempty"`
	ImageURL string   `json:"imageUrl,omitempty"`
	Buttons  []Button `json:"buttons"`
}

func (ButtonMenu) Kind() BlockType { return BlockButtonMenu }

// Card is a single card: text, optional image, optional single button.
type Card struct {
	Text     string  `json:"text"`
	ImageURL string  `json:"imageUrl,omitempty"`
	Button   *Button `json:"button,omitempty"`
}

func (Card) Kind() BlockType { return BlockCard }

// Carousel is an ordered run of cards with a navigation cursor.
type Carousel struct {
	Cards []Card `json:"cards"`
	Index int    `json:"index"`
}

func (Carousel) Kind() BlockType { return BlockCarousel }

// Interactive reports whether the block offers choices the user can reply to.
func Interactive(b Block) bool {
	switch b.Kind() {
	case BlockButtonMenu, BlockCarousel:
		return true
	case BlockCard:
		return b.(Card).Button != nil
	default:
		return false
	}
}
