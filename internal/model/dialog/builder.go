package dialog

import "strings"

// builderState is the accumulation mode of the fold; card runs pass through
// accumulatingCard into accumulatingCarousel once a second card arrives.
type builderState int

const (
	idle builderState = iota
	accumulatingCard
	accumulatingCarousel
)

// builder folds a flat raw event list into ordered blocks. It carries at most
// one attachable text/image (the candidate a following choice event glues its
// buttons onto) and the current card run.
type builder struct {
	blocks []Block
	state  builderState
	cards  []Card

	attachText  string
	attachImage string
	hasAttach   bool
}

// Build converts the raw engine events into a Message. It is pure and
// deterministic: same events in, same blocks out, in input order.
func Build(events []Event) (Message, error) {
	if len(events) == 0 {
		return Message{}, &BuildError{Reason: "empty raw event list", Events: events}
	}

	b := &builder{}
	ended := false

	for _, ev := range events {
		switch ev.Type {
		case EventText:
			b.closeCards()
			b.flushAttach()
			b.attachText = ev.Message
			b.hasAttach = true
		case EventImage:
			b.closeCards()
			b.flushAttach()
			b.attachImage = ev.URL
			b.hasAttach = true
		case EventChoice:
			// A choice during card accumulation closes the run first; the
			// menu never attaches to a card.
			b.closeCards()
			b.emitMenu(ev.Buttons)
		case EventCard:
			b.flushAttach()
			if ev.Card != nil {
				b.pushCard(convertCard(*ev.Card))
			}
		case EventCarousel:
			b.flushAttach()
			b.closeCards()
			b.emitCardRun(convertCards(ev.Cards))
		case EventEnd:
			ended = true
		}
	}

	b.closeCards()
	b.flushAttach()

	return Message{Blocks: b.blocks, Ended: ended}, nil
}

func (b *builder) pushCard(c Card) {
	b.cards = append(b.cards, c)
	if len(b.cards) > 1 {
		b.state = accumulatingCarousel
	} else {
		b.state = accumulatingCard
	}
}

func (b *builder) closeCards() {
	if b.state == idle {
		return
	}
	b.emitCardRun(b.cards)
	b.cards = nil
	b.state = idle
}

// emitCardRun turns a card run into a standalone Card or, for two or more
// cards, a single Carousel starting at the first card.
func (b *builder) emitCardRun(cards []Card) {
	switch len(cards) {
	case 0:
	case 1:
		b.blocks = append(b.blocks, cards[0])
	default:
		b.blocks = append(b.blocks, Carousel{Cards: cards})
	}
}

// emitMenu attaches the buttons to the held text/image when one is pending,
// otherwise emits a bare menu.
func (b *builder) emitMenu(specs []ButtonSpec) {
	menu := ButtonMenu{Buttons: convertButtons(specs)}
	if b.hasAttach {
		menu.Text = b.attachText
		menu.ImageURL = b.attachImage
		b.clearAttach()
	}
	b.blocks = append(b.blocks, menu)
}

func (b *builder) flushAttach() {
	if !b.hasAttach {
		return
	}
	if b.attachText != "" {
		b.blocks = append(b.blocks, Text{Content: b.attachText})
	} else if b.attachImage != "" {
		b.blocks = append(b.blocks, Image{URL: b.attachImage})
	}
	b.clearAttach()
}

func (b *builder) clearAttach() {
	b.attachText = ""
	b.attachImage = ""
	b.hasAttach = false
}

func convertButtons(specs []ButtonSpec) []Button {
	buttons := make([]Button, 0, len(specs))
	for _, spec := range specs {
		action := ActionResume
		if spec.URL != "" {
			action = ActionOpenURL
		}
		buttons = append(buttons, Button{
			Label:   spec.Label,
			Action:  action,
			URL:     spec.URL,
			Payload: spec.Payload,
		})
	}
	return buttons
}

func convertCards(specs []CardSpec) []Card {
	cards := make([]Card, 0, len(specs))
	for _, spec := range specs {
		cards = append(cards, convertCard(spec))
	}
	return cards
}

func convertCard(spec CardSpec) Card {
	text := strings.TrimSpace(spec.Title)
	if desc := strings.TrimSpace(spec.Description); desc != "" {
		if text != "" {
			text += "\n" + desc
		} else {
			text = desc
		}
	}
	if text == "" {
		text = PlaceholderCardText
	}

	card := Card{Text: text, ImageURL: spec.ImageURL}
	if buttons := convertButtons(spec.Buttons); len(buttons) > 0 {
		card.Button = &buttons[0]
	}
	return card
}
