package registry

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/aretw0/whiteboard/pkg/domain"
)

// Tool names as exposed to the model.
const (
	NameGetWhiteboard   = "getWhiteboard"
	NameAddCard         = "addCard"
	NameUpdateCard      = "updateCard"
	NameRemoveCard      = "removeCard"
	NameRemoveCluster   = "removeCluster"
	NameSetCaption      = "setCaption"
	NameClearWhiteboard = "clearWhiteboard"
	NameLogMessage      = "logMessage"
)

const (
	// MaxTextLength bounds card text and captions, counted in runes.
	MaxTextLength = 280
	// MaxTagLength bounds tags, counted in runes. Emoji sequences may span several runes.
	MaxTagLength = 8
)

// Tool is the closed set of operations the model may request.
// Each variant carries its validated input. The unexported marker keeps the
// set closed so executors can switch over it exhaustively.
type Tool interface {
	ToolName() string
	Validate() error
	isTool()
}

// GetWhiteboard reads the current snapshot.
type GetWhiteboard struct{}

// AddCard places a new tagless card.
type AddCard struct {
	ID      string `mapstructure:"id"`
	Color   string `mapstructure:"color"`
	Text    string `mapstructure:"text"`
	Cluster string `mapstructure:"cluster"`
}

// UpdateCard retags and/or moves an existing card.
type UpdateCard struct {
	ID      string  `mapstructure:"id"`
	Tag     *string `mapstructure:"tag"`
	Cluster *string `mapstructure:"cluster"`
}

// RemoveCard deletes a card.
type RemoveCard struct {
	ID string `mapstructure:"id"`
}

// RemoveCluster deletes a cluster with all its cards.
type RemoveCluster struct {
	ID string `mapstructure:"id"`
}

// SetCaption replaces the board caption.
type SetCaption struct {
	Text string `mapstructure:"text"`
}

// ClearWhiteboard removes every cluster and the caption.
type ClearWhiteboard struct{}

// LogMessage writes a message to the host console without touching the board.
type LogMessage struct {
	Message string `mapstructure:"message"`
}

func (GetWhiteboard) ToolName() string   { return NameGetWhiteboard }
func (AddCard) ToolName() string         { return NameAddCard }
func (UpdateCard) ToolName() string      { return NameUpdateCard }
func (RemoveCard) ToolName() string      { return NameRemoveCard }
func (RemoveCluster) ToolName() string   { return NameRemoveCluster }
func (SetCaption) ToolName() string      { return NameSetCaption }
func (ClearWhiteboard) ToolName() string { return NameClearWhiteboard }
func (LogMessage) ToolName() string      { return NameLogMessage }

func (GetWhiteboard) isTool()   {}
func (AddCard) isTool()         {}
func (UpdateCard) isTool()      {}
func (RemoveCard) isTool()      {}
func (RemoveCluster) isTool()   {}
func (SetCaption) isTool()      {}
func (ClearWhiteboard) isTool() {}
func (LogMessage) isTool()      {}

func (GetWhiteboard) Validate() error   { return nil }
func (ClearWhiteboard) Validate() error { return nil }

func (t AddCard) Validate() error {
	if err := requireID("id", t.ID); err != nil {
		return err
	}
	if _, err := domain.ParseColor(t.Color); err != nil {
		return err
	}
	if strings.TrimSpace(t.Text) == "" {
		return invalid("text is required")
	}
	return maxRunes("text", t.Text, MaxTextLength)
}

// Card converts the input into the domain card it describes.
func (t AddCard) Card() domain.Card {
	return domain.Card{ID: t.ID, Color: domain.Color(t.Color), Text: t.Text}
}

func (t UpdateCard) Validate() error {
	if err := requireID("id", t.ID); err != nil {
		return err
	}
	if t.Tag != nil {
		if err := maxRunes("tag", *t.Tag, MaxTagLength); err != nil {
			return err
		}
	}
	if t.Cluster != nil && strings.TrimSpace(*t.Cluster) == "" {
		return invalid("cluster must not be blank when provided")
	}
	return nil
}

func (t RemoveCard) Validate() error    { return requireID("id", t.ID) }
func (t RemoveCluster) Validate() error { return requireID("id", t.ID) }

func (t SetCaption) Validate() error {
	if strings.ContainsAny(t.Text, "\r\n") {
		return invalid("caption must be a single line")
	}
	return maxRunes("text", t.Text, MaxTextLength)
}

func (t LogMessage) Validate() error {
	if t.Message == "" {
		return invalid("message is required")
	}
	return nil
}

func requireID(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return invalid(field + " is required")
	}
	return nil
}

func maxRunes(field, v string, limit int) error {
	if n := utf8.RuneCountInString(v); n > limit {
		return invalid(fmt.Sprintf("%s is %d characters, limit is %d", field, n, limit))
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidInput, msg)
}
