package engine

import "fmt"

// Style maps onto the platform's button styles.
type Style uint8

const (
	StylePrimary   Style = iota + 1 // blurple
	StyleSecondary                  // grey
	StyleAccept                     // green
	StyleDeny                       // red
)

// MaxRowButtons is the platform's ceiling on buttons per row.
const MaxRowButtons = 5

// Button is one labeled control. ID carries the interaction key.
type Button struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Style    Style  `json:"style"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Row is a horizontal group of up to MaxRowButtons buttons.
type Row struct {
	Buttons []Button `json:"buttons"`
}

// Message is a rendered game: shared text content plus button rows.
type Message struct {
	Content string `json:"content"`
	Rows    []Row  `json:"rows,omitempty"`
}

// Btn builds an enabled button.
func Btn(id, label string, style Style) Button {
	return Button{ID: id, Label: label, Style: style}
}

// Off returns a disabled copy of the button.
func (b Button) Off() Button {
	b.Disabled = true
	return b
}

// OffIf returns the button, disabled when cond holds.
func (b Button) OffIf(cond bool) Button {
	b.Disabled = b.Disabled || cond
	return b
}

// NewRow groups buttons into a row. Engines keep rows within MaxRowButtons
// by construction; Validate catches violations in tests.
func NewRow(buttons ...Button) Row {
	return Row{Buttons: buttons}
}

// Validate checks the platform limits: row width and identifier length.
func (m Message) Validate() error {
	for i, row := range m.Rows {
		if len(row.Buttons) == 0 {
			return fmt.Errorf("row %d is empty", i)
		}
		if len(row.Buttons) > MaxRowButtons {
			return fmt.Errorf("row %d has %d buttons, max %d", i, len(row.Buttons), MaxRowButtons)
		}
		for j, b := range row.Buttons {
			if b.ID == "" {
				return fmt.Errorf("row %d button %d has empty id", i, j)
			}
			if len(b.ID) > MaxKeyLen {
				return fmt.Errorf("row %d button %d id is %d chars, max %d", i, j, len(b.ID), MaxKeyLen)
			}
		}
	}
	return nil
}

// Mention renders a user reference the way the chat surface expects it.
func Mention(u UserID) string {
	return "<@" + string(u) + ">"
}
