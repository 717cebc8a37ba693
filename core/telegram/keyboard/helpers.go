// Package keyboard builds inline keyboards from plain button descriptions.
package keyboard

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// NBSP is the no-break space used to widen button labels.
const NBSP = "\u00a0"

// InlineBtn describes one inline button. Exactly one of Data and URL is expected.
type InlineBtn struct {
	Text string
	Data string
	URL  string
}

// Callback returns a button whose payload is data, sent verbatim.
func Callback(text, data string) InlineBtn {
	return InlineBtn{Text: text, Data: data}
}

// Link returns a button that opens url.
func Link(text, url string) InlineBtn {
	return InlineBtn{Text: text, URL: url}
}

// Pad surrounds text with no-break spaces so buttons render with a similar width.
func Pad(text string, left, right int) string {
	return strings.Repeat(NBSP, max(left, 0)) + text + strings.Repeat(NBSP, max(right, 0))
}

// InlineButtons builds an inline keyboard where each provided button is placed on its own row.
func InlineButtons(buttons []InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn. Empty rows are dropped.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	inline := make([][]tele.InlineButton, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			// Unique stays empty so telebot keeps Data as the raw callback_data.
			r[j] = tele.InlineButton{Text: btn.Text, Data: btn.Data, URL: btn.URL}
		}
		inline = append(inline, r)
	}
	return &tele.ReplyMarkup{InlineKeyboard: inline}
}

// InlineButtonsNPerRow splits a flat list of buttons into rows with up to n buttons per row.
// If n <= 1, it behaves like InlineButtons (one per row).
func InlineButtonsNPerRow(buttons []InlineBtn, n int) *tele.ReplyMarkup {
	return InlineButtonsRows(ChunkButtons(buttons, n)...)
}

// ChunkButtons splits a flat list of buttons into rows with up to n buttons per row.
func ChunkButtons(buttons []InlineBtn, n int) [][]InlineBtn {
	if n <= 1 {
		n = 1
	}
	rows := make([][]InlineBtn, 0, (len(buttons)+n-1)/n)
	for i := 0; i < len(buttons); i += n {
		end := min(i+n, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return rows
}
