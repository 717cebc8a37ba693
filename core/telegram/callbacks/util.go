// Package callbacks reads callback payloads and the inline keyboards they come from.
package callbacks

import (
	tele "gopkg.in/telebot.v4"
)

// Data returns the callback payloads of every button in markup, row by row.
// URL buttons are skipped. A nil markup yields nil.
func Data(markup *tele.ReplyMarkup) []string {
	if markup == nil {
		return nil
	}
	var out []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.Data != "" {
				out = append(out, btn.Data)
			}
		}
	}
	return out
}

// Contains reports whether any button in markup carries exactly data.
func Contains(markup *tele.ReplyMarkup, data string) bool {
	if markup == nil {
		return false
	}
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			if btn.Data == data {
				return true
			}
		}
	}
	return false
}
