package adapter

import (
	tele "gopkg.in/telebot.v4"

	"github.com/ranggaxyy/deplot-bot/core/telegram/keyboard"
	"github.com/ranggaxyy/deplot-bot/internal/conversation"
)

var (
	helpButton  = keyboard.InlineBtn{Text: "❓ Bantuan", Unique: conversation.TagHelp}
	statsButton = keyboard.InlineBtn{Text: "📊 Statistik", Unique: conversation.TagStats}
	menuButton  = keyboard.InlineBtn{Text: "🏠 Menu", Unique: conversation.TagMenu}
)

// Keyboard resolves an engine hint to an inline markup, nil for KeyboardNone.
func (a *Adapter) Keyboard(hint conversation.KeyboardHint) *tele.ReplyMarkup {
	switch hint {
	case conversation.KeyboardMainMenu:
		rows := keyboard.Chunk(a.menu, 2)
		rows = append(rows, []keyboard.InlineBtn{helpButton, statsButton})
		return keyboard.InlineButtonsRows(rows...)
	case conversation.KeyboardBackToMenu:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{menuButton})
	case conversation.KeyboardGenderChoice:
		return keyboard.InlineButtonsRows([]keyboard.InlineBtn{
			{Text: "👨 Laki-laki", Unique: conversation.TagGender, Data: "male"},
			{Text: "👩 Perempuan", Unique: conversation.TagGender, Data: "female"},
		})
	}
	return nil
}

// CategoryButton builds a main menu entry that starts a game in category.
func CategoryButton(label, category string) keyboard.InlineBtn {
	return keyboard.InlineBtn{Text: label, Unique: conversation.TagCategory, Data: category}
}
