package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// choiceKeyboard builds a one-time reply keyboard with one button per row.
func choiceKeyboard(choices []string) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(choices))
	for _, c := range choices {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(c)))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}

// botCommands is the menu published with setMyCommands.
func botCommands() []tgbotapi.BotCommand {
	return []tgbotapi.BotCommand{
		{Command: "start", Description: "Register or show your registration"},
		{Command: "help", Description: "How this bot works"},
		{Command: "cancel", Description: "Cancel an unfinished registration"},
	}
}
