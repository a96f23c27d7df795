package domain

// Outbound is a text message the bot wants delivered to a chat.
type Outbound struct {
	ChatID int64
	Text   string
	// Choices, when non-empty, are offered as a one-time reply keyboard (one button per row).
	Choices []string
	// RemoveKeyboard hides a previously shown reply keyboard.
	RemoveKeyboard bool
}

// Text builds a plain outbound message.
func Text(chatID int64, text string) Outbound {
	return Outbound{ChatID: chatID, Text: text}
}
