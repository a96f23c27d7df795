package conversation

// UI texts in English
const (
	welcomeFmt = "👋 Hi, %s! I collect feedback after your classes and pass it on to the course manager.\n\n" +
		"First, which group do you attend?"
	askStartDateText = "Great! Now send the date of your first class, e.g. 2024-09-02 or 02.09.2024."
	invalidGroupText = "Please pick one of the groups using the buttons below."
	invalidDateText  = "I could not read that date. Please use YYYY-MM-DD or DD.MM.YYYY, e.g. 2024-09-02."
	registeredFmt    = "✅ You are registered in the %s group, first class on %s.\n\n" +
		"After each class I will ask how it went. You can also write to me at any time, " +
		"every message is forwarded to the manager."
	alreadyRegisteredFmt = "Hi, %s! You are already registered. To leave feedback about a class, just send me a message."
	cancelledText        = "Registration cancelled. Send /start to begin again."
	helpText             = "I forward your feedback about classes to the course manager.\n\n" +
		"/start - register or see your registration\n" +
		"/cancel - cancel an unfinished registration\n" +
		"/help - this message\n\n" +
		"Once registered, any text you send me is treated as feedback."
	unknownCommandText = "I don't know that command. Just write your feedback as a normal message, or use /help."
	thanksText         = "Thank you for your feedback! It helps us improve the course."
	serverErrorText    = "Something went wrong on my side. Please try again later."

	feedbackForwardFmt = "📝 New feedback\n\nFrom: %s\nID: %d\nGroup: %s\n\n%s"

	// PromptText is sent by the scheduler after a class day.
	PromptText = "Hi! How did today's class go?\n\n" +
		"Please share your impressions, remarks or suggestions. Your feedback matters a lot to us!"
)

// Button labels offered during group selection.
const (
	labelWeekday = "Weekdays (Mon-Fri)"
	labelWeekend = "Weekend (Sat)"
)
