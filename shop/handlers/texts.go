package handlers

import (
	"fmt"

	"github.com/m3rciful/skinshop/core/telegram/format"
)

const (
	textCategories     = "Here are all categories"
	textSubCategories  = "Here are all items in category"
	textSkinTypes      = "Choose a type of skin"
	textPaymentMethods = "Choose payment method"
	textUnavailable    = "This item has no price right now. Please choose another one."
	textThanks         = "Thank you for your order. You will get instructions on your email."
	textFailure        = "An error occurred while processing your request. Please try again later."
	textUnknown        = "I did not get that. Use /shop to open the catalog or /help to reach us."
	textAdminStarted   = "Bot started"
)

const (
	btnBack  = "↩️ Back"
	btnBuy   = "🛒 Buy"
	btnLeft  = "⬅️"
	btnRight = "➡️"
	btnPad   = " "
)

const (
	defaultInvoiceDescription = "good choice"
	defaultStartParameter     = "testing_bot"
)

func startText(name string) string {
	return fmt.Sprintf(`Hello %s 👋
🤖 Welcome to the skin shop bot.
🛍️ Use /shop command to go to the catalog.
💰 Payment methods: PayMaster and Sber.
❓ Something went wrong? Type /help and admins solve ur problem`, name)
}

func helpText(firstName, support string) string {
	greeting := "Hey, you need help?"
	if firstName != "" {
		greeting = fmt.Sprintf("Hey %s, you need help?", format.Escape(firstName))
	}
	var contact string
	if support != "" {
		contact = "Write to " + format.Bold(support) + " and describe your problem."
	}
	return format.Lines(greeting, contact)
}
