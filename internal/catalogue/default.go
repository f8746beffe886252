package catalogue

// Default returns the compiled-in catalogue. Keyword lists are kept short
// and canonical; the synonym table carries the surface variants so that a
// single-keyword turn still clears the confidence thresholds.
func Default() *Catalogue {
	cat, err := New(defaultIntents(), defaultSynonyms(), defaultLemmas())
	if err != nil {
		// The built-in tables are validated by tests; a failure here is a
		// programming error, not a runtime condition.
		panic(err)
	}
	return cat
}

func defaultIntents() []IntentSpec {
	return []IntentSpec{
		{
			Name:         "password_reset",
			Keywords:     []string{"password", "forget", "reset"},
			RequiredSlot: SlotEmail,
			Prompt:       "No problem! Please share the email on your account and I'll send over a reset link.",
			PromptState:  "collecting_info",
			Resolution:   "Done! A password reset link is on its way to {value}. It should arrive within a few minutes.",
			Flow:         true,
		},
		{
			Name:         "order_tracking",
			Keywords:     []string{"track", "order", "delivery"},
			RequiredSlot: SlotOrderID,
			Prompt:       "Sure! Please provide your order number and I'll check its status right away.",
			PromptState:  "collecting_info",
			Resolution:   "Thanks! I'm pulling up the latest tracking details for order {value} now.",
			Flow:         true,
		},
		{
			Name:        "technical_support",
			Keywords:    []string{"error", "broken"},
			Prompt:      "I'm here to help! Can you describe what's going wrong in a bit more detail?",
			PromptState: "collecting_info",
			Flow:        true,
		},
		{
			Name:         "refund_request",
			Keywords:     []string{"refund", "cancellation"},
			RequiredSlot: SlotOrderID,
			Prompt:       "I understand. Could you give me the order ID so I can start the refund?",
			PromptState:  "collecting_info",
			Resolution:   "Got it. I've started the refund for order {value}; you'll see a confirmation email shortly.",
			Flow:         true,
		},
		{
			Name:         "account_update",
			Keywords:     []string{"update", "account"},
			RequiredSlot: SlotPhone,
			Prompt:       "Which part of your account would you like to update: email, phone, or address?",
			PromptState:  "collecting_info",
			Resolution:   "All set! The phone number on your account is now {value}.",
			Flow:         true,
		},
		{
			Name:        "product_info",
			Keywords:    []string{"product", "spec"},
			Prompt:      "Happy to help! Which product would you like to know more about?",
			PromptState: "collecting_info",
			Flow:        true,
		},
		{
			Name:        "greeting",
			Keywords:    []string{"hello"},
			Prompt:      "Hey there! How can I help you today?",
			PromptState: "initial",
		},
		{
			Name:        "goodbye",
			Keywords:    []string{"goodbye", "thank"},
			Prompt:      "You're most welcome! Have a great day ahead!",
			PromptState: "resolved",
		},
	}
}

func defaultSynonyms() []Synonym {
	// Multi-word surfaces come first so single-word entries cannot mask them.
	return []Synonym{
		{Surface: "where is my order", Canonical: "track order"},
		{Surface: "cancel my order", Canonical: "cancellation"},
		{Surface: "cancel order", Canonical: "cancellation"},
		{Surface: "money back", Canonical: "refund"},
		{Surface: "not working", Canonical: "broken"},
		{Surface: "stopped working", Canonical: "broken"},
		{Surface: "good morning", Canonical: "hello"},
		{Surface: "good afternoon", Canonical: "hello"},
		{Surface: "good evening", Canonical: "hello"},
		{Surface: "thank you", Canonical: "thanks"},
		{Surface: "see you", Canonical: "goodbye"},
		{Surface: "log in", Canonical: "login"},
		{Surface: "hi", Canonical: "hello"},
		{Surface: "hey", Canonical: "hello"},
		{Surface: "howdy", Canonical: "hello"},
		{Surface: "bye", Canonical: "goodbye"},
		{Surface: "shipping", Canonical: "delivery"},
		{Surface: "shipment", Canonical: "delivery"},
		{Surface: "status", Canonical: "track"},
		{Surface: "bug", Canonical: "error"},
		{Surface: "crash", Canonical: "error"},
		{Surface: "crashed", Canonical: "error"},
		{Surface: "crashes", Canonical: "error"},
		{Surface: "glitch", Canonical: "error"},
		{Surface: "issue", Canonical: "broken"},
		{Surface: "problem", Canonical: "broken"},
		{Surface: "return", Canonical: "refund"},
		{Surface: "reimbursement", Canonical: "refund"},
		{Surface: "cancel", Canonical: "cancellation"},
		{Surface: "profile", Canonical: "account"},
		{Surface: "edit", Canonical: "update"},
		{Surface: "modify", Canonical: "update"},
		{Surface: "change", Canonical: "update"},
		{Surface: "details", Canonical: "spec"},
		{Surface: "specs", Canonical: "spec"},
		{Surface: "information", Canonical: "spec"},
		{Surface: "login", Canonical: "password"},
	}
}

func defaultLemmas() map[string]string {
	return map[string]string{
		"forgot":     "forget",
		"forgotten":  "forget",
		"forgetting": "forget",
		"resetting":  "reset",
		"tracking":   "track",
		"tracked":    "track",
		"ordered":    "order",
		"updated":    "update",
		"updating":   "update",
		"cancelled":  "cancellation",
		"canceled":   "cancellation",
		"refunded":   "refund",
		"delivered":  "delivery",
		"delivering": "delivery",
		"thanks":     "thank",
	}
}
