// Package access holds the phone/access-code table that gates the chat.
package access

import "strings"

// InvalidMessage is shown for any rejected pair. It does not say which half
// was wrong.
const InvalidMessage = "Invalid phone number or access code. Please try again."

// Entry pairs a phone number with the code that unlocks the chat for it.
type Entry struct {
	Phone string `yaml:"phone"`
	Code  string `yaml:"code"`
}

// Seed returns the demo entries shipped with the widget.
func Seed() []Entry {
	return []Entry{
		{Phone: "1234567890", Code: "DEMO123"},
		{Phone: "9876543210", Code: "TEST456"},
		{Phone: "5555555555", Code: "PASS123"},
		{Phone: "1111111111", Code: "DEMO999"},
		{Phone: "9999999999", Code: "ACCESS"},
	}
}

// NormalizePhone strips every non-digit rune.
func NormalizePhone(phone string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
}

// Gate verifies phone/code pairs against a fixed table.
type Gate struct {
	codes map[string]string
}

// NewGate indexes entries by normalized phone. Later duplicates win.
func NewGate(entries []Entry) *Gate {
	codes := make(map[string]string, len(entries))
	for _, entry := range entries {
		phone := NormalizePhone(entry.Phone)
		if phone == "" {
			continue
		}
		codes[phone] = entry.Code
	}
	return &Gate{codes: codes}
}

// Verify reports whether code unlocks phone. Unknown phones and wrong codes are
// indistinguishable to the caller.
func (g *Gate) Verify(phone, code string) bool {
	stored, ok := g.codes[NormalizePhone(phone)]
	if !ok || stored == "" {
		return false
	}
	return strings.EqualFold(stored, code)
}

// Len returns the number of distinct phones in the table.
func (g *Gate) Len() int {
	return len(g.codes)
}

// ValidateInput returns the message shown for a missing phone or code, or ""
// when both are present.
func ValidateInput(phone, code string) string {
	switch {
	case strings.TrimSpace(phone) == "":
		return "Please enter your phone number"
	case strings.TrimSpace(code) == "":
		return "Please enter your access code"
	default:
		return ""
	}
}
