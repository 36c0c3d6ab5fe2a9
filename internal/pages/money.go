package pages

import (
	"fmt"
	"strconv"
	"strings"
)

// stripLabel drops a "Label: " prefix, keeping the value and its currency
// sign.
func stripLabel(text string) string {
	if i := strings.LastIndex(text, ":"); i >= 0 {
		text = text[i+1:]
	}
	return strings.TrimSpace(text)
}

// ParsePrice converts a displayed amount such as "$29.99" or
// "Total: $32.39" to cents.
func ParsePrice(text string) (int64, error) {
	s := strings.TrimPrefix(stripLabel(text), "$")
	whole, frac, hasFrac := strings.Cut(s, ".")
	// ParseInt takes a sign, a displayed price never has one.
	if !digits(whole) || (hasFrac && !digits(frac)) {
		return 0, fmt.Errorf("invalid price %q", text)
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q", text)
	}
	var cents int64
	if hasFrac {
		if len(frac) == 0 || len(frac) > 2 {
			return 0, fmt.Errorf("invalid price %q", text)
		}
		if len(frac) == 1 {
			frac += "0"
		}
		c, err := strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid price %q", text)
		}
		cents = c
	}
	return dollars*100 + cents, nil
}

// digits reports whether s is non-empty and holds only ASCII digits.
func digits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
