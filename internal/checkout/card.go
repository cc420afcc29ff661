package checkout

import (
	"strings"

	"GlobalStore/internal/order"
	"GlobalStore/internal/validation"
)

func ValidCardNumber(number string) bool { return validation.Luhn(number) }

// CardType guesses the network from the first digit.
func CardType(number string) order.CardType {
	d := validation.Digits(number)
	switch {
	case strings.HasPrefix(d, "4"):
		return order.CardVisa
	case strings.HasPrefix(d, "5"), strings.HasPrefix(d, "2"):
		return order.CardMastercard
	case strings.HasPrefix(d, "3"):
		return order.CardAmex
	}
	return order.CardOther
}

// FormatCardNumber groups digits in fours: "4532 0151 1283 0366".
func FormatCardNumber(number string) string {
	d := validation.Digits(number)
	groups := make([]string, 0, len(d)/4+1)
	for len(d) > 4 {
		groups = append(groups, d[:4])
		d = d[4:]
	}
	if d != "" {
		groups = append(groups, d)
	}
	return strings.Join(groups, " ")
}

// FormatExpiry turns typed digits into MM/YY as the user types.
func FormatExpiry(s string) string {
	d := validation.Digits(s)
	if len(d) < 2 {
		return d
	}
	return d[:2] + "/" + d[2:min(len(d), 4)]
}

// MaskCardNumber hides all but the last four digits.
func MaskCardNumber(number string) string {
	d := validation.Digits(number)
	if len(d) <= 4 {
		return d
	}
	masked := strings.Repeat("*", len(d)-4) + d[len(d)-4:]
	return FormatCardNumber(masked)
}

func last4(number string) string {
	d := validation.Digits(number)
	if len(d) <= 4 {
		return d
	}
	return d[len(d)-4:]
}
