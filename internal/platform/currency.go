package platform

import "strings"

// currencyPrefixes maps display-price lead-ins to ISO 4217 codes. Order
// matters: "US$" must match before the bare "$", and the bare "$" sits
// last because every other symbol is more specific. The CJK yen sign maps
// to CNY, not JPY; these are China-side B2B marketplaces.
var currencyPrefixes = []struct {
	prefix string
	code   string
}{
	{"US$", "USD"},
	{"US $", "USD"},
	{"USD", "USD"},
	{"CN¥", "CNY"},
	{"RMB", "CNY"},
	{"¥", "CNY"},
	{"￥", "CNY"},
	{"€", "EUR"},
	{"EUR", "EUR"},
	{"£", "GBP"},
	{"GBP", "GBP"},
	{"₹", "INR"},
	{"INR", "INR"},
	{"$", "USD"},
}

// DetectCurrency inspects a display price like "US$12.50-18.00 / piece"
// and returns the ISO code it starts with, or nil when no known symbol is
// present. The display string is never modified; callers keep showing the
// original text.
func DetectCurrency(display string) *string {
	s := strings.TrimSpace(display)
	if s == "" {
		return nil
	}
	for _, c := range currencyPrefixes {
		if strings.HasPrefix(s, c.prefix) {
			code := c.code
			return &code
		}
	}
	return nil
}
