package membership

import "strings"

// FormatPhoneNumber renders a 10 digit number as "(XXX) XXX-XXXX".
// Any other input, including numbers with a country code, is returned as-is.
func FormatPhoneNumber(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if len(d) != 10 {
		return phone
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}
