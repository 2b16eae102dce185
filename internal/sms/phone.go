package sms

import (
	"fmt"
	"regexp"
)

// rwandaE164 matches a fully normalized Rwandan mobile number. Only the
// MTN/Airtel prefixes 072/073/078/079 are routable through the gateway.
var rwandaE164 = regexp.MustCompile(`^\+2507[2389]\d{7}$`)

var (
	rwandaWithCountry = regexp.MustCompile(`^2507[2389]\d{7}$`)
	rwandaLocalZero   = regexp.MustCompile(`^07[2389]\d{7}$`)
	rwandaLocalBare   = regexp.MustCompile(`^7[2389]\d{7}$`)
)

// IsValidRwandaE164 reports whether phone is already in the normalized
// +250XXXXXXXXX form the gateway accepts.
func IsValidRwandaE164(phone string) bool {
	return rwandaE164.MatchString(phone)
}

// ValidateRwandaPhone normalizes a Rwandan mobile number into E.164.
// Accepted inputs: 250XXXXXXXXX (12 digits), 07XXXXXXXX (10 digits with
// leading zero) and 7XXXXXXXX (9 digits without it).
func ValidateRwandaPhone(phone string) (string, error) {
	switch {
	case rwandaE164.MatchString(phone):
		return phone, nil
	case rwandaWithCountry.MatchString(phone):
		return "+" + phone, nil
	case rwandaLocalZero.MatchString(phone):
		return "+250" + phone[1:], nil
	case rwandaLocalBare.MatchString(phone):
		return "+250" + phone, nil
	default:
		return "", fmt.Errorf("not a valid Rwandan mobile number: %q (expected 2507XXXXXXXX, 07XXXXXXXX or 7XXXXXXXX with prefix 2/3/8/9)", phone)
	}
}
