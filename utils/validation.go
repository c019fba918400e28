package utils

import (
	"regexp"
	"strings"
)

var (
	validEmailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	validPhoneRegex = regexp.MustCompile(`^\+\d{1,3}\d{10}$`)
)

// IsValidEmail accepts anything shaped like local@domain.tld.
func IsValidEmail(email string) bool {
	return validEmailRegex.MatchString(email)
}

// IsValidPhone accepts "+" followed by a 1-3 digit country code and a
// 10 digit number, e.g. +5511987654321.
func IsValidPhone(phone string) bool {
	return validPhoneRegex.MatchString(phone)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
