// Package normalizers provides field normalization functions for canonicalizing
// raw extract values
package normalizers

import (
	"strings"
	"unicode"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// registry holds all registered normalizers
var registry = make(map[string]Normalizer)

func init() {
	// Register built-in normalizers
	Register("lowercase", Lowercase)
	Register("uppercase", Uppercase)
	Register("trim", Trim)
	Register("digits_only", DigitsOnly)
	Register("remove_whitespace", RemoveWhitespace)
	Register("nregion", NormalizeRegion)
	Register("nname", NormalizeName)
}

// Register adds a normalizer to the registry
func Register(name string, fn Normalizer) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Normalizer, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// Built-in normalizers

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Uppercase converts string to uppercase
func Uppercase(s string) string {
	return strings.ToUpper(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// RemoveWhitespace removes all whitespace characters
func RemoveWhitespace(s string) string {
	var result strings.Builder
	for _, r := range s {
		if !unicode.IsSpace(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizeRegion canonicalizes a region/geography code (trim, uppercase)
func NormalizeRegion(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeName collapses internal whitespace and trims a display name
func NormalizeName(s string) string {
	var result strings.Builder
	prevSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !prevSpace {
				result.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		result.WriteRune(r)
		prevSpace = false
	}
	return result.String()
}

// CanonicalPhoneDigits is the fixed width of a canonical phone value.
const CanonicalPhoneDigits = 10

// CanonicalPhone strips all non-digit characters and keeps the last 10 digits.
// Country codes and formatting are discarded deliberately; the last-10-digit
// form is the dedup proxy for a customer's contact channel. Returns ok=false
// when fewer than 10 digits remain.
func CanonicalPhone(s string) (string, bool) {
	digits := DigitsOnly(s)
	if len(digits) < CanonicalPhoneDigits {
		return "", false
	}
	return digits[len(digits)-CanonicalPhoneDigits:], true
}
