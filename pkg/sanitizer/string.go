package sanitizer

import "strings"

// TrimAndNormalize trims s and collapses every inner whitespace run to a
// single space.
func TrimAndNormalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func NormalizeItemName(name string) string {
	return TrimAndNormalize(name)
}

// NormalizeIdentity lowercases an email identity. Inner whitespace is
// dropped rather than collapsed since it can never be part of an address.
func NormalizeIdentity(identity string) string {
	return strings.ToLower(strings.Join(strings.Fields(identity), ""))
}
