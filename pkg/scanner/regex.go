package scanner

import "regexp"

var (
	identRegex = regexp.MustCompile(`^[A-Za-z0-9_]+`)
	digitRegex = regexp.MustCompile(`^[0-9]+`)
)

// Check if a byte is a digit
func IsDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Check if a byte can start an identifier reference
func IsIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

// Check if a byte is insignificant whitespace
func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}
