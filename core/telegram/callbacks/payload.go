package callbacks

import (
	"strconv"
	"strings"
)

// Separator splits the fields of a callback payload.
const Separator = ":"

// PayloadParts splits data into exactly n fields. ok is false for any other count.
func PayloadParts(data string, n int) ([]string, bool) {
	if data == "" {
		return nil, false
	}
	parts := strings.Split(data, Separator)
	if len(parts) != n {
		return nil, false
	}
	return parts, true
}

// PayloadNum parses a decimal field made of ASCII digits only. Signs, spaces and
// empty strings are rejected.
func PayloadNum(s string) (int, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}
