package utils

import "unicode/utf8"

// IsBinary reports whether the provided byte slice appears to contain binary data.
func IsBinary(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	if !utf8.Valid(data) {
		return true
	}
	for _, byteValue := range data {
		if byteValue == 0 {
			return true
		}
	}
	return false
}

// IsText reports whether data can be treated as UTF-8 text. Empty input is text.
func IsText(data []byte) bool {
	return !IsBinary(data)
}
