package zmx

import "unicode/utf8"

// DecodeName produces a displayable string from a stored file name or comment.
//
// The format does not require names to be valid text, so the bytes are decoded as UTF-8
// when they are valid UTF-8 and stubbornly as Latin-1 otherwise; every byte value maps
// to the Unicode code point of the same value, so the fallback cannot fail.
func DecodeName(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	rs := make([]rune, len(b))
	for i, c := range b {
		rs[i] = rune(c)
	}
	return string(rs)
}
