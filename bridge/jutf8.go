package bridge

import "unicode/utf8"

// DecodeJavaUTF8 converts Java's modified UTF-8 to standard UTF-8. JNI's
// GetStringUTFChars encodes NUL as the two-byte sequence 0xC0 0x80 and
// characters outside the basic multilingual plane as CESU-8 surrogate
// pairs, both of which strict UTF-8 validation rejects. Well-formed UTF-8
// passes through unchanged.
func DecodeJavaUTF8(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); {
		switch {
		case b[i] == 0xC0 && i+1 < len(b) && b[i+1] == 0x80:
			out = append(out, 0x00)
			i += 2

		case isSurrogatePair(b[i:]):
			hi := 0xD800 | rune(b[i+1]&0x0F)<<6 | rune(b[i+2]&0x3F)
			lo := 0xDC00 | rune(b[i+4]&0x0F)<<6 | rune(b[i+5]&0x3F)
			r := 0x10000 + (hi-0xD800)<<10 + (lo - 0xDC00)
			out = utf8.AppendRune(out, r)
			i += 6

		default:
			out = append(out, b[i])
			i++
		}
	}
	return out
}

// isSurrogatePair reports whether b starts with a CESU-8 encoded surrogate
// pair: a three-byte high surrogate (U+D800..U+DBFF) followed by a
// three-byte low surrogate (U+DC00..U+DFFF).
func isSurrogatePair(b []byte) bool {
	return len(b) >= 6 &&
		b[0] == 0xED && b[1]&0xF0 == 0xA0 && b[2]&0xC0 == 0x80 &&
		b[3] == 0xED && b[4]&0xF0 == 0xB0 && b[5]&0xC0 == 0x80
}
