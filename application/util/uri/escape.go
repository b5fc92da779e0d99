package uri

import "strings"

func unhex(h [2]byte) (c byte) {
	return (hexToNum(h[0]) << 4) | hexToNum(h[1])
}

func hexToNum(h byte) byte {
	switch {
	case '0' <= h && h <= '9':
		return h - '0'
	case 'a' <= h && h <= 'f':
		return h - 'a' + 10
	case 'A' <= h && h <= 'F':
		return h - 'A' + 10
	}
	return 0
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	return len(s) == 3 && s[0] == '%' && isHex(s[1]) && isHex(s[2])
}

// PercentDecode replaces every "%XX" triplet with the byte it encodes.
// Sequences that are not a valid triplet are kept as they are.
func PercentDecode(s string) string {
	if !strings.Contains(s, "%") {
		return s
	}

	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '%' && idx+3 <= len(s) && isPercentEncoded(s[idx:idx+3]) {
			b.WriteByte(unhex([2]byte{s[idx+1], s[idx+2]}))
			idx += 2
			continue
		}
		b.WriteByte(c)
	}

	return b.String()
}
