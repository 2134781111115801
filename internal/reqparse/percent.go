package reqparse

// percentDecode applies the target-decoding rule: '+' becomes a
// space, a well-formed "%HH" escape becomes the byte 0xHH, and any
// other '%' sequence (not followed by two hex digits) is copied
// literally. It never errors — an invalid escape is simply left as
// the raw bytes the client sent, because this is a logging field, not
// a trust boundary the proxy acts on.
func percentDecode(src []byte) []byte {
	dst := make([]byte, 0, len(src))
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '+':
			dst = append(dst, ' ')
		case '%':
			if i+2 < len(src) {
				if h, ok := unhex2(src[i+1], src[i+2]); ok {
					dst = append(dst, h)
					i += 2
					continue
				}
			}
			dst = append(dst, '%')
		default:
			dst = append(dst, src[i])
		}
	}
	return dst
}

func unhex2(a, b byte) (byte, bool) {
	hi, ok := unhex(a)
	if !ok {
		return 0, false
	}
	lo, ok := unhex(b)
	if !ok {
		return 0, false
	}
	return hi<<4 | lo, true
}

func unhex(b byte) (byte, bool) {
	switch {
	case '0' <= b && b <= '9':
		return b - '0', true
	case 'a' <= b && b <= 'f':
		return b - 'a' + 10, true
	case 'A' <= b && b <= 'F':
		return b - 'A' + 10, true
	}
	return 0, false
}
