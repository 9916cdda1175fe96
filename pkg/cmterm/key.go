package cmterm

import "unicode/utf8"

// KeyType identifies the class of a decoded keystroke. The dashboard only
// needs three: printable characters, the acknowledgement key and backspace.
type KeyType int

const (
	KeyRune KeyType = iota
	KeyEnter
	KeyBackspace
)

// Key is one decoded keystroke as fanned out to every Input.
type Key struct {
	Type KeyType
	Rune rune
}

// parseKeys decodes a chunk of raw terminal bytes into keys. Escape
// sequences (cursor keys and the like) are consumed and discarded: the input
// protocol has no use for them. A sequence truncated at the end of the chunk
// is discarded along with the remainder.
func parseKeys(buf []byte) []Key {
	keys := make([]Key, 0, len(buf))
	for i := 0; i < len(buf); {
		b := buf[i]
		switch {
		case b == '\r' || b == '\n':
			keys = append(keys, Key{Type: KeyEnter})
			i++
		case b == 0x7f || b == 0x08:
			keys = append(keys, Key{Type: KeyBackspace})
			i++
		case b == 0x1b:
			i += escapeLen(buf[i:])
		case b < 0x20:
			// Other control bytes carry no meaning here.
			i++
		default:
			r, size := utf8.DecodeRune(buf[i:])
			if r == utf8.RuneError && size == 1 {
				i++
				continue
			}
			keys = append(keys, Key{Type: KeyRune, Rune: r})
			i += size
		}
	}
	return keys
}

// escapeLen returns how many bytes of buf (starting at ESC) belong to the
// escape sequence. CSI and SS3 sequences run until a final byte in 0x40-0x7e;
// a bare or trailing ESC swallows the rest of the chunk.
func escapeLen(buf []byte) int {
	if len(buf) < 2 {
		return len(buf)
	}
	switch buf[1] {
	case '[', 'O':
		for i := 2; i < len(buf); i++ {
			if buf[i] >= 0x40 && buf[i] <= 0x7e {
				return i + 1
			}
		}
		return len(buf)
	default:
		// Alt-modified key: ESC plus one byte.
		return 2
	}
}
