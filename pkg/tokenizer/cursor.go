package tokenizer

// cursor walks a byte slice and allows rewinding, which the tokenizer needs
// when a lookahead turns out not to belong to the current token.
type cursor struct {
	buf []byte
	pos int
}

func newCursor(b []byte) *cursor {
	return &cursor{buf: b}
}

// eof is returned by peek and advance past the end of input.
const eof = -1

func (c *cursor) peek() int {
	if c.pos >= len(c.buf) {
		return eof
	}
	return int(c.buf[c.pos])
}

// peekN returns up to n bytes without consuming them.
func (c *cursor) peekN(n int) []byte {
	end := c.pos + n
	if end > len(c.buf) {
		end = len(c.buf)
	}
	return c.buf[c.pos:end]
}

func (c *cursor) advance() int {
	ch := c.peek()
	if ch != eof {
		c.pos++
	}
	return ch
}

func (c *cursor) rewind(n int) {
	c.pos -= n
	if c.pos < 0 {
		c.pos = 0
	}
}

func (c *cursor) skip(n int) {
	c.pos += n
	if c.pos > len(c.buf) {
		c.pos = len(c.buf)
	}
}

func (c *cursor) atEnd() bool {
	return c.pos >= len(c.buf)
}

// readWhile consumes bytes for which take returns true.
func (c *cursor) readWhile(take func(byte) bool) []byte {
	start := c.pos
	for c.pos < len(c.buf) && take(c.buf[c.pos]) {
		c.pos++
	}
	return c.buf[start:c.pos]
}

// readUntil consumes bytes up to, not including, any of the stop bytes.
func (c *cursor) readUntil(stops ...byte) []byte {
	start := c.pos
	for c.pos < len(c.buf) && !contains(stops, c.buf[c.pos]) {
		c.pos++
	}
	return c.buf[start:c.pos]
}

func contains(set []byte, b byte) bool {
	for _, s := range set {
		if s == b {
			return true
		}
	}
	return false
}

func isWhitespace(b byte) bool { return b == ' ' || b == '\t' || b == '\n' }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isLetter(b byte) bool { return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'A' && b <= 'F') || (b >= 'a' && b <= 'f')
}

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }

// isNameChar reports whether b may continue an identifier.
func isNameChar(b byte) bool { return isLetter(b) || isDigit(b) || b == '.' }

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}
