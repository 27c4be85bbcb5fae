// Package tokenizer converts between GW-BASIC program text and the tokenized
// line format stored in program memory and binary program files.
package tokenizer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
	"strings"

	"github.com/antibyte/gwbasic/pkg/basicerr"
	"github.com/antibyte/gwbasic/pkg/logger"
	"github.com/antibyte/gwbasic/pkg/mbf"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

// MaxLineNumber is the largest line number a program line may carry. Longer
// digit runs keep their first four digits and the rest is read as code.
const MaxLineNumber = 65529

// linePointerMark fills the pointer field of a freshly tokenized line until
// the program store patches it.
var linePointerMark = []byte{0xc0, 0xde}

// Tokenizer converts between text and tokens for one keyword table.
type Tokenizer struct {
	table *tokens.KeywordTable
}

// New returns a tokenizer for the given keyword table.
func New(table *tokens.KeywordTable) *Tokenizer {
	return &Tokenizer{table: table}
}

// Table returns the keyword table in use.
func (t *Tokenizer) Table() *tokens.KeywordTable {
	return t.table
}

func tokenizerDebugLog(format string, args ...interface{}) {
	logger.Debug(logger.AreaTokenizer, format, args...)
}

// Tokenize converts one line of program text. A numbered line becomes
//
//	00 C0 DE <line lo> <line hi> <statements> 00
//
// and an unnumbered (direct mode) line becomes ':' <statements> 00. An empty
// or blank line yields an empty slice.
func (t *Tokenizer) Tokenize(line string) ([]byte, error) {
	c := newCursor([]byte(line))
	c.readWhile(isWhitespace)
	if c.atEnd() {
		return []byte{}, nil
	}

	var out bytes.Buffer
	lineNumber, numbered := readLineNumber(c)
	if numbered {
		out.WriteByte(0x00)
		out.Write(linePointerMark)
		writeUint16(&out, lineNumber)
		// one space after the line number belongs to the header, except after 0
		if c.peek() == ' ' && lineNumber != 0 {
			c.advance()
		}
	} else {
		out.WriteByte(':')
	}

	if err := t.tokenizeStatements(c, &out); err != nil {
		if numbered {
			return nil, basicerr.InLine(err, lineNumber)
		}
		return nil, err
	}
	out.WriteByte(0x00)

	tokenizerDebugLog("[TOKENIZE] %q -> % x", line, out.Bytes())
	return out.Bytes(), nil
}

func (t *Tokenizer) tokenizeStatements(c *cursor, out *bytes.Buffer) error {
	allowJump := false
	allowNumber := true
	pendingBracket := false

	for {
		ch := c.peek()
		if ch == eof || ch == 0x00 || ch == '\r' {
			return nil
		}
		b := byte(ch)

		switch {
		case isWhitespace(b):
			out.WriteByte(byte(c.advance()))

		case b == '"':
			out.Write(readStringLiteral(c))

		case allowJump && allowNumber && (isDigit(b) || b == '.'):
			if n, ok := readLineNumber(c); ok {
				out.WriteByte(tokens.LineNumber)
				writeUint16(out, n)
			} else {
				c.advance()
				out.WriteByte('.')
			}

		case b == '&' || b == '.' || (allowNumber && !allowJump && isDigit(b)):
			num, err := readNumber(c)
			if err != nil {
				return err
			}
			out.Write(num)

		case isOperatorChar(b):
			c.advance()
			op, _ := tokens.OperatorFor(b)
			out.Write(op.Bytes())
			// operators keep the line number mode, as in LIST 100-200
			allowNumber = true

		case b == '\'':
			c.advance()
			out.WriteByte(':')
			out.Write(tokens.REM.Bytes())
			out.Write(tokens.REMTick.Bytes())
			out.Write(c.readUntil('\r', 0x00))

		case b == '?':
			c.advance()
			out.Write(tokens.PRINT.Bytes())
			allowJump = false
			allowNumber = true

		case isLetter(b):
			word, tok, isKeyword := t.readWord(c)
			if !isKeyword {
				out.WriteString(word)
				allowJump = false
				allowNumber = false
				break
			}
			switch tok {
			case tokens.ELSE:
				out.WriteByte(':')
				out.Write(tok.Bytes())
			case tokens.WHILE:
				out.Write(tok.Bytes())
				out.Write(tokens.Plus.Bytes())
			default:
				out.Write(tok.Bytes())
			}
			switch tok {
			case tokens.REM:
				out.Write(c.readUntil('\r', 0x00))
			case tokens.DATA:
				out.Write(readData(c))
			default:
				allowJump = tokens.TakesLineNumber(tok)
				allowNumber = true
				if tokens.HasBracket(tok) {
					pendingBracket = true
				}
			}

		default:
			c.advance()
			switch {
			case b == ',' || b == '#' || b == ';':
				allowNumber = true
			case b == '(' || b == '[':
				allowJump = false
				allowNumber = true
			case b == ')' && pendingBracket:
				pendingBracket = false
				allowJump = false
				allowNumber = true
			default:
				allowJump = false
				allowNumber = false
			}
			if b >= 32 && b <= 127 {
				out.WriteByte(b)
			} else {
				out.WriteByte(' ')
			}
		}
	}
}

func isOperatorChar(b byte) bool {
	_, ok := tokens.OperatorFor(b)
	return ok
}

func writeUint16(out *bytes.Buffer, v int) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], uint16(v))
	out.Write(b[:])
}

// readLineNumber reads digits that may be broken up by whitespace. Trailing
// whitespace is left unread.
func readLineNumber(c *cursor) (int, bool) {
	start := c.pos
	end := start
	var digits []byte
	for !c.atEnd() {
		b := c.buf[c.pos]
		if isDigit(b) {
			digits = append(digits, b)
			c.pos++
			end = c.pos
		} else if isWhitespace(b) {
			c.pos++
		} else {
			break
		}
	}
	c.pos = end
	if len(digits) == 0 {
		return 0, false
	}

	if len(digits) > 5 || atoi(digits) > MaxLineNumber {
		// keep the first four digits, the rest is read again as code
		c.pos = start
		for n := 0; n < 4; {
			if isDigit(byte(c.advance())) {
				n++
			}
		}
		digits = digits[:4]
	}
	return atoi(digits), true
}

func atoi(digits []byte) int {
	n := 0
	for _, d := range digits {
		n = n*10 + int(d-'0')
	}
	return n
}

// readStringLiteral copies a quoted string up to the closing quote or the end
// of the line.
func readStringLiteral(c *cursor) []byte {
	start := c.pos
	c.advance()
	c.readUntil('\r', 0x00, '"')
	if c.peek() == '"' {
		c.advance()
	}
	return c.buf[start:c.pos]
}

// readData copies DATA items verbatim up to the end of the statement.
// Colons inside string literals do not end the statement.
func readData(c *cursor) []byte {
	var out []byte
	for {
		out = append(out, c.readUntil('\r', 0x00, ':', '"')...)
		if c.peek() != '"' {
			return out
		}
		out = append(out, readStringLiteral(c)...)
	}
}

// readWord reads a keyword or identifier, upper-casing it.
func (t *Tokenizer) readWord(c *cursor) (string, tokens.Token, bool) {
	var word []byte
	for {
		ch := c.advance()
		if ch == eof {
			return string(word), 0, false
		}
		word = append(word, upper(byte(ch)))

		if string(word) == "GO" {
			word = coalesceGo(c, word)
		}

		if tok, ok := t.table.Token(string(word)); ok {
			next := c.peek()
			// a keyword glued to more name characters is part of a longer name
			if tokens.IsAlwaysRecognized(string(word)) || next == eof || !isNameChar(byte(next)) {
				return string(word), tok, true
			}
			continue
		}

		if !isNameChar(byte(ch)) {
			c.rewind(1)
			return string(word[:len(word)-1]), 0, false
		}
	}
}

// coalesceGo turns GO SUB (one space) and GO TO (any whitespace) into GOSUB
// and GOTO, unless another name character follows.
func coalesceGo(c *cursor, word []byte) []byte {
	pos := c.pos
	switch {
	case strings.EqualFold(string(c.peekN(4)), " SUB"):
		c.skip(4)
		word = []byte("GOSUB")
	default:
		c.readWhile(isWhitespace)
		if strings.EqualFold(string(c.peekN(2)), "TO") {
			c.skip(2)
			word = []byte("GOTO")
		} else {
			c.pos = pos
			return word
		}
	}
	if next := c.peek(); next != eof && isNameChar(byte(next)) {
		c.pos = pos
		return []byte("GO")
	}
	return word
}

func readNumber(c *cursor) ([]byte, error) {
	if c.peek() != '&' {
		return readDecimal(c), nil
	}
	c.advance()

	if next := c.peek(); next != eof && upper(byte(next)) == 'H' {
		c.advance()
		digits := c.readWhile(isHexDigit)
		return encodeWord(tokens.HexConst, string(digits), 16)
	}

	// the O is optional and the digits may be broken up by whitespace
	if next := c.peek(); next != eof && upper(byte(next)) == 'O' {
		c.advance()
	}
	var digits []byte
	for !c.atEnd() {
		b := c.buf[c.pos]
		if isWhitespace(b) {
			c.pos++
			continue
		}
		if !isOctalDigit(b) {
			break
		}
		digits = append(digits, b)
		c.pos++
	}
	return encodeWord(tokens.OctalConst, string(digits), 8)
}

func encodeWord(marker byte, digits string, base int) ([]byte, error) {
	var v uint64
	if digits != "" {
		var err error
		v, err = strconv.ParseUint(digits, base, 64)
		if err != nil || v > 0xffff {
			return nil, basicerr.New(basicerr.Overflow)
		}
	}
	out := []byte{marker, 0, 0}
	binary.LittleEndian.PutUint16(out[1:], uint16(v))
	return out, nil
}

// readDecimal reads a decimal constant and returns its smallest encoding.
// Signs are tokenized as operators, so the number is never negative.
func readDecimal(c *cursor) []byte {
	var (
		word               []byte
		hasExp, hasDecimal bool
		kill               bool
		end                = c.pos
	)

scan:
	for {
		ch := c.advance()
		if ch == eof {
			break
		}
		b := upper(byte(ch))
		switch {
		case b == 0x1c || b == 0x1d || b == 0x1f:
			// ASCII separators turn the number into zero
			kill = true
		case b == '.' && !hasDecimal && !hasExp:
			hasDecimal = true
			word = append(word, b)
		case (b == 'E' || b == 'D') && !hasExp:
			// E followed by L or Q starts ELSE or EQV
			if next := c.peek(); b == 'E' && next != eof && (upper(byte(next)) == 'L' || upper(byte(next)) == 'Q') {
				c.rewind(1)
				break scan
			}
			hasExp = true
			word = append(word, b)
		case (b == '+' || b == '-') && len(word) > 0 && (word[len(word)-1] == 'E' || word[len(word)-1] == 'D'):
			word = append(word, b)
		case isDigit(b):
			word = append(word, b)
		case isWhitespace(b):
			continue
		case (b == '!' || b == '#') && !hasExp:
			word = append(word, b)
			end = c.pos
			break scan
		case b == '%':
			end = c.pos
			break scan
		default:
			c.rewind(1)
			break scan
		}
		end = c.pos
	}
	// trailing whitespace is not part of the number
	c.pos = end

	if kill {
		word = []byte("0")
	}
	text := string(word)

	if len(word) == 1 && isDigit(word[0]) {
		return []byte{tokens.Digit0 + word[0] - '0'}
	}
	last := byte(0)
	if len(word) > 0 {
		last = word[len(word)-1]
	}
	if !hasExp && !hasDecimal && last != '!' && last != '#' {
		if n, err := strconv.Atoi(text); err == nil && n >= -0x8000 && n <= 0x7fff {
			if n >= 0 && n <= 0xff {
				return []byte{tokens.ByteConst, byte(n)}
			}
			out := []byte{tokens.IntConst, 0, 0}
			binary.LittleEndian.PutUint16(out[1:], uint16(int16(n)))
			return out
		}
	}

	f, err := mbf.Parse(text)
	if errors.Is(err, mbf.ErrOverflow) {
		tokenizerDebugLog("[TOKENIZE] constant %q overflows, stored as %s", text, f)
	}
	marker := tokens.SingleConst
	if f.Kind() == mbf.Double {
		marker = tokens.DoubleConst
	}
	return append([]byte{marker}, f.Bytes()...)
}
