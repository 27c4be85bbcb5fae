package tokenizer

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strconv"
	"strings"

	"github.com/antibyte/gwbasic/pkg/mbf"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

// ErrTruncated is returned when a numeric constant or line reference is cut
// off by the end of the input.
var ErrTruncated = errors.New("tokenizer: truncated token")

// noSpaceAfter lists the characters a keyword may be glued to when listed.
var noSpaceAfter = []byte("\",; :()$%!#_@~|`")

// Detokenize lists one tokenized program line. The leading 00 is optional.
// It returns -1 and an empty string for the end-of-program marker.
func (t *Tokenizer) Detokenize(line []byte) (int, string, error) {
	if len(line) > 0 && line[0] == 0x00 {
		line = line[1:]
	}
	if len(line) < 4 || (line[0] == 0x00 && line[1] == 0x00) {
		return -1, "", nil
	}
	lineNumber := int(binary.LittleEndian.Uint16(line[2:4]))
	body := line[4:]

	// up to one space after line 0 is swallowed
	if lineNumber == 0 && len(body) > 0 && body[0] == ' ' {
		body = body[1:]
	}

	var out bytes.Buffer
	out.WriteString(strconv.Itoa(lineNumber))
	if len(body) == 0 || body[0] != '\t' {
		out.WriteByte(' ')
	}
	_, err := t.detokenizeStatements(body, &out)
	return lineNumber, out.String(), err
}

// DetokenizeStatements lists tokenized statements without a line header, as
// produced for a direct mode line.
func (t *Tokenizer) DetokenizeStatements(body []byte) (string, error) {
	var out bytes.Buffer
	_, err := t.detokenizeStatements(body, &out)
	return out.String(), err
}

// detokenizeStatements writes statements up to the terminating 00 and
// returns the number of bytes consumed.
func (t *Tokenizer) detokenizeStatements(b []byte, out *bytes.Buffer) (int, error) {
	literal := false
	comment := false

	i := 0
	for i < len(b) {
		ch := b[i]
		i++
		switch {
		case ch == 0x00:
			return i, nil

		case ch == '"':
			out.WriteByte(ch)
			literal = !literal

		case tokens.IsNumberToken(ch):
			// numbers are listed as numbers even inside literals and comments
			n, err := decodeNumber(ch, b[i:])
			if err != nil {
				return i, err
			}
			out.WriteString(n.text)
			i += n.width

		case tokens.IsLineReference(ch):
			if len(b)-i < 2 {
				return i, ErrTruncated
			}
			out.WriteString(strconv.Itoa(int(binary.LittleEndian.Uint16(b[i:]))))
			i += 2

		case comment || literal || (ch >= 0x20 && ch <= 0x7e):
			out.WriteByte(ch)

		case ch == 0x0a:
			out.WriteString("\n\r")

		case ch <= 0x09:
			out.WriteByte(ch)

		default:
			keyword, tok, width, ok := t.table.Lookup(b[i-1:])
			if !ok {
				out.WriteByte(ch)
				break
			}
			i += width - 1
			if out.Len() > 0 && isNameChar(out.Bytes()[out.Len()-1]) && !tokens.IsOperator(tok) {
				out.WriteByte(' ')
			}

			switch tok {
			case tokens.REMTick:
				comment = true
			case tokens.REM:
				if i < len(b) && tokens.Token(b[i]) == tokens.REMTick {
					keyword += "'"
					i++
				}
				comment = true
			}
			out.WriteString(keyword)
			collapseRewrites(out)

			next := byte(0)
			if i < len(b) {
				next = b[i]
			}
			if !comment && spaceAfter(tok, next) {
				out.WriteByte(' ')
			}
		}
	}
	return i, nil
}

// collapseRewrites undoes the token insertions made when tokenizing:
// ':REM'' back to ', WHILE+ back to WHILE and ':ELSE' back to ELSE.
func collapseRewrites(out *bytes.Buffer) {
	s := out.Bytes()
	switch {
	case bytes.HasSuffix(s, []byte(":REM'")):
		out.Truncate(len(s) - 5)
		out.WriteByte('\'')
	case bytes.HasSuffix(s, []byte("WHILE+")):
		out.Truncate(len(s) - 1)
	case bytes.HasSuffix(s, []byte(":ELSE")):
		// ELSE directly after a line number keeps a separating space
		glued := len(s) >= 6 && isDigit(s[len(s)-6])
		out.Truncate(len(s) - 5)
		if glued {
			out.WriteByte(' ')
		}
		out.WriteString("ELSE")
	}
}

// spaceAfter reports whether a keyword needs a space before the byte that
// follows it.
func spaceAfter(tok tokens.Token, next byte) bool {
	if next == 0x00 || tokens.IsOperator(tokens.Token(next)) || tokens.Token(next) == tokens.REMTick {
		return false
	}
	if contains(noSpaceAfter, next) {
		return false
	}
	if tokens.IsOperator(tok) || tokens.HasBracket(tok) || tok == tokens.USR || tok == tokens.FN {
		return false
	}
	return true
}

type number struct {
	text  string
	width int // payload bytes after the marker
}

func decodeNumber(marker byte, payload []byte) (number, error) {
	if marker >= tokens.Digit0 && marker <= tokens.Digit9 {
		return number{text: strconv.Itoa(int(marker - tokens.Digit0))}, nil
	}
	if marker == tokens.Const10 {
		return number{text: "10"}, nil
	}
	size := tokens.PayloadSize(marker)
	if len(payload) < size {
		return number{}, ErrTruncated
	}
	p := payload[:size]
	switch marker {
	case tokens.OctalConst:
		return number{"&O" + strconv.FormatUint(uint64(binary.LittleEndian.Uint16(p)), 8), size}, nil
	case tokens.HexConst:
		return number{"&H" + strings.ToUpper(strconv.FormatUint(uint64(binary.LittleEndian.Uint16(p)), 16)), size}, nil
	case tokens.ByteConst:
		return number{strconv.Itoa(int(p[0])), size}, nil
	case tokens.IntConst:
		return number{strconv.Itoa(int(int16(binary.LittleEndian.Uint16(p)))), size}, nil
	default:
		return number{mbf.FromBytes(p).String(), size}, nil
	}
}
