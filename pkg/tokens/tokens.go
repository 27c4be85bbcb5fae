// Package tokens defines the GW-BASIC token codes and the keyword table
// that maps keyword text to those codes.
package tokens

// Token is a keyword code. One-byte codes are stored as is; two-byte codes
// keep their lead byte (0xFD, 0xFE or 0xFF) in the high byte.
type Token uint16

// Bytes returns the encoded form of t.
func (t Token) Bytes() []byte {
	if t > 0xff {
		return []byte{byte(t >> 8), byte(t)}
	}
	return []byte{byte(t)}
}

// Width is the encoded length: 1 or 2.
func (t Token) Width() int {
	if t > 0xff {
		return 2
	}
	return 1
}

// IsLeadByte reports whether b starts a two-byte keyword code.
func IsLeadByte(b byte) bool {
	return b == 0xfd || b == 0xfe || b == 0xff
}

// Numeric and line reference markers. Each is followed by the number of
// payload bytes PayloadSize reports.
const (
	OctalConst  byte = 0x0b
	HexConst    byte = 0x0c
	LinePointer byte = 0x0d
	LineNumber  byte = 0x0e
	ByteConst   byte = 0x0f
	Digit0      byte = 0x11 // 0x11..0x1A encode the digits 0-9
	Digit9      byte = 0x1a
	Const10     byte = 0x1b
	IntConst    byte = 0x1c
	SingleConst byte = 0x1d
	DoubleConst byte = 0x1f
)

// Keyword tokens the tokenizer and program store handle specially.
const (
	END     Token = 0x81
	FOR     Token = 0x82
	DATA    Token = 0x84
	GOTO    Token = 0x89
	RUN     Token = 0x8a
	RESTORE Token = 0x8c
	GOSUB   Token = 0x8d
	RETURN  Token = 0x8e
	REM     Token = 0x8f
	PRINT   Token = 0x91
	LIST    Token = 0x93
	ELSE    Token = 0xa1
	EDIT    Token = 0xa6
	RESUME  Token = 0xa8
	DELETE  Token = 0xa9
	AUTO    Token = 0xaa
	RENUM   Token = 0xab
	WHILE   Token = 0xb1
	LLIST   Token = 0x9e
	THEN    Token = 0xcd
	TAB     Token = 0xce
	USR     Token = 0xd0
	FN      Token = 0xd1
	SPC     Token = 0xd2
	ERL     Token = 0xd4
	REMTick Token = 0xd9 // the apostrophe form of REM

	Greater Token = 0xe6
	Equal   Token = 0xe7
	Less    Token = 0xe8
	Plus    Token = 0xe9
	Minus   Token = 0xea
	Times   Token = 0xeb
	Divide  Token = 0xec
	Power   Token = 0xed
	IntDiv  Token = 0xf4
	NOISE   Token = 0xfea4
	TERM    Token = 0xfea6
)

// IsNumberToken reports whether b starts a numeric constant.
func IsNumberToken(b byte) bool {
	switch b {
	case OctalConst, HexConst, ByteConst, IntConst, SingleConst, DoubleConst, Const10:
		return true
	}
	return b >= Digit0 && b <= Digit9
}

// IsLineReference reports whether b starts a line number or line pointer.
func IsLineReference(b byte) bool {
	return b == LineNumber || b == LinePointer
}

// PayloadSize returns how many bytes follow b before the next token, or 0.
// A NUL is followed by the 4-byte header of the next program line.
func PayloadSize(b byte) int {
	switch b {
	case ByteConst, 0xfd, 0xfe, 0xff:
		return 1
	case OctalConst, HexConst, LinePointer, LineNumber, IntConst:
		return 2
	case SingleConst:
		return 4
	case DoubleConst:
		return 8
	case 0x00:
		return 4
	}
	return 0
}

var lineNumberPrefixes = map[Token]bool{
	GOTO: true, THEN: true, ELSE: true, GOSUB: true, LIST: true,
	RENUM: true, EDIT: true, LLIST: true, DELETE: true, RUN: true,
	RESUME: true, AUTO: true, ERL: true, RESTORE: true, RETURN: true,
}

// TakesLineNumber reports whether digits after t are a line reference.
func TakesLineNumber(t Token) bool {
	return lineNumberPrefixes[t]
}

var operators = map[Token]bool{
	Greater: true, Equal: true, Less: true, Plus: true, Minus: true,
	Times: true, Divide: true, Power: true, IntDiv: true,
}

// IsOperator reports whether t is one of the symbolic operators > = < + - * / ^ \.
func IsOperator(t Token) bool {
	return operators[t]
}

// HasBracket reports whether t is SPC( or TAB(, whose text includes the
// opening bracket.
func HasBracket(t Token) bool {
	return t == SPC || t == TAB
}

// alwaysRecognized keywords are tokenized even when glued to a following name.
var alwaysRecognized = map[string]bool{
	"FN": true, "SPC(": true, "TAB(": true, "USR": true,
}

// IsAlwaysRecognized reports whether word is tokenized even when a name
// character follows it, as in FNA or USR0.
func IsAlwaysRecognized(word string) bool {
	return alwaysRecognized[word]
}

// operatorChars maps the single character operators to their tokens.
var operatorChars = map[byte]Token{
	'>': Greater, '=': Equal, '<': Less, '+': Plus, '-': Minus,
	'*': Times, '/': Divide, '^': Power, '\\': IntDiv,
}

// OperatorFor returns the token of a symbolic operator character.
func OperatorFor(c byte) (Token, bool) {
	t, ok := operatorChars[c]
	return t, ok
}
