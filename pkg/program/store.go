// Package program holds a tokenized BASIC program in memory together with
// the index from line numbers to byte offsets.
//
// Program memory is laid out as GW-BASIC keeps it: every line is stored as
//
//	00 <pointer lo> <pointer hi> <line lo> <line hi> <statements>
//
// and the program ends with 00 00 00. The pointer holds the address of the
// next line's pointer field.
package program

import (
	"encoding/binary"
	"errors"
	"sort"

	"github.com/antibyte/gwbasic/pkg/basicerr"
	"github.com/antibyte/gwbasic/pkg/logger"
	"github.com/antibyte/gwbasic/pkg/tokenizer"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

// endOfProgram is the index key recording where the program terminator sits.
const endOfProgram = 65536

// terminator ends program memory.
var terminator = []byte{0x00, 0x00, 0x00}

var (
	// ErrUnsupportedFormat is returned for program files of other BASIC
	// dialects.
	ErrUnsupportedFormat = errors.New("program: unsupported file format")

	// ErrNoLinesSelected is returned when a delete range holds no lines.
	ErrNoLinesSelected = basicerr.New(basicerr.IllegalFunctionCall).WithDetail("no lines selected")
)

// Line is one listed program line.
type Line struct {
	Number int
	Text   string
}

// Store is a program in memory. It is not safe for concurrent use.
type Store struct {
	settings  Settings
	tokenizer *tokenizer.Tokenizer

	buf []byte
	// index maps line numbers to the offset of their leading 00;
	// lineNumbers holds its keys in ascending order.
	index       map[int]int
	lineNumbers []int

	protected  bool
	lastStored int
}

func programDebugLog(format string, args ...interface{}) {
	logger.Debug(logger.AreaProgram, format, args...)
}

// New returns an empty program store.
func New(settings Settings, table *tokens.KeywordTable) *Store {
	s := &Store{
		settings:  settings,
		tokenizer: tokenizer.New(table),
	}
	s.Erase()
	return s
}

// Erase clears the program and its protection.
func (s *Store) Erase() {
	s.buf = append(s.buf[:0], terminator...)
	s.index = map[int]int{endOfProgram: 0}
	s.lineNumbers = []int{endOfProgram}
	s.protected = false
	s.lastStored = -1
}

// Settings returns the settings the store was created with.
func (s *Store) Settings() Settings { return s.settings }

// Tokenizer returns the tokenizer used for ASCII loads and listings.
func (s *Store) Tokenizer() *tokenizer.Tokenizer { return s.tokenizer }

// Protected reports whether the program was loaded from a protected file.
func (s *Store) Protected() bool { return s.protected }

// LastStored returns the number of the line most recently stored or
// deleted through StoreLine.
func (s *Store) LastStored() (int, bool) {
	return s.lastStored, s.lastStored >= 0
}

// Len returns the size of program memory in bytes.
func (s *Store) Len() int { return len(s.buf) }

// Bytes returns a copy of program memory.
func (s *Store) Bytes() []byte {
	out := make([]byte, len(s.buf))
	copy(out, s.buf)
	return out
}

// LineNumbers returns the program's line numbers in ascending order.
func (s *Store) LineNumbers() []int {
	out := make([]int, 0, len(s.lineNumbers)-1)
	for _, n := range s.lineNumbers {
		if n != endOfProgram {
			out = append(out, n)
		}
	}
	return out
}

// Index returns a copy of the line number index. The key 65536 records the
// offset of the program terminator.
func (s *Store) Index() map[int]int {
	out := make(map[int]int, len(s.index))
	for k, v := range s.index {
		out[k] = v
	}
	return out
}

// LineNumberAt returns the line containing offset, or -1 if offset lies in
// the terminator or outside the program.
func (s *Store) LineNumberAt(offset int) int {
	line, best := -1, -1
	for n, off := range s.index {
		if off <= offset && off > best {
			line, best = n, off
		}
	}
	if line == endOfProgram {
		return -1
	}
	return line
}

// codePosition describes the program bytes covered by a line number range.
type codePosition struct {
	start, after int
	deletable    []int // lines inside the range
	beyond       []int // lines after the range, always including endOfProgram
}

func (s *Store) findCodePosition(from, to int) codePosition {
	if to > endOfProgram-1 {
		to = endOfProgram - 1
	}
	lo := sort.SearchInts(s.lineNumbers, from)
	hi := sort.SearchInts(s.lineNumbers, to+1)
	if hi < lo {
		hi = lo
	}
	pos := codePosition{
		deletable: append([]int(nil), s.lineNumbers[lo:hi]...),
		beyond:    append([]int(nil), s.lineNumbers[hi:]...),
	}
	pos.after = s.index[pos.beyond[0]]
	pos.start = pos.after
	if len(pos.deletable) > 0 {
		pos.start = s.index[pos.deletable[0]]
	}
	return pos
}

// splice replaces the bytes of pos with record and updates the index.
func (s *Store) splice(pos codePosition, record []byte) error {
	newLen := len(s.buf) - (pos.after - pos.start) + len(record)
	if s.settings.CodeStart+newLen > s.settings.MaxMemory {
		return basicerr.New(basicerr.OutOfMemory)
	}

	buf := make([]byte, 0, newLen)
	buf = append(buf, s.buf[:pos.start]...)
	buf = append(buf, record...)
	buf = append(buf, s.buf[pos.after:]...)
	s.buf = buf

	delta := len(record) - (pos.after - pos.start)
	for _, n := range pos.deletable {
		delete(s.index, n)
	}
	for _, n := range pos.beyond {
		s.index[n] += delta
	}
	s.syncLineNumbers()
	return nil
}

func (s *Store) syncLineNumbers() {
	s.lineNumbers = s.lineNumbers[:0]
	for n := range s.index {
		s.lineNumbers = append(s.lineNumbers, n)
	}
	sort.Ints(s.lineNumbers)
}

// relink rewrites the pointer field of every line at or after offset from.
func (s *Store) relink(from int) {
	offsets := s.offsets()
	for i, off := range offsets {
		if off < from || i+1 >= len(offsets) {
			continue
		}
		binary.LittleEndian.PutUint16(s.buf[off+1:], uint16(s.settings.CodeStart+1+offsets[i+1]))
	}
}

// offsets returns the start offsets of all lines and the terminator in
// memory order.
func (s *Store) offsets() []int {
	out := make([]int, 0, len(s.index))
	for _, off := range s.index {
		out = append(out, off)
	}
	sort.Ints(out)
	return out
}

// VerifyLineStartsWithNumber checks that tokenized begins with a line
// number and returns it, together with whether the line has no statements.
// A number directly after the line number, as in "6553 5" read from 65535,
// is a syntax error.
func VerifyLineStartsWithNumber(tokenized []byte) (int, bool, error) {
	if len(tokenized) < 5 || tokenized[0] != 0x00 {
		return 0, false, basicerr.New(basicerr.DirectStatementInFile)
	}
	lineNumber := int(binary.LittleEndian.Uint16(tokenized[3:5]))

	body := tokenized[5:]
	i := 0
	for i < len(body) && (body[i] == ' ' || body[i] == '\t' || body[i] == '\n') {
		i++
	}
	if i == len(body) || body[i] == 0x00 {
		return lineNumber, true, nil
	}
	if c := body[i]; (c >= '0' && c <= '9') || tokens.IsNumberToken(c) {
		return lineNumber, false, basicerr.New(basicerr.SyntaxError).WithLine(lineNumber)
	}
	return lineNumber, false, nil
}

// StoreLine stores a line as returned by Tokenize, replacing any line with
// the same number. A line with no statements deletes the existing line.
func (s *Store) StoreLine(tokenized []byte) error {
	if s.protected {
		return basicerr.New(basicerr.IllegalFunctionCall)
	}
	lineNumber, empty, err := VerifyLineStartsWithNumber(tokenized)
	if err != nil {
		return err
	}
	if lineNumber > tokenizer.MaxLineNumber {
		return basicerr.New(basicerr.SyntaxError).WithLine(lineNumber)
	}

	pos := s.findCodePosition(lineNumber, lineNumber)
	if empty && len(pos.deletable) == 0 {
		return basicerr.New(basicerr.UndefinedLineNumber)
	}

	var record []byte
	if !empty {
		body := tokenized[5:]
		if n := len(body); n > 0 && body[n-1] == 0x00 {
			body = body[:n-1]
		}
		record = make([]byte, 5, 5+len(body))
		record[0] = 0x00
		binary.LittleEndian.PutUint16(record[1:], uint16(s.settings.CodeStart+1+pos.start+5+len(body)))
		binary.LittleEndian.PutUint16(record[3:], uint16(lineNumber))
		record = append(record, body...)
	}

	if err := s.splice(pos, record); err != nil {
		return err
	}
	if !empty {
		s.index[lineNumber] = pos.start
		s.syncLineNumbers()
	}
	s.relink(pos.start)
	s.lastStored = lineNumber

	programDebugLog("[STORE] line %d: %d bytes at offset %d, program now %d bytes",
		lineNumber, len(record), pos.start, len(s.buf))
	return nil
}

// Delete removes the lines numbered from through to inclusive.
func (s *Store) Delete(from, to int) error {
	if s.protected {
		return basicerr.New(basicerr.IllegalFunctionCall)
	}
	pos := s.findCodePosition(from, to)
	if len(pos.deletable) == 0 {
		e := *ErrNoLinesSelected
		return &e
	}
	if err := s.splice(pos, nil); err != nil {
		return err
	}
	s.relink(pos.start)
	programDebugLog("[DELETE] lines %d-%d: %d removed", from, to, len(pos.deletable))
	return nil
}

// DeleteFrom removes every line numbered start or higher.
func (s *Store) DeleteFrom(start int) error {
	return s.Delete(start, endOfProgram-1)
}

// DeleteAll removes every line. An empty program is left unchanged.
func (s *Store) DeleteAll() error {
	if len(s.lineNumbers) == 1 {
		return nil
	}
	return s.Delete(0, endOfProgram-1)
}

// RebuildLineNumbers scans program memory, rebuilds the index from the line
// headers found and rewrites every line pointer. Memory after the first
// terminator is discarded.
func (s *Store) RebuildLineNumbers() {
	s.index = make(map[int]int)
	pos := 0
	previous := -1
	for pos+5 <= len(s.buf) && !(s.buf[pos+1] == 0x00 && s.buf[pos+2] == 0x00) {
		lineNumber := int(binary.LittleEndian.Uint16(s.buf[pos+3:]))
		if lineNumber <= previous {
			logger.Warn(logger.AreaProgram, "[REBUILD] line %d follows line %d at offset %d", lineNumber, previous, pos)
		}
		previous = lineNumber
		s.index[lineNumber] = pos
		pos = lineEnd(s.buf, pos+5)
	}
	s.index[endOfProgram] = pos
	s.buf = append(s.buf[:pos], terminator...)
	s.syncLineNumbers()
	s.relink(0)

	programDebugLog("[REBUILD] %d lines, %d bytes", len(s.lineNumbers)-1, len(s.buf))
}

// lineEnd returns the offset of the 00 that ends the statements starting at
// pos, or len(buf) if there is none. String literals and remarks are
// skipped verbatim and constant payloads are stepped over.
func lineEnd(buf []byte, pos int) int {
	literal, remark := false, false
	for pos < len(buf) {
		c := buf[pos]
		if c == 0x00 {
			return pos
		}
		pos++
		switch {
		case c == '"':
			literal = !literal
		case tokens.Token(c) == tokens.REM && !literal:
			remark = true
		}
		if literal || remark {
			continue
		}
		pos += tokens.PayloadSize(c)
	}
	return len(buf)
}

// Lines lists the lines numbered from through to, in memory order.
func (s *Store) Lines(from, to int) ([]Line, error) {
	if s.protected {
		return nil, basicerr.New(basicerr.IllegalFunctionCall)
	}
	if to > s.settings.MaxLineNumber {
		to = s.settings.MaxLineNumber
	}
	return s.list(from, to)
}

func (s *Store) list(from, to int) ([]Line, error) {
	offsets := s.offsets()
	var lines []Line
	for i, off := range offsets {
		if i+1 >= len(offsets) {
			break
		}
		n := int(binary.LittleEndian.Uint16(s.buf[off+3:]))
		if n < from || n > to {
			continue
		}
		number, text, err := s.tokenizer.Detokenize(s.buf[off : offsets[i+1]+1])
		if err != nil {
			return lines, basicerr.InLine(err, number)
		}
		lines = append(lines, Line{Number: number, Text: text})
	}
	return lines, nil
}

// Peek returns the program byte at a memory address, or -1 outside the
// program.
func (s *Store) Peek(addr int) int {
	off := addr - s.settings.CodeStart
	if off < 0 || off >= len(s.buf) {
		return -1
	}
	return int(s.buf[off])
}

// Poke writes a byte of program memory and rebuilds the index. Without
// AllowCodePoke the write is logged and ignored.
func (s *Store) Poke(addr int, v byte) error {
	if !s.settings.AllowCodePoke {
		logger.Warn(logger.AreaProgram, "Ignored POKE into program code at %d", addr)
		return nil
	}
	off := addr - s.settings.CodeStart
	if off < 0 {
		return basicerr.New(basicerr.IllegalFunctionCall)
	}
	if addr > s.settings.MaxMemory {
		return basicerr.New(basicerr.OutOfMemory)
	}
	for len(s.buf) <= off {
		s.buf = append(s.buf, 0x00)
	}
	s.buf[off] = v
	s.RebuildLineNumbers()
	return nil
}
