package program

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/antibyte/gwbasic/pkg/basicerr"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

func newTestStore(t *testing.T, lines ...string) *Store {
	t.Helper()
	return newTestStoreWith(t, DefaultSettings(), lines...)
}

func newTestStoreWith(t *testing.T, settings Settings, lines ...string) *Store {
	t.Helper()
	s := New(settings, tokens.NewKeywordTable(tokens.All))
	for _, l := range lines {
		storeText(t, s, l)
	}
	return s
}

func storeText(t *testing.T, s *Store, line string) {
	t.Helper()
	tokenized, err := s.Tokenizer().Tokenize(line)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", line, err)
	}
	if err := s.StoreLine(tokenized); err != nil {
		t.Fatalf("StoreLine(%q): %v", line, err)
	}
}

// checkIndex verifies that the index agrees with program memory.
func checkIndex(t *testing.T, s *Store) {
	t.Helper()
	buf := s.Bytes()
	if len(buf) < 3 || !bytes.Equal(buf[len(buf)-3:], []byte{0, 0, 0}) {
		t.Fatalf("program does not end in 00 00 00: % x", buf)
	}
	index := s.Index()
	if index[endOfProgram] != len(buf)-3 {
		t.Fatalf("terminator at %d, program is %d bytes", index[endOfProgram], len(buf))
	}

	numbers := append(s.LineNumbers(), endOfProgram)
	for i, n := range numbers[:len(numbers)-1] {
		off, next := index[n], index[numbers[i+1]]
		if off >= next {
			t.Fatalf("line %d at %d is not before %d", n, off, next)
		}
		if buf[off] != 0x00 {
			t.Errorf("line %d does not start with 00", n)
		}
		if got := int(binary.LittleEndian.Uint16(buf[off+1:])); got != s.Settings().CodeStart+1+next {
			t.Errorf("line %d pointer = %#x, want %#x", n, got, s.Settings().CodeStart+1+next)
		}
		if got := int(binary.LittleEndian.Uint16(buf[off+3:])); got != n {
			t.Errorf("header at %d holds line %d, want %d", off, got, n)
		}
	}
}

func TestStoreLineBytes(t *testing.T) {
	want := "0077120a00912012007d12140081000000"

	for _, order := range [][]string{
		{"10 PRINT 1", "20 END"},
		{"20 END", "10 PRINT 1"},
	} {
		s := newTestStore(t, order...)
		if got := hex.EncodeToString(s.Bytes()); got != want {
			t.Errorf("%v: program = %s, want %s", order, got, want)
		}
		checkIndex(t, s)
	}
}

func TestReplaceAndDeleteLine(t *testing.T) {
	s := newTestStore(t, "10 PRINT 1", "20 END")

	storeText(t, s, "10 A=2")
	if got := hex.EncodeToString(s.Bytes()); got != "0077120a0041e713007d12140081000000" {
		t.Errorf("after replace = %s", got)
	}
	checkIndex(t, s)

	storeText(t, s, "10")
	if got := hex.EncodeToString(s.Bytes()); got != "007512140081000000" {
		t.Errorf("after delete = %s", got)
	}
	if got := s.LineNumbers(); !reflect.DeepEqual(got, []int{20}) {
		t.Errorf("LineNumbers = %v", got)
	}
	if n, ok := s.LastStored(); !ok || n != 10 {
		t.Errorf("LastStored = %d, %v", n, ok)
	}
	checkIndex(t, s)
}

func TestStoreLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		code basicerr.Code
	}{
		{"delete missing line", "30", basicerr.UndefinedLineNumber},
		{"blank delete missing line", "30   ", basicerr.UndefinedLineNumber},
		{"line number too large", "65535 PRINT", basicerr.SyntaxError},
		{"digit after line number", "65530 END", basicerr.SyntaxError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, "10 END")
			tokenized, err := s.Tokenizer().Tokenize(tt.line)
			if err != nil {
				t.Fatal(err)
			}
			err = s.StoreLine(tokenized)
			if basicerr.CodeOf(err) != tt.code {
				t.Errorf("StoreLine(%q) = %v, want code %d", tt.line, err, tt.code)
			}
			if got := s.LineNumbers(); !reflect.DeepEqual(got, []int{10}) {
				t.Errorf("program changed: %v", got)
			}
		})
	}
}

func TestVerifyLineStartsWithNumber(t *testing.T) {
	n, empty, err := VerifyLineStartsWithNumber([]byte{0x00, 0xc0, 0xde, 0x0a, 0x00, ' ', 0x00})
	if err != nil || n != 10 || !empty {
		t.Errorf("blank line = %d, %v, %v", n, empty, err)
	}
	if _, _, err := VerifyLineStartsWithNumber([]byte(":\x91\x00")); basicerr.CodeOf(err) != basicerr.DirectStatementInFile {
		t.Errorf("direct line error = %v", err)
	}
}

func TestOutOfMemory(t *testing.T) {
	settings := DefaultSettings()
	settings.MaxMemory = settings.CodeStart + 10
	s := newTestStoreWith(t, settings)

	tokenized, _ := s.Tokenizer().Tokenize("10 PRINT 1")
	if err := s.StoreLine(tokenized); basicerr.CodeOf(err) != basicerr.OutOfMemory {
		t.Fatalf("StoreLine = %v, want Out of memory", err)
	}
	if s.Len() != 3 {
		t.Errorf("program grew to %d bytes", s.Len())
	}
}

func TestDelete(t *testing.T) {
	program := []string{"10 A=1", "20 B=2", "30 C=3", "40 D=4"}

	tests := []struct {
		name     string
		del      func(s *Store) error
		expected []int
	}{
		{"range", func(s *Store) error { return s.Delete(15, 30) }, []int{10, 40}},
		{"single", func(s *Store) error { return s.Delete(20, 20) }, []int{10, 30, 40}},
		{"from", func(s *Store) error { return s.DeleteFrom(20) }, []int{10}},
		{"all", func(s *Store) error { return s.DeleteAll() }, []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, program...)
			if err := tt.del(s); err != nil {
				t.Fatal(err)
			}
			if got := s.LineNumbers(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("LineNumbers = %v, want %v", got, tt.expected)
			}
			checkIndex(t, s)
		})
	}

	s := newTestStore(t, program...)
	err := s.Delete(50, 60)
	if !errors.Is(err, ErrNoLinesSelected) {
		t.Errorf("Delete(50, 60) = %v", err)
	}
	basicerr.InLine(err, 100)
	if ErrNoLinesSelected.LineNumber != -1 {
		t.Error("shared error was modified")
	}

	empty := newTestStore(t)
	if err := empty.DeleteAll(); err != nil {
		t.Errorf("DeleteAll on empty program = %v", err)
	}
}

func TestLines(t *testing.T) {
	s := newTestStore(t, "30 IF A THEN 10 ELSE 20", "10 PRINT 1", "20 END")

	lines, err := s.Lines(0, 65535)
	if err != nil {
		t.Fatal(err)
	}
	want := []Line{
		{10, "10 PRINT 1"},
		{20, "20 END"},
		{30, "30 IF A THEN 10 ELSE 20"},
	}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Lines = %v", lines)
	}

	lines, _ = s.Lines(15, 25)
	if len(lines) != 1 || lines[0].Number != 20 {
		t.Errorf("Lines(15, 25) = %v", lines)
	}
}

func TestLineNumberAtAndPeek(t *testing.T) {
	s := newTestStore(t, "10 PRINT 1", "20 END")

	for offset, want := range map[int]int{-1: -1, 0: 10, 7: 10, 8: 20, 13: 20, 14: -1, 100: -1} {
		if got := s.LineNumberAt(offset); got != want {
			t.Errorf("LineNumberAt(%d) = %d, want %d", offset, got, want)
		}
	}

	start := s.Settings().CodeStart
	if got := s.Peek(start + 1); got != 0x77 {
		t.Errorf("Peek(start+1) = %#x", got)
	}
	if got := s.Peek(start - 1); got != -1 {
		t.Errorf("Peek before program = %d", got)
	}
	if got := s.Peek(start + s.Len()); got != -1 {
		t.Errorf("Peek after program = %d", got)
	}
}

func TestPoke(t *testing.T) {
	s := newTestStore(t, "10 PRINT 1", "20 END")
	start := s.Settings().CodeStart

	// ignored unless enabled
	if err := s.Poke(start+3, 11); err != nil {
		t.Fatal(err)
	}
	if got := s.LineNumbers(); !reflect.DeepEqual(got, []int{10, 20}) {
		t.Errorf("disabled poke changed program: %v", got)
	}

	settings := DefaultSettings()
	settings.AllowCodePoke = true
	s = newTestStoreWith(t, settings, "10 PRINT 1", "20 END")
	if err := s.Poke(start+3, 11); err != nil {
		t.Fatal(err)
	}
	if got := s.LineNumbers(); !reflect.DeepEqual(got, []int{11, 20}) {
		t.Errorf("LineNumbers after poke = %v", got)
	}
	checkIndex(t, s)

	if err := s.Poke(start-1, 0); basicerr.CodeOf(err) != basicerr.IllegalFunctionCall {
		t.Errorf("Poke before program = %v", err)
	}
	if err := s.Poke(settings.MaxMemory+1, 0); basicerr.CodeOf(err) != basicerr.OutOfMemory {
		t.Errorf("Poke past memory = %v", err)
	}
}

var richProgram = []string{
	"10 PRINT 1",
	"20 END",
	"30 IF A THEN 10 ELSE 20",
	`40 REM "x" 1`,
	"50 A=&H1F:B=1.5",
}

func TestBinaryRoundTrip(t *testing.T) {
	s := newTestStore(t, richProgram...)

	var out bytes.Buffer
	if err := s.SaveTo(&out, ModeBinary); err != nil {
		t.Fatal(err)
	}
	if out.Bytes()[0] != 0xff || !bytes.Equal(out.Bytes()[1:], s.Bytes()[1:]) {
		t.Fatalf("binary file = % x", out.Bytes())
	}

	// trailing bytes after the terminator are dropped
	out.WriteString("junk")
	loaded := newTestStore(t)
	if err := loaded.Load(&out); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(loaded.Bytes(), s.Bytes()) {
		t.Errorf("loaded % x\nwant   % x", loaded.Bytes(), s.Bytes())
	}
	if !reflect.DeepEqual(loaded.LineNumbers(), []int{10, 20, 30, 40, 50}) {
		t.Errorf("LineNumbers = %v", loaded.LineNumbers())
	}
	checkIndex(t, loaded)
}

func TestASCIISave(t *testing.T) {
	s := newTestStore(t, richProgram...)

	var out bytes.Buffer
	if err := s.SaveTo(&out, ModeASCII); err != nil {
		t.Fatal(err)
	}
	want := strings.Join(richProgram, "\r\n") + "\r\n"
	if out.String() != want {
		t.Errorf("ASCII save = %q, want %q", out.String(), want)
	}

	settings := DefaultSettings()
	settings.MaxLineNumber = 30
	limited := newTestStoreWith(t, settings, richProgram...)
	out.Reset()
	limited.SaveTo(&out, ModeASCII)
	if strings.Count(out.String(), "\r\n") != 3 {
		t.Errorf("limited save = %q", out.String())
	}
}

func TestProtectedFiles(t *testing.T) {
	s := newTestStore(t, richProgram...)
	var file bytes.Buffer
	if err := s.SaveTo(&file, ModeProtected); err != nil {
		t.Fatal(err)
	}
	if file.Bytes()[0] != 0xfe || bytes.Equal(file.Bytes()[1:], s.Bytes()[1:]) {
		t.Fatalf("protected file = % x", file.Bytes())
	}

	// without AllowProtect the program loads as an ordinary one
	open := newTestStore(t)
	if err := open.Load(bytes.NewReader(file.Bytes())); err != nil {
		t.Fatal(err)
	}
	if open.Protected() || !bytes.Equal(open.Bytes(), s.Bytes()) {
		t.Fatalf("unprotected load = % x, protected %v", open.Bytes(), open.Protected())
	}

	settings := DefaultSettings()
	settings.AllowProtect = true
	locked := newTestStoreWith(t, settings)
	if err := locked.Load(bytes.NewReader(file.Bytes())); err != nil {
		t.Fatal(err)
	}
	if !locked.Protected() {
		t.Fatal("program not protected")
	}

	tokenized, _ := locked.Tokenizer().Tokenize("60 END")
	checks := map[string]error{
		"StoreLine":  locked.StoreLine(tokenized),
		"Delete":     locked.Delete(10, 20),
		"SaveBinary": locked.SaveTo(&bytes.Buffer{}, ModeBinary),
		"SaveASCII":  locked.SaveTo(&bytes.Buffer{}, ModeASCII),
	}
	_, checks["Lines"] = locked.Lines(0, 100)
	for name, err := range checks {
		if basicerr.CodeOf(err) != basicerr.IllegalFunctionCall {
			t.Errorf("%s on protected program = %v", name, err)
		}
	}

	var again bytes.Buffer
	if err := locked.SaveTo(&again, ModeProtected); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(again.Bytes(), file.Bytes()) {
		t.Error("protected save is not stable")
	}

	locked.Erase()
	if locked.Protected() {
		t.Error("Erase kept protection")
	}
}

func TestLoadASCII(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []int
		code     basicerr.Code
	}{
		{"crlf", "20 END\r\n10 PRINT 1\r\n", []int{10, 20}, 0},
		{"bare cr and lf", "10 PRINT 1\r20 END\n30 STOP", []int{10, 20, 30}, 0},
		{"ctrl-z ends file", "10 END\r\n\x1a20 END\r\n", []int{10}, 0},
		{"blank lines", "\r\n10 END\r\n   \r\n", []int{10}, 0},
		{"trailing direct line", "10 END\r\nRUN\r\n\r\n", []int{10}, 0},
		{"direct line in file", "10 END\r\nPRINT 1\r\n20 END\r\n", nil, basicerr.DirectStatementInFile},
		{"bad line", "10 END\r\n65535 PRINT\r\n", nil, basicerr.SyntaxError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			err := s.Load(strings.NewReader(tt.text))
			if tt.code != 0 {
				if basicerr.CodeOf(err) != tt.code {
					t.Errorf("Load = %v, want code %d", err, tt.code)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if got := s.LineNumbers(); !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("LineNumbers = %v, want %v", got, tt.expected)
			}
			checkIndex(t, s)
		})
	}
}

func TestMergeKeepsProgram(t *testing.T) {
	s := newTestStore(t, "10 PRINT 1", "30 END")
	if err := s.Merge(strings.NewReader("20 A=2\r\n30 STOP\r\n")); err != nil {
		t.Fatal(err)
	}
	lines, _ := s.Lines(0, 65535)
	want := []Line{{10, "10 PRINT 1"}, {20, "20 A=2"}, {30, "30 STOP"}}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("Lines = %v", lines)
	}
}

func TestLoadUnsupported(t *testing.T) {
	s := newTestStore(t, "10 END")
	if err := s.Load(bytes.NewReader([]byte{0xfc, 0x00})); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load = %v", err)
	}
	if len(s.LineNumbers()) != 0 {
		t.Error("old program survived Load")
	}
}

func TestParseMode(t *testing.T) {
	for _, m := range []Mode{ModeASCII, ModeBinary, ModeProtected} {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if _, err := ParseMode("x"); err == nil {
		t.Error("ParseMode(x) succeeded")
	}
}
