package program

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/antibyte/gwbasic/pkg/basicerr"
	"github.com/antibyte/gwbasic/pkg/protect"
)

// Mode selects the file format written by SaveTo.
type Mode int

const (
	ModeASCII Mode = iota
	ModeBinary
	ModeProtected
)

// File format markers.
const (
	markerBinary    = 0xff
	markerProtected = 0xfe
	markerBSAVE     = 0xfd
	markerBASICA    = 0xfc
)

// ctrlZ ends the text of an ASCII program file.
const ctrlZ = 0x1a

func (m Mode) String() string {
	switch m {
	case ModeASCII:
		return "ascii"
	case ModeBinary:
		return "binary"
	case ModeProtected:
		return "protected"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode reads a mode name as written by Mode.String.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "ascii", "a", "A":
		return ModeASCII, nil
	case "binary", "b", "":
		return ModeBinary, nil
	case "protected", "p", "P":
		return ModeProtected, nil
	}
	return 0, fmt.Errorf("unknown save mode %q", s)
}

// Load replaces the program with the contents of a program file in any of
// the three formats.
func (s *Store) Load(r io.Reader) error {
	s.Erase()
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	switch data[0] {
	case markerBinary:
		s.buf = append([]byte{0x00}, data[1:]...)
		s.RebuildLineNumbers()
		programDebugLog("[LOAD] binary program, %d lines", len(s.lineNumbers)-1)
		return nil
	case markerProtected:
		body := make([]byte, len(data)-1)
		protect.Decode(body, data[1:])
		s.buf = append([]byte{0x00}, body...)
		s.protected = s.settings.AllowProtect
		s.RebuildLineNumbers()
		programDebugLog("[LOAD] protected program, %d lines, protected=%v", len(s.lineNumbers)-1, s.protected)
		return nil
	case markerBASICA, markerBSAVE:
		return ErrUnsupportedFormat
	}
	return s.Merge(bytes.NewReader(data))
}

// Merge reads an ASCII program and stores its lines into the current
// program. A line without a line number is an error unless only blank
// lines follow it.
func (s *Store) Merge(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read program: %w", err)
	}
	if i := bytes.IndexByte(data, ctrlZ); i >= 0 {
		data = data[:i]
	}

	var lines []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 4096), len(data)+1)
	sc.Split(scanProgramLines)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("failed to split program text: %w", err)
	}

	for i, text := range lines {
		tokenized, err := s.tokenizer.Tokenize(text)
		if err != nil {
			return err
		}
		if len(tokenized) == 0 {
			continue
		}
		if tokenized[0] != 0x00 {
			if tokenized[1] == 0x00 || !hasContent(lines[i+1:]) {
				programDebugLog("[MERGE] ignoring direct line %q", text)
				continue
			}
			return basicerr.New(basicerr.DirectStatementInFile)
		}
		if err := s.StoreLine(tokenized); err != nil {
			lineNumber, _, _ := VerifyLineStartsWithNumber(tokenized)
			return basicerr.InLine(err, lineNumber)
		}
	}
	programDebugLog("[MERGE] %d text lines, program now %d lines", len(lines), len(s.lineNumbers)-1)
	return nil
}

func hasContent(lines []string) bool {
	for _, l := range lines {
		if len(bytes.TrimLeft([]byte(l), " \t\n")) > 0 {
			return true
		}
	}
	return false
}

// scanProgramLines splits on CR, LF or CR LF.
func scanProgramLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		if data[i] == '\r' {
			if i+1 < len(data) {
				if data[i+1] == '\n' {
					return i + 2, data[:i], nil
				}
				return i + 1, data[:i], nil
			}
			if !atEOF {
				// CR at the end of the buffer might be followed by LF
				return 0, nil, nil
			}
		}
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// SaveTo writes the program in the given format. A protected program can
// only be saved protected.
func (s *Store) SaveTo(w io.Writer, mode Mode) error {
	if s.protected && mode != ModeProtected {
		return basicerr.New(basicerr.IllegalFunctionCall)
	}

	switch mode {
	case ModeBinary:
		if _, err := w.Write([]byte{markerBinary}); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
		if _, err := w.Write(s.buf[1:]); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
	case ModeProtected:
		if _, err := w.Write([]byte{markerProtected}); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
		if _, err := protect.NewWriter(w).Write(s.buf[1:]); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
	case ModeASCII:
		lines, err := s.list(0, s.settings.MaxLineNumber)
		if err != nil {
			return err
		}
		bw := bufio.NewWriter(w)
		for _, l := range lines {
			bw.WriteString(l.Text)
			bw.WriteString("\r\n")
		}
		if err := bw.Flush(); err != nil {
			return fmt.Errorf("failed to write program: %w", err)
		}
	default:
		return fmt.Errorf("unknown save mode %v", mode)
	}

	programDebugLog("[SAVE] %v, %d lines", mode, len(s.lineNumbers)-1)
	return nil
}
