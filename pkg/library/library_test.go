package library

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/antibyte/gwbasic/pkg/program"
	"github.com/antibyte/gwbasic/pkg/tokens"
)

func openTestLibrary(t *testing.T) *Library {
	t.Helper()
	lib, err := Open(filepath.Join(t.TempDir(), "programs.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func newProgram(t *testing.T, lines ...string) *program.Store {
	t.Helper()
	s := program.New(program.DefaultSettings(), tokens.NewKeywordTable(tokens.All))
	for _, l := range lines {
		tokenized, err := s.Tokenizer().Tokenize(l)
		if err != nil {
			t.Fatal(err)
		}
		if err := s.StoreLine(tokenized); err != nil {
			t.Fatal(err)
		}
	}
	return s
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	src := newProgram(t, "10 PRINT \"HI\"", "20 GOTO 10")

	for _, mode := range []program.Mode{program.ModeASCII, program.ModeBinary, program.ModeProtected} {
		t.Run(mode.String(), func(t *testing.T) {
			entry, err := lib.Save(ctx, "demo-"+mode.String(), src, mode)
			if err != nil {
				t.Fatal(err)
			}
			if entry.Lines != 2 || entry.Format != mode || entry.ID == "" {
				t.Errorf("entry = %+v", entry)
			}

			dst := newProgram(t)
			loaded, err := lib.Load(ctx, "demo-"+mode.String(), dst)
			if err != nil {
				t.Fatal(err)
			}
			if loaded.ID != entry.ID || loaded.Checksum != entry.Checksum || loaded.Size != entry.Size {
				t.Errorf("loaded %+v, saved %+v", loaded, entry)
			}
			if !bytes.Equal(dst.Bytes(), src.Bytes()) {
				t.Errorf("program = % x, want % x", dst.Bytes(), src.Bytes())
			}
		})
	}
}

func TestSaveReplacesKeepingID(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)

	first, err := lib.Save(ctx, "prog", newProgram(t, "10 END"), program.ModeBinary)
	if err != nil {
		t.Fatal(err)
	}
	second, err := lib.Save(ctx, "prog", newProgram(t, "10 A=1", "20 END"), program.ModeBinary)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("id changed from %s to %s", first.ID, second.ID)
	}

	got, err := lib.Get(ctx, "prog")
	if err != nil {
		t.Fatal(err)
	}
	if got.Lines != 2 {
		t.Errorf("Lines = %d", got.Lines)
	}
}

func TestListAndDelete(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	p := newProgram(t, "10 END")

	for _, name := range []string{"b", "a", "c"} {
		if _, err := lib.Save(ctx, name, p, program.ModeBinary); err != nil {
			t.Fatal(err)
		}
	}
	if err := lib.Delete(ctx, "b"); err != nil {
		t.Fatal(err)
	}

	entries, err := lib.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if !reflect.DeepEqual(names, []string{"a", "c"}) {
		t.Errorf("List = %v", names)
	}

	if err := lib.Delete(ctx, "b"); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("second Delete = %v", err)
	}
	if _, err := lib.Get(ctx, "missing"); !errors.Is(err, ErrProgramNotFound) {
		t.Errorf("Get(missing) = %v", err)
	}
}

func TestChecksumMismatch(t *testing.T) {
	ctx := context.Background()
	lib := openTestLibrary(t)
	if _, err := lib.Save(ctx, "prog", newProgram(t, "10 END"), program.ModeBinary); err != nil {
		t.Fatal(err)
	}

	if _, err := lib.conn.Exec(`UPDATE programs SET content = ? WHERE name = ?`, []byte{0xff, 0x00, 0x00}, "prog"); err != nil {
		t.Fatal(err)
	}

	dst := newProgram(t, "10 STOP")
	if _, err := lib.Load(ctx, "prog", dst); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("Load = %v", err)
	}
	if got := dst.LineNumbers(); !reflect.DeepEqual(got, []int{10}) {
		t.Errorf("program replaced after failed load: %v", got)
	}
}
