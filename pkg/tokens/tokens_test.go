package tokens

import (
	"bytes"
	"testing"
)

func TestGrammarFiltering(t *testing.T) {
	all := NewKeywordTable(All)
	if _, ok := all.Token("NOISE"); ok {
		t.Error("NOISE should not be available under all grammars")
	}
	if _, ok := all.Token("TERM"); ok {
		t.Error("TERM should not be available under all grammars")
	}

	pcjr := NewKeywordTable(PCjr)
	if tok, ok := pcjr.Token("NOISE"); !ok || tok != NOISE {
		t.Errorf("PCjr NOISE = %#x, %v", tok, ok)
	}
	if pcjr.Len() != all.Len()+2 {
		t.Errorf("PCjr table has %d keywords, all has %d", pcjr.Len(), all.Len())
	}

	adv := NewKeywordTable(Advanced)
	if _, ok := adv.Token("TERM"); ok {
		t.Error("TERM should not be available under advanced grammar")
	}
}

func TestKeywordLookup(t *testing.T) {
	table := NewKeywordTable(All)
	tests := []struct {
		word  string
		token Token
		bytes []byte
	}{
		{"PRINT", PRINT, []byte{0x91}},
		{"GOTO", GOTO, []byte{0x89}},
		{"'", REMTick, []byte{0xd9}},
		{"\\", IntDiv, []byte{0xf4}},
		{"CVI", 0xfd81, []byte{0xfd, 0x81}},
		{"FILES", 0xfe81, []byte{0xfe, 0x81}},
		{"LEFT$", 0xff81, []byte{0xff, 0x81}},
		{"LOF", 0xffa5, []byte{0xff, 0xa5}},
		{"SPC(", SPC, []byte{0xd2}},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			tok, ok := table.Token(tt.word)
			if !ok || tok != tt.token {
				t.Fatalf("Token(%q) = %#x, %v; want %#x", tt.word, tok, ok, tt.token)
			}
			if !bytes.Equal(tok.Bytes(), tt.bytes) {
				t.Errorf("Bytes() = % x, want % x", tok.Bytes(), tt.bytes)
			}
			text, tok2, width, ok := table.Lookup(append(tt.bytes, 0x00))
			if !ok || text != tt.word || tok2 != tt.token || width != len(tt.bytes) {
				t.Errorf("Lookup = %q %#x %d %v", text, tok2, width, ok)
			}
		})
	}
}

func TestLookupMisses(t *testing.T) {
	table := NewKeywordTable(All)
	for _, b := range [][]byte{nil, {0xfe}, {0xfe, 0xa4}, {0x9a}, {0xfd, 0x87}} {
		if text, _, _, ok := table.Lookup(b); ok {
			t.Errorf("Lookup(% x) = %q, want miss", b, text)
		}
	}
}

func TestKeywordsAreUnique(t *testing.T) {
	seen := make(map[Token]string)
	for _, d := range definitions {
		if prev, dup := seen[d.token]; dup {
			t.Errorf("token %#x used by %q and %q", d.token, prev, d.text)
		}
		seen[d.token] = d.text
		if d.token > 0xff && !IsLeadByte(byte(d.token>>8)) {
			t.Errorf("%q has bad lead byte %#x", d.text, d.token)
		}
	}
}

func TestParseGrammar(t *testing.T) {
	tests := []struct {
		in      string
		want    Grammar
		wantErr bool
	}{
		{"all", All, false},
		{"PCjr", PCjr, false},
		{"pcjr,tandy", PCjr | Tandy, false},
		{"tandy | advanced", Tandy | Advanced, false},
		{"", 0, true},
		{"msx", 0, true},
	}
	for _, tt := range tests {
		g, err := ParseGrammar(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseGrammar(%q) error = %v", tt.in, err)
			continue
		}
		if g != tt.want {
			t.Errorf("ParseGrammar(%q) = %v, want %v", tt.in, g, tt.want)
		}
	}
	if s := (PCjr | Advanced).String(); s != "pcjr,advanced" {
		t.Errorf("String() = %q", s)
	}
}

func TestGroupings(t *testing.T) {
	for _, tok := range []Token{GOTO, THEN, ELSE, GOSUB, LIST, RENUM, EDIT, LLIST, DELETE, RUN, RESUME, AUTO, ERL, RESTORE, RETURN} {
		if !TakesLineNumber(tok) {
			t.Errorf("%#x should take a line number", tok)
		}
	}
	if TakesLineNumber(PRINT) {
		t.Error("PRINT should not take a line number")
	}
	if !IsOperator(Minus) || IsOperator(0xee) {
		t.Error("operator grouping wrong")
	}
	for c, want := range map[byte]Token{'>': Greater, '\\': IntDiv, '^': Power} {
		if got, ok := OperatorFor(c); !ok || got != want {
			t.Errorf("OperatorFor(%q) = %#x", c, got)
		}
	}
	if !IsAlwaysRecognized("FN") || IsAlwaysRecognized("PRINT") {
		t.Error("always-recognized grouping wrong")
	}

	sizes := map[byte]int{
		ByteConst: 1, 0xff: 1, OctalConst: 2, HexConst: 2, LineNumber: 2,
		IntConst: 2, SingleConst: 4, DoubleConst: 8, 0x00: 4, 'A': 0, Digit0: 0,
	}
	for b, want := range sizes {
		if got := PayloadSize(b); got != want {
			t.Errorf("PayloadSize(%#x) = %d, want %d", b, got, want)
		}
	}
	if !IsNumberToken(Const10) || !IsNumberToken(Digit9) || IsNumberToken(LineNumber) {
		t.Error("number token grouping wrong")
	}
}
