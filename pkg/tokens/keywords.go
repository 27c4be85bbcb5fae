package tokens

import (
	"fmt"
	"strings"

	"github.com/antibyte/gwbasic/pkg/configuration"
	"github.com/antibyte/gwbasic/pkg/logger"
)

// Grammar selects which dialect's keywords a table knows.
type Grammar uint8

const (
	PCjr Grammar = 1 << iota
	Tandy
	Advanced

	All = PCjr | Tandy | Advanced
)

var grammarNames = map[string]Grammar{
	"pcjr":     PCjr,
	"tandy":    Tandy,
	"advanced": Advanced,
	"gwbasic":  All,
	"all":      All,
}

// ParseGrammar reads a grammar from names such as "all" or "pcjr,tandy".
func ParseGrammar(s string) (Grammar, error) {
	var g Grammar
	for _, name := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ',' || r == '|' || r == '+' || r == ' '
	}) {
		v, ok := grammarNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown grammar %q", name)
		}
		g |= v
	}
	if g == 0 {
		return 0, fmt.Errorf("empty grammar %q", s)
	}
	return g, nil
}

// GrammarFromConfig returns the grammar named by Tokenizer.grammar, or All.
func GrammarFromConfig() Grammar {
	name := configuration.GetString("Tokenizer", "grammar", "all")
	g, err := ParseGrammar(name)
	if err != nil {
		logger.ConfigWarn("Tokenizer.grammar: %v, using all", err)
		return All
	}
	return g
}

func (g Grammar) String() string {
	if g == All {
		return "all"
	}
	var names []string
	for _, n := range []struct {
		name string
		bit  Grammar
	}{{"pcjr", PCjr}, {"tandy", Tandy}, {"advanced", Advanced}} {
		if g&n.bit != 0 {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, ",")
}

type definition struct {
	text    string
	token   Token
	grammar Grammar
}

var definitions = []definition{
	{"END", 0x81, All},
	{"FOR", 0x82, All},
	{"NEXT", 0x83, All},
	{"DATA", 0x84, All},
	{"INPUT", 0x85, All},
	{"DIM", 0x86, All},
	{"READ", 0x87, All},
	{"LET", 0x88, All},
	{"GOTO", 0x89, All},
	{"RUN", 0x8a, All},
	{"IF", 0x8b, All},
	{"RESTORE", 0x8c, All},
	{"GOSUB", 0x8d, All},
	{"RETURN", 0x8e, All},
	{"REM", 0x8f, All},
	{"STOP", 0x90, All},
	{"PRINT", 0x91, All},
	{"CLEAR", 0x92, All},
	{"LIST", 0x93, All},
	{"NEW", 0x94, All},
	{"ON", 0x95, All},
	{"WAIT", 0x96, All},
	{"DEF", 0x97, All},
	{"POKE", 0x98, All},
	{"CONT", 0x99, All},
	{"OUT", 0x9c, All},
	{"LPRINT", 0x9d, All},
	{"LLIST", 0x9e, All},
	{"WIDTH", 0xa0, All},
	{"ELSE", 0xa1, All},
	{"TRON", 0xa2, All},
	{"TROFF", 0xa3, All},
	{"SWAP", 0xa4, All},
	{"ERASE", 0xa5, All},
	{"EDIT", 0xa6, All},
	{"ERROR", 0xa7, All},
	{"RESUME", 0xa8, All},
	{"DELETE", 0xa9, All},
	{"AUTO", 0xaa, All},
	{"RENUM", 0xab, All},
	{"DEFSTR", 0xac, All},
	{"DEFINT", 0xad, All},
	{"DEFSNG", 0xae, All},
	{"DEFDBL", 0xaf, All},
	{"LINE", 0xb0, All},
	{"WHILE", 0xb1, All},
	{"WEND", 0xb2, All},
	{"CALL", 0xb3, All},
	{"WRITE", 0xb7, All},
	{"OPTION", 0xb8, All},
	{"RANDOMIZE", 0xb9, All},
	{"OPEN", 0xba, All},
	{"CLOSE", 0xbb, All},
	{"LOAD", 0xbc, All},
	{"MERGE", 0xbd, All},
	{"SAVE", 0xbe, All},
	{"COLOR", 0xbf, All},
	{"CLS", 0xc0, All},
	{"MOTOR", 0xc1, All},
	{"BSAVE", 0xc2, All},
	{"BLOAD", 0xc3, All},
	{"SOUND", 0xc4, All},
	{"BEEP", 0xc5, All},
	{"PSET", 0xc6, All},
	{"PRESET", 0xc7, All},
	{"SCREEN", 0xc8, All},
	{"KEY", 0xc9, All},
	{"LOCATE", 0xca, All},
	{"TO", 0xcc, All},
	{"THEN", 0xcd, All},
	{"TAB(", 0xce, All},
	{"STEP", 0xcf, All},
	{"USR", 0xd0, All},
	{"FN", 0xd1, All},
	{"SPC(", 0xd2, All},
	{"NOT", 0xd3, All},
	{"ERL", 0xd4, All},
	{"ERR", 0xd5, All},
	{"STRING$", 0xd6, All},
	{"USING", 0xd7, All},
	{"INSTR", 0xd8, All},
	{"'", 0xd9, All},
	{"VARPTR", 0xda, All},
	{"CSRLIN", 0xdb, All},
	{"POINT", 0xdc, All},
	{"OFF", 0xdd, All},
	{"INKEY$", 0xde, All},
	{">", 0xe6, All},
	{"=", 0xe7, All},
	{"<", 0xe8, All},
	{"+", 0xe9, All},
	{"-", 0xea, All},
	{"*", 0xeb, All},
	{"/", 0xec, All},
	{"^", 0xed, All},
	{"AND", 0xee, All},
	{"OR", 0xef, All},
	{"XOR", 0xf0, All},
	{"EQV", 0xf1, All},
	{"IMP", 0xf2, All},
	{"MOD", 0xf3, All},
	{"\\", 0xf4, All},
	{"CVI", 0xfd81, All},
	{"CVS", 0xfd82, All},
	{"CVD", 0xfd83, All},
	{"MKI$", 0xfd84, All},
	{"MKS$", 0xfd85, All},
	{"MKD$", 0xfd86, All},
	{"EXTERR", 0xfd8b, All},
	{"FILES", 0xfe81, All},
	{"FIELD", 0xfe82, All},
	{"SYSTEM", 0xfe83, All},
	{"NAME", 0xfe84, All},
	{"LSET", 0xfe85, All},
	{"RSET", 0xfe86, All},
	{"KILL", 0xfe87, All},
	{"PUT", 0xfe88, All},
	{"GET", 0xfe89, All},
	{"RESET", 0xfe8a, All},
	{"COMMON", 0xfe8b, All},
	{"CHAIN", 0xfe8c, All},
	{"DATE$", 0xfe8d, All},
	{"TIME$", 0xfe8e, All},
	{"PAINT", 0xfe8f, All},
	{"COM", 0xfe90, All},
	{"CIRCLE", 0xfe91, All},
	{"DRAW", 0xfe92, All},
	{"PLAY", 0xfe93, All},
	{"TIMER", 0xfe94, All},
	{"ERDEV", 0xfe95, All},
	{"IOCTL", 0xfe96, All},
	{"CHDIR", 0xfe97, All},
	{"MKDIR", 0xfe98, All},
	{"RMDIR", 0xfe99, All},
	{"SHELL", 0xfe9a, All},
	{"ENVIRON", 0xfe9b, All},
	{"VIEW", 0xfe9c, All},
	{"WINDOW", 0xfe9d, All},
	{"PMAP", 0xfe9e, All},
	{"PALETTE", 0xfe9f, All},
	{"LCOPY", 0xfea0, All},
	{"CALLS", 0xfea1, All},
	{"PCOPY", 0xfea5, All},
	{"LOCK", 0xfea7, All},
	{"UNLOCK", 0xfea8, All},
	{"LEFT$", 0xff81, All},
	{"RIGHT$", 0xff82, All},
	{"MID$", 0xff83, All},
	{"SGN", 0xff84, All},
	{"INT", 0xff85, All},
	{"ABS", 0xff86, All},
	{"SQR", 0xff87, All},
	{"RND", 0xff88, All},
	{"SIN", 0xff89, All},
	{"LOG", 0xff8a, All},
	{"EXP", 0xff8b, All},
	{"COS", 0xff8c, All},
	{"TAN", 0xff8d, All},
	{"ATN", 0xff8e, All},
	{"FRE", 0xff8f, All},
	{"INP", 0xff90, All},
	{"POS", 0xff91, All},
	{"LEN", 0xff92, All},
	{"STR$", 0xff93, All},
	{"VAL", 0xff94, All},
	{"ASC", 0xff95, All},
	{"CHR$", 0xff96, All},
	{"PEEK", 0xff97, All},
	{"SPACE$", 0xff98, All},
	{"OCT$", 0xff99, All},
	{"HEX$", 0xff9a, All},
	{"LPOS", 0xff9b, All},
	{"CINT", 0xff9c, All},
	{"CSNG", 0xff9d, All},
	{"CDBL", 0xff9e, All},
	{"FIX", 0xff9f, All},
	{"PEN", 0xffa0, All},
	{"STICK", 0xffa1, All},
	{"STRIG", 0xffa2, All},
	{"EOF", 0xffa3, All},
	{"LOC", 0xffa4, All},
	{"LOF", 0xffa5, All},
	{"NOISE", NOISE, PCjr | Tandy},
	{"TERM", TERM, PCjr | Tandy},
}

// KeywordTable maps keyword text to tokens and back for one grammar.
type KeywordTable struct {
	grammar Grammar
	byText  map[string]Token
	byToken map[Token]string
}

// NewKeywordTable builds the table of keywords available under g. A keyword
// is included only if every dialect in g allows it.
func NewKeywordTable(g Grammar) *KeywordTable {
	t := &KeywordTable{
		grammar: g,
		byText:  make(map[string]Token, len(definitions)),
		byToken: make(map[Token]string, len(definitions)),
	}
	for _, d := range definitions {
		if d.grammar&g != g {
			continue
		}
		t.byText[d.text] = d.token
		t.byToken[d.token] = d.text
	}
	return t
}

// Grammar returns the grammar the table was built for.
func (t *KeywordTable) Grammar() Grammar { return t.grammar }

// Len returns the number of keywords in the table.
func (t *KeywordTable) Len() int { return len(t.byText) }

// Token returns the token for an upper case keyword.
func (t *KeywordTable) Token(word string) (Token, bool) {
	tok, ok := t.byText[word]
	return tok, ok
}

// Keyword returns the text of tok.
func (t *KeywordTable) Keyword(tok Token) (string, bool) {
	s, ok := t.byToken[tok]
	return s, ok
}

// Lookup decodes the keyword at the start of b and returns its text, token
// and encoded width.
func (t *KeywordTable) Lookup(b []byte) (string, Token, int, bool) {
	if len(b) == 0 {
		return "", 0, 0, false
	}
	if IsLeadByte(b[0]) {
		if len(b) < 2 {
			return "", 0, 0, false
		}
		tok := Token(b[0])<<8 | Token(b[1])
		s, ok := t.byToken[tok]
		return s, tok, 2, ok
	}
	tok := Token(b[0])
	s, ok := t.byToken[tok]
	return s, tok, 1, ok
}

// Words lists the keyword texts, in no particular order.
func (t *KeywordTable) Words() []string {
	words := make([]string, 0, len(t.byText))
	for w := range t.byText {
		words = append(words, w)
	}
	return words
}
