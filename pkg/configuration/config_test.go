package configuration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "gwbasic.cfg")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config file not written: %v", err)
	}
	if v, ok := cfg.get("Program", "max_line_number"); !ok || v != "65535" {
		t.Errorf("max_line_number = %q, %v; want 65535", v, ok)
	}

	// a second load reads the file that was just written
	again, err := loadConfig(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if v, _ := again.get("Tokenizer", "grammar"); v != "all" {
		t.Errorf("grammar = %q, want all", v)
	}
}

func TestParse(t *testing.T) {
	input := `
; comment
# another comment
orphan = ignored
[Program]
allow_code_poke = true
code_start=0x126E
[ Tokenizer ]
grammar = pcjr, tandy
`
	cfg := &Config{settings: make(map[string]map[string]string)}
	if err := cfg.parse(strings.NewReader(input)); err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	tests := []struct {
		section, key, want string
	}{
		{"Program", "allow_code_poke", "true"},
		{"Program", "code_start", "0x126E"},
		{"Tokenizer", "grammar", "pcjr, tandy"},
	}
	for _, tt := range tests {
		if got, _ := cfg.get(tt.section, tt.key); got != tt.want {
			t.Errorf("%s.%s = %q, want %q", tt.section, tt.key, got, tt.want)
		}
	}
	if _, ok := cfg.get("", "orphan"); ok {
		t.Errorf("key outside a section should be ignored")
	}
}

func TestTypedAccessors(t *testing.T) {
	saved := globalConfig
	defer func() { globalConfig = saved }()

	globalConfig = &Config{settings: map[string]map[string]string{
		"Program": {
			"code_start":      "0x126E",
			"max_memory":      "oops",
			"allow_code_poke": "true",
		},
	}}

	if got := GetInt("Program", "code_start", 0); got != 0x126E {
		t.Errorf("GetInt hex = %d, want %d", got, 0x126E)
	}
	if got := GetInt("Program", "max_memory", 42); got != 42 {
		t.Errorf("GetInt invalid = %d, want default 42", got)
	}
	if !GetBool("Program", "allow_code_poke", false) {
		t.Errorf("GetBool = false, want true")
	}
	if got := GetString("Missing", "key", "fallback"); got != "fallback" {
		t.Errorf("GetString missing = %q", got)
	}

	SetString("Library", "database", "x.db")
	if got := GetSection("Library")["database"]; got != "x.db" {
		t.Errorf("SetString/GetSection = %q", got)
	}
}
