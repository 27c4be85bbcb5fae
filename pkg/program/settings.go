package program

import (
	"github.com/antibyte/gwbasic/pkg/configuration"
	"github.com/antibyte/gwbasic/pkg/logger"
)

// Settings are the fixed parameters of a program store.
type Settings struct {
	// MaxLineNumber is the last line written by an ASCII save or listed.
	MaxLineNumber int
	// AllowProtect keeps programs loaded from protected files protected.
	// When false they load as ordinary, listable programs.
	AllowProtect bool
	// AllowCodePoke lets Poke modify program memory; otherwise pokes are
	// logged and ignored.
	AllowCodePoke bool
	// CodeStart is the memory address of the first program byte.
	CodeStart int
	// MaxMemory is the highest address program memory may reach.
	MaxMemory int
}

// DefaultSettings returns the settings of a stock GW-BASIC 3.23.
func DefaultSettings() Settings {
	return Settings{
		MaxLineNumber: 65535,
		AllowProtect:  false,
		AllowCodePoke: false,
		CodeStart:     0x126e,
		MaxMemory:     65534,
	}
}

// SettingsFromConfig reads the [Program] section, falling back to defaults.
func SettingsFromConfig() Settings {
	d := DefaultSettings()
	s := Settings{
		MaxLineNumber: configuration.GetInt("Program", "max_line_number", d.MaxLineNumber),
		AllowProtect:  configuration.GetBool("Program", "allow_protect", d.AllowProtect),
		AllowCodePoke: configuration.GetBool("Program", "allow_code_poke", d.AllowCodePoke),
		CodeStart:     configuration.GetInt("Program", "code_start", d.CodeStart),
		MaxMemory:     configuration.GetInt("Program", "max_memory", d.MaxMemory),
	}
	if s.CodeStart < 0 || s.CodeStart >= s.MaxMemory {
		logger.ConfigWarn("Program.code_start %d outside memory, using %d", s.CodeStart, d.CodeStart)
		s.CodeStart = d.CodeStart
		if s.MaxMemory <= s.CodeStart {
			s.MaxMemory = d.MaxMemory
		}
	}
	return s
}
