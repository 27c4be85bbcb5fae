package configuration

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultPath is the settings file used when the caller does not name one.
const DefaultPath = "gwbasic.cfg"

// localOverlay is read after the main file; its keys win.
const localOverlay = "gwbasic.local.cfg"

// Config holds INI style settings grouped by section.
type Config struct {
	settings map[string]map[string]string
	filePath string
	mu       sync.RWMutex
}

var (
	globalConfig *Config
	once         sync.Once
)

// sectionOrder fixes the order sections are written in.
var sectionOrder = []string{"Program", "Tokenizer", "Library", "Debug"}

// Initialize loads the global configuration. A missing file is created with defaults.
func Initialize(configPath string) error {
	var err error
	once.Do(func() {
		globalConfig, err = loadConfig(configPath)
		if err != nil {
			return
		}
		overlay := filepath.Join(filepath.Dir(configPath), localOverlay)
		if _, statErr := os.Stat(overlay); statErr == nil {
			// overlay errors leave the base settings in place
			_ = globalConfig.mergeFile(overlay)
		}
	})
	return err
}

func loadConfig(filePath string) (*Config, error) {
	config := &Config{
		settings: make(map[string]map[string]string),
		filePath: filePath,
	}
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		config.createDefaultConfig()
		if err := config.saveToFile(); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		return config, nil
	}

	if err := config.mergeFile(filePath); err != nil {
		return nil, err
	}
	return config, nil
}

// mergeFile reads an INI file on top of the current settings.
func (c *Config) mergeFile(filePath string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.parse(file)
}

// parse reads `[Section]` headers and `key = value` pairs. Lines starting
// with ';' or '#' are comments; keys outside a section are ignored.
func (c *Config) parse(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	currentSection := ""

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			currentSection = strings.TrimSpace(line[1 : len(line)-1])
			if c.settings[currentSection] == nil {
				c.settings[currentSection] = make(map[string]string)
			}
			continue
		}

		if currentSection == "" {
			continue
		}
		if key, value, ok := strings.Cut(line, "="); ok {
			c.settings[currentSection][strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}
	return scanner.Err()
}

// createDefaultConfig fills in every key the module reads.
func (c *Config) createDefaultConfig() {
	c.settings["Program"] = map[string]string{
		"max_line_number": "65535",
		"allow_protect":   "false",
		"allow_code_poke": "false",
		"code_start":      "4718",
		"max_memory":      "65534",
	}

	c.settings["Tokenizer"] = map[string]string{
		"grammar": "all",
	}

	c.settings["Library"] = map[string]string{
		"database": "programs.db",
	}

	c.settings["Debug"] = map[string]string{
		"enable_debug_logging": "true",
		"log_level":            "INFO",
		"log_file":             "gwbasic.log",
		"max_log_size_mb":      "10",
		"log_rotation_count":   "3",
		"log_tokenizer":        "false",
		"log_program":          "true",
		"log_mbf":              "false",
		"log_cipher":           "false",
		"log_library":          "true",
		"log_config":           "true",
		"log_general":          "true",
	}
}

func (c *Config) saveToFile() error {
	dir := filepath.Dir(c.filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(c.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "; GW-BASIC program store configuration\n")
	fmt.Fprintf(w, "; Generated automatically - modify with care\n;\n\n")

	for _, section := range c.orderedSections() {
		settings := c.settings[section]
		fmt.Fprintf(w, "[%s]\n", section)

		keys := make([]string, 0, len(settings))
		for key := range settings {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			fmt.Fprintf(w, "%s = %s\n", key, settings[key])
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

// orderedSections lists known sections first, then any others alphabetically.
func (c *Config) orderedSections() []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range sectionOrder {
		if _, ok := c.settings[s]; ok {
			out = append(out, s)
			seen[s] = true
		}
	}
	var extra []string
	for s := range c.settings {
		if !seen[s] {
			extra = append(extra, s)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

func (c *Config) get(section, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if sectionMap, exists := c.settings[section]; exists {
		value, ok := sectionMap[key]
		return value, ok
	}
	return "", false
}

// GetString returns a string value or the default.
func GetString(section, key, defaultValue string) string {
	if globalConfig == nil {
		return defaultValue
	}
	if value, ok := globalConfig.get(section, key); ok {
		return value
	}
	return defaultValue
}

// GetInt returns an integer value or the default. Hex values need a 0x prefix.
func GetInt(section, key string, defaultValue int) int {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := strconv.ParseInt(str, 0, 64); err == nil {
		return int(value)
	}
	return defaultValue
}

// GetBool returns a boolean value or the default.
func GetBool(section, key string, defaultValue bool) bool {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := strconv.ParseBool(str); err == nil {
		return value
	}
	return defaultValue
}

// GetDuration returns a duration value or the default.
func GetDuration(section, key string, defaultValue time.Duration) time.Duration {
	str := GetString(section, key, "")
	if str == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(str); err == nil {
		return value
	}
	return defaultValue
}

// GetSection returns a copy of all key-value pairs of a section.
func GetSection(sectionName string) map[string]string {
	result := make(map[string]string)
	if globalConfig == nil {
		return result
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	for key, value := range globalConfig.settings[sectionName] {
		result[key] = value
	}
	return result
}

// SetString changes a value in memory; Save persists it.
func SetString(section, key, value string) {
	if globalConfig == nil {
		return
	}

	globalConfig.mu.Lock()
	defer globalConfig.mu.Unlock()
	if globalConfig.settings[section] == nil {
		globalConfig.settings[section] = make(map[string]string)
	}
	globalConfig.settings[section][key] = value
}

// Save writes the current configuration back to its file.
func Save() error {
	if globalConfig == nil {
		return fmt.Errorf("configuration not initialized")
	}

	globalConfig.mu.RLock()
	defer globalConfig.mu.RUnlock()
	return globalConfig.saveToFile()
}
