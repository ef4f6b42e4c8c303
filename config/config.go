// Package config loads docshelf-mcp settings from an optional config file,
// DOCSHELF_* environment variables and explicitly set command-line flags,
// in increasing order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "DOCSHELF"

// Config holds every setting of the server.
type Config struct {
	Roots            []string `mapstructure:"roots"`
	SizeFloor        int64    `mapstructure:"size_floor"`    // bytes; 0 selects the default, negative disables
	MaxFileSize      int64    `mapstructure:"max_file_size"` // bytes; 0 = unlimited
	Exclude          []string `mapstructure:"exclude"`
	PrefsFile        string   `mapstructure:"prefs_file"`
	SyncInterval     int      `mapstructure:"sync_interval"` // seconds; 0 disables
	HTTPAddr         string   `mapstructure:"http_addr"`     // empty disables the HTTP API
	MaxResults       int      `mapstructure:"max_results"`
	MaxRecent        int      `mapstructure:"max_recent"`
	PreviewLines     int      `mapstructure:"preview_lines"`
	PreviewCacheSize int      `mapstructure:"preview_cache_size"`
	LogLevel         string   `mapstructure:"log_level"`
	LogFile          string   `mapstructure:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Roots:            DefaultRoots(),
		SizeFloor:        0,
		MaxFileSize:      0,
		PrefsFile:        defaultPrefsFile(),
		SyncInterval:     300,
		MaxResults:       50,
		MaxRecent:        20,
		PreviewLines:     200,
		PreviewCacheSize: 64,
		LogLevel:         "info",
		LogFile:          defaultLogFile(),
	}
}

// DefaultRoots returns the user's Downloads, Documents, Desktop and Pictures
// directories followed by the home directory itself.
func DefaultRoots() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Documents"),
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Pictures"),
		home,
	}
}

func defaultPrefsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docshelf-mcp", "prefs.json")
}

func defaultLogFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "docshelf-mcp", "docshelf-mcp.log")
}

// Load reads the config file at path (optional, format from its extension)
// and DOCSHELF_* environment variables on top of the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("roots", defaults.Roots)
	v.SetDefault("size_floor", defaults.SizeFloor)
	v.SetDefault("max_file_size", defaults.MaxFileSize)
	v.SetDefault("exclude", defaults.Exclude)
	v.SetDefault("prefs_file", defaults.PrefsFile)
	v.SetDefault("sync_interval", defaults.SyncInterval)
	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("max_results", defaults.MaxResults)
	v.SetDefault("max_recent", defaults.MaxRecent)
	v.SetDefault("preview_lines", defaults.PreviewLines)
	v.SetDefault("preview_cache_size", defaults.PreviewCacheSize)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.normalize()
	return &cfg, nil
}

// ApplyFlags overrides settings with the flags that were set explicitly on
// fs. Flag names are the config keys with dashes instead of underscores.
func (c *Config) ApplyFlags(fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		value := getter.Get()
		switch strings.ReplaceAll(f.Name, "-", "_") {
		case "root", "roots":
			c.Roots, _ = value.([]string)
		case "exclude":
			c.Exclude, _ = value.([]string)
		case "size_floor":
			c.SizeFloor, _ = value.(int64)
		case "max_file_size":
			c.MaxFileSize, _ = value.(int64)
		case "prefs_file":
			c.PrefsFile, _ = value.(string)
		case "sync_interval":
			c.SyncInterval, _ = value.(int)
		case "http_addr":
			c.HTTPAddr, _ = value.(string)
		case "max_results":
			c.MaxResults, _ = value.(int)
		case "max_recent":
			c.MaxRecent, _ = value.(int)
		case "preview_lines":
			c.PreviewLines, _ = value.(int)
		case "preview_cache_size":
			c.PreviewCacheSize, _ = value.(int)
		case "log_level":
			c.LogLevel, _ = value.(string)
		case "log_file":
			c.LogFile, _ = value.(string)
		}
	})
	c.normalize()
}

// normalize expands "~" and makes paths absolute.
func (c *Config) normalize() {
	roots := make([]string, 0, len(c.Roots))
	for _, root := range c.Roots {
		if root = strings.TrimSpace(root); root != "" {
			roots = append(roots, absPath(root))
		}
	}
	c.Roots = roots
	if c.PrefsFile != "" {
		c.PrefsFile = absPath(c.PrefsFile)
	}
	if c.LogFile != "" {
		c.LogFile = absPath(c.LogFile)
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func absPath(path string) string {
	path = ExpandHome(path)
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// StringList is a repeatable string flag. Each value may also hold several
// comma-separated entries.
type StringList []string

func (s *StringList) String() string { return strings.Join(*s, ",") }

func (s *StringList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*s = append(*s, part)
		}
	}
	return nil
}

// Get implements flag.Getter.
func (s *StringList) Get() any { return []string(*s) }
