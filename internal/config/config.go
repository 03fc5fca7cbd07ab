package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour/styles"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	mdimage "github.com/samsaffron/mdstream/internal/image"
	"github.com/samsaffron/mdstream/internal/reveal"
)

const appName = "mdstream"

type Config struct {
	Reveal RevealConfig `mapstructure:"reveal" yaml:"reveal"`
	Render RenderConfig `mapstructure:"render" yaml:"render"`
	Image  ImageConfig  `mapstructure:"image" yaml:"image"`
	Theme  ThemeConfig  `mapstructure:"theme" yaml:"theme"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`

	// Path is the config file that was read, empty when none was found.
	Path string `mapstructure:"-" yaml:"-"`
}

// RevealConfig controls how fast a document is disclosed.
type RevealConfig struct {
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Steps    []reveal.Step `mapstructure:"steps" yaml:"steps"`
	MinChunk int           `mapstructure:"min_chunk" yaml:"min_chunk"`
}

type RenderConfig struct {
	Width          int     `mapstructure:"width" yaml:"width"` // 0 detects the terminal width
	HeadingScaleH1 float64 `mapstructure:"heading_scale_h1" yaml:"heading_scale_h1"`
	HeadingScale   float64 `mapstructure:"heading_scale" yaml:"heading_scale"`
	CodeTheme      string  `mapstructure:"code_theme" yaml:"code_theme"`       // chroma style
	GlamourStyle   string  `mapstructure:"glamour_style" yaml:"glamour_style"` // base palette
}

type ImageConfig struct {
	Protocol  string        `mapstructure:"protocol" yaml:"protocol"` // auto, kitty, iterm, sixel or none
	CacheSize int           `mapstructure:"cache_size" yaml:"cache_size"`
	MaxWidth  int           `mapstructure:"max_width" yaml:"max_width"` // pixels
	Timeout   time.Duration `mapstructure:"timeout" yaml:"timeout"`
	BaseDir   string        `mapstructure:"base_dir" yaml:"base_dir"`
}

// ThemeConfig allows customizing colors
type ThemeConfig struct {
	Primary   string `mapstructure:"primary" yaml:"primary,omitempty"`     // headings, list markers
	Secondary string `mapstructure:"secondary" yaml:"secondary,omitempty"` // subheadings, table headers
	Muted     string `mapstructure:"muted" yaml:"muted,omitempty"`         // labels, placeholders
	Text      string `mapstructure:"text" yaml:"text,omitempty"`
	Link      string `mapstructure:"link" yaml:"link,omitempty"`
	CodeBg    string `mapstructure:"code_bg" yaml:"code_bg,omitempty"`
	Quote     string `mapstructure:"quote" yaml:"quote,omitempty"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	File   string `mapstructure:"file" yaml:"file"`     // empty discards
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("reveal.interval", reveal.DefaultInterval)
	steps := make([]map[string]any, 0, len(reveal.DefaultPolicy().Steps))
	for _, s := range reveal.DefaultPolicy().Steps {
		steps = append(steps, map[string]any{"above": s.Above, "size": s.Size})
	}
	v.SetDefault("reveal.steps", steps)
	v.SetDefault("reveal.min_chunk", reveal.DefaultPolicy().Min)

	v.SetDefault("render.width", 0)
	v.SetDefault("render.heading_scale_h1", 2.0)
	v.SetDefault("render.heading_scale", 1.5)
	v.SetDefault("render.code_theme", "monokai")
	v.SetDefault("render.glamour_style", styles.DarkStyle)

	v.SetDefault("image.protocol", "auto")
	v.SetDefault("image.cache_size", 100)
	v.SetDefault("image.max_width", 800)
	v.SetDefault("image.timeout", 15*time.Second)
	v.SetDefault("image.base_dir", ".")

	for _, key := range []string{"primary", "secondary", "muted", "text", "link", "code_bg", "quote"} {
		v.SetDefault("theme."+key, "")
	}

	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.format", "text")
}

// Load reads config.yaml from the config directory or the working
// directory, or from path when it is not empty. A missing file is not an
// error. MDSTREAM_* environment variables override file values, e.g.
// MDSTREAM_REVEAL_INTERVAL=20ms.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(strings.ToUpper(appName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		configDir, err := GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get config dir: %w", err)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Path = v.ConfigFileUsed()
	cfg.Image.BaseDir = expandEnv(cfg.Image.BaseDir)
	cfg.Log.File = expandEnv(cfg.Log.File)
	return &cfg, nil
}

// Policy returns the reveal chunk policy.
func (c *Config) Policy() reveal.ChunkPolicy {
	return reveal.ChunkPolicy{Steps: c.Reveal.Steps, Min: c.Reveal.MinChunk}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Reveal.Interval <= 0 {
		return fmt.Errorf("reveal.interval must be positive, got %s", c.Reveal.Interval)
	}
	if err := c.Policy().Validate(); err != nil {
		return fmt.Errorf("reveal: %w", err)
	}
	if c.Render.Width < 0 {
		return fmt.Errorf("render.width must not be negative, got %d", c.Render.Width)
	}
	if c.Render.HeadingScaleH1 <= 0 || c.Render.HeadingScale <= 0 {
		return errors.New("render heading scales must be positive")
	}
	if _, ok := styles.DefaultStyles[c.Render.GlamourStyle]; !ok {
		return fmt.Errorf("render.glamour_style: unknown style %q", c.Render.GlamourStyle)
	}
	if _, err := mdimage.ParseCapability(c.Image.Protocol); err != nil {
		return fmt.Errorf("image.protocol: %w", err)
	}
	if c.Image.CacheSize <= 0 {
		return fmt.Errorf("image.cache_size must be positive, got %d", c.Image.CacheSize)
	}
	if c.Image.MaxWidth < 0 {
		return fmt.Errorf("image.max_width must not be negative, got %d", c.Image.MaxWidth)
	}
	if c.Image.Timeout <= 0 {
		return fmt.Errorf("image.timeout must be positive, got %s", c.Image.Timeout)
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// Marshal returns the effective config as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for mdstream.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, appName), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", appName), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}
