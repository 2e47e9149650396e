package voice

import (
	"fmt"
	"strings"
	"time"
)

// Config contains all configuration for the voice core.
type Config struct {
	// Global settings
	Enabled  bool   `yaml:"enabled" env:"HODA_ENABLED"`
	LogLevel string `yaml:"log_level" env:"HODA_LOG_LEVEL"`

	Wake    WakeConfig    `yaml:"wake"`
	Speech  SpeechConfig  `yaml:"speech"`
	Reading ReadingConfig `yaml:"reading"`
}

// WakeConfig configures the wake state machine.
type WakeConfig struct {
	Phrase   string        `yaml:"phrase" env:"HODA_WAKE_PHRASE"`
	Required bool          `yaml:"required" env:"HODA_WAKE_REQUIRED"`
	Timeout  time.Duration `yaml:"timeout" env:"HODA_WAKE_TIMEOUT"`
}

// SpeechConfig configures the speech queue coordinator.
type SpeechConfig struct {
	Policy      string        `yaml:"policy" env:"HODA_SPEECH_POLICY"`
	SettleDelay time.Duration `yaml:"settle_delay" env:"HODA_SPEECH_SETTLE_DELAY"`
	Settings    Settings      `yaml:"settings"`
}

// ReadingConfig configures reading sessions.
type ReadingConfig struct {
	InterBlockPause   time.Duration `yaml:"inter_block_pause" env:"HODA_READING_INTER_BLOCK_PAUSE"`
	SeekSettle        time.Duration `yaml:"seek_settle" env:"HODA_READING_SEEK_SETTLE"`
	ViewportTolerance int           `yaml:"viewport_tolerance" env:"HODA_READING_VIEWPORT_TOLERANCE"`
	ScrollEnabled     bool          `yaml:"scroll_enabled" env:"HODA_READING_SCROLL"`
	HighlightEnabled  bool          `yaml:"highlight_enabled" env:"HODA_READING_HIGHLIGHT"`
	SkipCodeBlocks    bool          `yaml:"skip_code_blocks" env:"HODA_READING_SKIP_CODE_BLOCKS"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		LogLevel: "info",
		Wake:     DefaultWakeConfig(),
		Speech:   DefaultSpeechConfig(),
		Reading:  DefaultReadingConfig(),
	}
}

// DefaultWakeConfig returns the default wake configuration.
func DefaultWakeConfig() WakeConfig {
	return WakeConfig{
		Phrase:   "hoda",
		Required: true,
		Timeout:  5 * time.Second,
	}
}

// DefaultSpeechConfig returns the default speech configuration.
func DefaultSpeechConfig() SpeechConfig {
	return SpeechConfig{
		Policy:      "replace",
		SettleDelay: 500 * time.Millisecond,
		Settings:    DefaultSettings(),
	}
}

// DefaultReadingConfig returns the default reading configuration.
func DefaultReadingConfig() ReadingConfig {
	return ReadingConfig{
		InterBlockPause:   500 * time.Millisecond,
		SeekSettle:        300 * time.Millisecond,
		ViewportTolerance: 100,
		ScrollEnabled:     true,
		HighlightEnabled:  true,
	}
}

// Validate checks the configuration for invalid values.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Wake.Phrase) == "" {
		return fmt.Errorf("%w: wake phrase must not be empty", ErrInvalidConfig)
	}
	if c.Wake.Timeout <= 0 {
		return fmt.Errorf("%w: wake timeout must be positive, got %v", ErrInvalidConfig, c.Wake.Timeout)
	}
	switch c.Speech.Policy {
	case "replace", "queue", "reject":
	default:
		return fmt.Errorf("%w: unknown speech policy %q", ErrInvalidConfig, c.Speech.Policy)
	}
	if c.Speech.SettleDelay < 0 {
		return fmt.Errorf("%w: settle delay must not be negative", ErrInvalidConfig)
	}
	if err := c.Speech.Settings.validate(); err != nil {
		return err
	}
	if c.Reading.InterBlockPause < 0 {
		return fmt.Errorf("%w: inter-block pause must not be negative", ErrInvalidConfig)
	}
	if c.Reading.SeekSettle < 0 {
		return fmt.Errorf("%w: seek settle must not be negative", ErrInvalidConfig)
	}
	if c.Reading.ViewportTolerance < 0 {
		return fmt.Errorf("%w: viewport tolerance must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (s Settings) validate() error {
	if s.Rate <= 0 || s.Rate > 4.0 {
		return fmt.Errorf("%w: rate must be in (0, 4], got %v", ErrInvalidConfig, s.Rate)
	}
	if s.Pitch <= 0 || s.Pitch > 2.0 {
		return fmt.Errorf("%w: pitch must be in (0, 2], got %v", ErrInvalidConfig, s.Pitch)
	}
	if s.Volume < 0 || s.Volume > 1.0 {
		return fmt.Errorf("%w: volume must be in [0, 1], got %v", ErrInvalidConfig, s.Volume)
	}
	return nil
}
