package voice

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the voice configuration from Viper, then
// applies environment variable overrides on top.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("voice.enabled") {
		cfg.Enabled = viper.GetBool("voice.enabled")
	}
	if viper.IsSet("voice.log_level") {
		cfg.LogLevel = viper.GetString("voice.log_level")
	}

	// Wake settings
	if viper.IsSet("voice.wake.phrase") {
		cfg.Wake.Phrase = viper.GetString("voice.wake.phrase")
	}
	if viper.IsSet("voice.wake.required") {
		cfg.Wake.Required = viper.GetBool("voice.wake.required")
	}
	if viper.IsSet("voice.wake.timeout") {
		if d, err := time.ParseDuration(viper.GetString("voice.wake.timeout")); err == nil {
			cfg.Wake.Timeout = d
		}
	}

	// Speech settings
	if viper.IsSet("voice.speech.policy") {
		cfg.Speech.Policy = viper.GetString("voice.speech.policy")
	}
	if viper.IsSet("voice.speech.settle_delay") {
		if d, err := time.ParseDuration(viper.GetString("voice.speech.settle_delay")); err == nil {
			cfg.Speech.SettleDelay = d
		}
	}
	if viper.IsSet("voice.speech.settings.voice") {
		cfg.Speech.Settings.Voice = viper.GetString("voice.speech.settings.voice")
	}
	if viper.IsSet("voice.speech.settings.language") {
		cfg.Speech.Settings.Language = viper.GetString("voice.speech.settings.language")
	}
	if viper.IsSet("voice.speech.settings.rate") {
		cfg.Speech.Settings.Rate = viper.GetFloat64("voice.speech.settings.rate")
	}
	if viper.IsSet("voice.speech.settings.pitch") {
		cfg.Speech.Settings.Pitch = viper.GetFloat64("voice.speech.settings.pitch")
	}
	if viper.IsSet("voice.speech.settings.volume") {
		cfg.Speech.Settings.Volume = viper.GetFloat64("voice.speech.settings.volume")
	}

	// Reading settings
	if viper.IsSet("voice.reading.inter_block_pause") {
		if d, err := time.ParseDuration(viper.GetString("voice.reading.inter_block_pause")); err == nil {
			cfg.Reading.InterBlockPause = d
		}
	}
	if viper.IsSet("voice.reading.seek_settle") {
		if d, err := time.ParseDuration(viper.GetString("voice.reading.seek_settle")); err == nil {
			cfg.Reading.SeekSettle = d
		}
	}
	if viper.IsSet("voice.reading.viewport_tolerance") {
		cfg.Reading.ViewportTolerance = viper.GetInt("voice.reading.viewport_tolerance")
	}
	if viper.IsSet("voice.reading.scroll_enabled") {
		cfg.Reading.ScrollEnabled = viper.GetBool("voice.reading.scroll_enabled")
	}
	if viper.IsSet("voice.reading.highlight_enabled") {
		cfg.Reading.HighlightEnabled = viper.GetBool("voice.reading.highlight_enabled")
	}
	if viper.IsSet("voice.reading.skip_code_blocks") {
		cfg.Reading.SkipCodeBlocks = viper.GetBool("voice.reading.skip_code_blocks")
	}

	// Environment overrides win over file values.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid voice configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in Viper for the voice configuration.
func SetDefaults() {
	defaults := DefaultConfig()

	viper.SetDefault("voice.enabled", defaults.Enabled)
	viper.SetDefault("voice.log_level", defaults.LogLevel)

	viper.SetDefault("voice.wake.phrase", defaults.Wake.Phrase)
	viper.SetDefault("voice.wake.required", defaults.Wake.Required)
	viper.SetDefault("voice.wake.timeout", defaults.Wake.Timeout.String())

	viper.SetDefault("voice.speech.policy", defaults.Speech.Policy)
	viper.SetDefault("voice.speech.settle_delay", defaults.Speech.SettleDelay.String())
	viper.SetDefault("voice.speech.settings.language", defaults.Speech.Settings.Language)
	viper.SetDefault("voice.speech.settings.rate", defaults.Speech.Settings.Rate)
	viper.SetDefault("voice.speech.settings.pitch", defaults.Speech.Settings.Pitch)
	viper.SetDefault("voice.speech.settings.volume", defaults.Speech.Settings.Volume)

	viper.SetDefault("voice.reading.inter_block_pause", defaults.Reading.InterBlockPause.String())
	viper.SetDefault("voice.reading.seek_settle", defaults.Reading.SeekSettle.String())
	viper.SetDefault("voice.reading.viewport_tolerance", defaults.Reading.ViewportTolerance)
	viper.SetDefault("voice.reading.scroll_enabled", defaults.Reading.ScrollEnabled)
	viper.SetDefault("voice.reading.highlight_enabled", defaults.Reading.HighlightEnabled)
	viper.SetDefault("voice.reading.skip_code_blocks", defaults.Reading.SkipCodeBlocks)
}
