package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# Voice interaction configuration
voice:
  # Master switch for all spoken output
  enabled: true
  # Log level: debug, info, warn, error
  log_level: "info"

  # Wake word settings
  wake:
    # Phrase that must precede commands
    phrase: "hoda"
    # When false, bare commands are accepted without the phrase
    required: true
    # Inactivity window before the wake state expires
    timeout: "5s"

  # Speech output settings
  speech:
    # What happens when speech is requested mid-utterance:
    # replace, queue, or reject
    policy: "replace"
    # How long the microphone stays muted after speech ends,
    # so the recognizer doesn't hear the tail of the utterance
    settle_delay: "500ms"
    settings:
      # voice: "console"
      language: "en-US"
      rate: 1.0
      pitch: 1.0
      volume: 1.0

  # Page reading settings
  reading:
    # Silence between blocks
    inter_block_pause: "500ms"
    # Delay after a seek before reading restarts
    seek_settle: "300ms"
    # How far above the viewport a block may start and still be
    # included by "read from here"
    viewport_tolerance: 100
    scroll_enabled: true
    highlight_enabled: true
    skip_code_blocks: false
`

var configCmd = &cobra.Command{
	Use:     "config",
	Hidden:  false,
	Short:   "Edit the hodavoice config file",
	Long:    "\nEdit the hodavoice config file. We'll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.",
	Example: "hodavoice config\nhodavoice config --config path/to/config.yml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("hodavoice", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		// File doesn't exist yet, create all necessary directories and
		// write the default config file
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil { // some other error occurred
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
