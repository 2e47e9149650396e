// Package main provides the entry point for the hodavoice demo shell.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/hodavoice/ui"
	"github.com/dgnsrekt/hodavoice/voice"
	"github.com/dgnsrekt/hodavoice/voice/backend/console"
	"github.com/dgnsrekt/hodavoice/voice/content"
	"github.com/dgnsrekt/hodavoice/voice/reading"
	"github.com/dgnsrekt/hodavoice/voice/speech"
	"github.com/dgnsrekt/hodavoice/voice/wake"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	wakeWord    string
	policy      string
	wakeTimeout time.Duration
	speechSpeed float64
	noWakeWord  bool
	watchConfig bool

	rootCmd = &cobra.Command{
		Use:           "hodavoice [FILE]",
		Short:         "Read markdown out loud, hands free",
		Long:          "\nA voice-driven markdown reader. Type what you would say — prefix commands with the wake word — and the page is read back block by block.",
		SilenceErrors: false,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		RunE:          execute,
	}
)

// sourceFromArg reads markdown from a file argument, or stdin when the
// argument is "-" or absent with piped input.
func sourceFromArg(arg string) (string, string, error) {
	if arg == "" || arg == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", "", fmt.Errorf("unable to read stdin: %w", err)
		}
		return string(b), "", nil
	}
	b, err := os.ReadFile(arg)
	if err != nil {
		return "", "", fmt.Errorf("unable to open file: %w", err)
	}
	path, err := filepath.Abs(arg)
	if err != nil {
		path = arg
	}
	return string(b), path, nil
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(_ *cobra.Command, args []string) error {
	arg := ""
	if len(args) == 1 {
		arg = args[0]
	}
	if arg == "" {
		if piped, err := stdinIsPipe(); err != nil {
			return err
		} else if !piped {
			return fmt.Errorf("missing markdown source: pass a file or pipe markdown on stdin")
		}
	}

	document, path, err := sourceFromArg(arg)
	if err != nil {
		return err
	}

	cfg, err := voice.LoadConfigFromViper()
	if err != nil {
		return err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "hodavoice",
	})
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	return run(cfg, logger, document, path)
}

// run assembles the voice components and hands them to the shell.
func run(cfg voice.Config, logger *log.Logger, document, path string) error {
	clock := voice.SystemClock()

	backend := console.New(logger.WithPrefix("speech"), speechSpeed)
	speaker, err := speech.NewCoordinator(backend, voice.NopRecognizer(), clock, cfg.Speech)
	if err != nil {
		return err
	}
	speaker.SetLogger(logger.WithPrefix("speech"))
	speaker.SetEnabled(cfg.Enabled)

	source := content.NewExtractor(cfg.Reading.SkipCodeBlocks)
	source.SetSource([]byte(document))

	visual := ui.NewVisual()
	session := reading.NewSession(speaker, source, visual, clock, cfg.Reading)
	session.SetLogger(logger.WithPrefix("reading"))

	machine := wake.NewMachine(cfg.Wake, clock)
	machine.SetLogger(logger.WithPrefix("wake"))

	if watchConfig && viper.ConfigFileUsed() != "" {
		reload := func() (voice.Config, error) {
			if err := viper.ReadInConfig(); err != nil {
				return voice.Config{}, err
			}
			return voice.LoadConfigFromViper()
		}
		watcher, err := voice.WatchConfig(viper.ConfigFileUsed(), reload, func(next voice.Config) {
			if err := speaker.ApplyConfig(next.Speech); err != nil {
				logger.Warn("config reload rejected", "error", err)
			}
			speaker.SetEnabled(next.Enabled)
		})
		if err != nil {
			logger.Warn("config watcher unavailable", "error", err)
		} else {
			defer watcher.Close() //nolint:errcheck
		}
	}

	p := ui.NewProgram(ui.Config{
		DocumentPath: path,
		Document:     document,
		Voice:        cfg,
		Session:      session,
		Speaker:      speaker,
		Machine:      machine,
		Source:       source,
		Visual:       visual,
		Logger:       logger,
	})
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().StringVar(&wakeWord, "wake-word", "", "wake phrase that must precede commands")
	rootCmd.Flags().StringVar(&policy, "policy", "", "speech concurrency policy (replace/queue/reject)")
	rootCmd.Flags().DurationVar(&wakeTimeout, "timeout", 0, "inactivity window before the wake state expires")
	rootCmd.Flags().BoolVar(&noWakeWord, "no-wake-word", false, "accept commands without the wake phrase")
	rootCmd.Flags().Float64Var(&speechSpeed, "speed", 20.0, "simulated speech speed multiplier")
	rootCmd.Flags().BoolVar(&watchConfig, "watch-config", false, "reload speech settings when the config file changes")

	_ = viper.BindPFlag("voice.wake.phrase", rootCmd.Flags().Lookup("wake-word"))
	_ = viper.BindPFlag("voice.speech.policy", rootCmd.Flags().Lookup("policy"))

	voice.SetDefaults()

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("timeout") {
			viper.Set("voice.wake.timeout", wakeTimeout.String())
		}
		if noWakeWord {
			viper.Set("voice.wake.required", false)
		}
		return nil
	}

	rootCmd.AddCommand(configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "hodavoice")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "hodavoice")}, dirs...)
	}

	if c := os.Getenv("HODAVOICE_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("hodavoice")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("hoda")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}

	configFile = filepath.Join(dirs[0], "hodavoice.yml")
}
