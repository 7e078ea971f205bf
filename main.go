// Package main provides the entry point for the ttsd CLI, which
// supervises the local text-to-speech worker and serves audio from its
// layered cache.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/lexibox/ttsd/internal/audio"
	"github.com/lexibox/ttsd/tts"
	"github.com/lexibox/ttsd/utils"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool
	noPlayback bool

	keyword = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#ECFD65"}).Render
	faint   = lipgloss.NewStyle().Faint(true).Render

	rootCmd = &cobra.Command{
		Use:   "ttsd",
		Short: "Supervise the local TTS worker and speak from its cache",
		Long: fmt.Sprintf("\nSupervise the local text-to-speech worker and %s most requests\nstraight from the audio cache, no worker required.", keyword("speak")),
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if viper.GetBool("debug") || debug {
				log.SetLevel(log.DebugLevel)
			}
			return nil
		},
	}

	speakCmd = &cobra.Command{
		Use:     "speak [text]",
		Short:   "Speak text, serving from cache when possible",
		Example: "ttsd speak \"Hello world!\"",
		Args:    cobra.ExactArgs(1),
		RunE:    runSpeak,
	}

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the TTS worker and wait until it is ready",
		Args:  cobra.NoArgs,
		RunE:  runStart,
	}

	stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop the TTS worker",
		Args:  cobra.NoArgs,
		RunE:  runStop,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show worker health and cache statistics",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}

	preloadCmd = &cobra.Command{
		Use:   "preload",
		Short: "Ask a running worker to load its model",
		Args:  cobra.NoArgs,
		RunE:  runPreload,
	}
)

// buildConfig layers the YAML config file under environment overrides.
func buildConfig() (tts.Config, error) {
	cfg := tts.DefaultConfig()

	if v := viper.GetString("worker.host"); v != "" {
		cfg.Worker.Host = v
	}
	if v := viper.GetInt("worker.port"); v != 0 {
		cfg.Worker.Port = v
	}
	if v := viper.GetString("worker.script"); v != "" {
		cfg.Worker.Script = utils.ExpandPath(v)
	}
	if v := viper.GetString("worker.resources_dir"); v != "" {
		cfg.Worker.ResourcesDir = utils.ExpandPath(v)
	}
	if v := viper.GetString("worker.python"); v != "" {
		cfg.Worker.Python = v
	}
	if viper.IsSet("worker.preload") {
		cfg.Worker.Preload = viper.GetBool("worker.preload")
	}
	if v := viper.GetInt("worker.startup_attempts"); v != 0 {
		cfg.Worker.StartupAttempts = v
	}
	if v := viper.GetDuration("worker.probe_interval"); v != 0 {
		cfg.Worker.ProbeInterval = v
	}
	if v := viper.GetDuration("worker.probe_timeout"); v != 0 {
		cfg.Worker.ProbeTimeout = v
	}
	if v := viper.GetDuration("worker.request_timeout"); v != 0 {
		cfg.Worker.RequestTimeout = v
	}
	if v := viper.GetString("cache.dir"); v != "" {
		cfg.Cache.Dir = utils.ExpandPath(v)
	}
	if v := viper.GetInt64("cache.memory_capacity"); v != 0 {
		cfg.Cache.MemoryCapacity = v
	}
	if viper.IsSet("playback.enabled") {
		cfg.Playback.Enabled = viper.GetBool("playback.enabled")
	}
	if v := viper.GetFloat64("playback.volume"); v != 0 {
		cfg.Playback.Volume = v
	}
	cfg.Debug = viper.GetBool("debug")

	// Environment wins over the file.
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse environment config: %w", err)
	}

	if noPlayback {
		cfg.Playback.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// newSpeaker constructs the full service object graph from config.
func newSpeaker(cfg tts.Config) (*tts.Speaker, *tts.Supervisor, error) {
	content, err := tts.NewContentCache(cfg.Cache)
	if err != nil {
		return nil, nil, err
	}

	client := tts.NewClient(cfg.Worker)
	sup := tts.NewSupervisor(cfg.Worker, client)

	var player audio.Player
	if cfg.Playback.Enabled {
		player = audio.NewOtoPlayer(cfg.Playback.Volume)
	} else {
		player = audio.NewMockPlayer()
	}

	return tts.NewSpeaker(cfg, sup, client, content, player), sup, nil
}

func runSpeak(_ *cobra.Command, args []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	speaker, _, err := newSpeaker(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Worker.RequestTimeout)
	defer cancel()

	spoken, err := speaker.Speak(ctx, args[0])
	if err != nil {
		return err
	}
	if !spoken {
		fmt.Println(faint("synthesis unavailable and nothing cached; run `ttsd start` first"))
		return nil
	}

	// Playback is asynchronous; hold the process open until the clip ends.
	if cfg.Playback.Enabled {
		waitForPlayback(speaker)
	}
	return nil
}

func runStart(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	speaker, _, err := newSpeaker(cfg)
	if err != nil {
		return err
	}

	budget := time.Duration(cfg.Worker.StartupAttempts)*cfg.Worker.ProbeInterval + 30*time.Second
	ctx, cancel := context.WithTimeout(context.Background(), budget)
	defer cancel()

	if err := speaker.Initialize(ctx); err != nil {
		return err
	}
	fmt.Println(keyword("worker ready"))
	return nil
}

func runStop(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	client := tts.NewClient(cfg.Worker)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// The CLI process did not spawn the worker, so there is no handle to
	// kill; a graceful shutdown request is the whole operation and its
	// failure means the worker was already stopped.
	if err := client.Shutdown(ctx); err != nil {
		log.Debug("shutdown request failed", "error", err)
	}
	fmt.Println("worker stopped")
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	content, err := tts.NewContentCache(cfg.Cache)
	if err != nil {
		return err
	}
	client := tts.NewClient(cfg.Worker)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Worker.ProbeTimeout+time.Second)
	defer cancel()

	health, ok := client.Health(ctx)

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	styled := func(s string) string {
		if isTerminal {
			return keyword(s)
		}
		return s
	}

	if !ok {
		fmt.Println("worker:", styled("unavailable"))
	} else {
		fmt.Println("worker:", styled(health.Status))
		fmt.Println("model loaded:", health.ModelLoaded)
		fmt.Println("device:", health.Device)
		fmt.Println("model cache:", health.CacheDir)
	}

	stats, err := content.Stats()
	if err != nil {
		return err
	}
	fmt.Println("audio cache:", content.Dir())
	fmt.Printf("cached clips: %d (%s)\n", stats.Entries, humanize.Bytes(uint64(stats.TotalBytes))) //nolint:gosec
	return nil
}

func runPreload(_ *cobra.Command, _ []string) error {
	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	client := tts.NewClient(cfg.Worker)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Worker.RequestTimeout)
	defer cancel()

	if err := client.Preload(ctx); err != nil {
		return err
	}
	fmt.Println(keyword("model loaded"))
	return nil
}

// waitForPlayback polls the playback slot until the current clip ends.
func waitForPlayback(speaker *tts.Speaker) {
	// Give the player a moment to enter the playing state.
	time.Sleep(100 * time.Millisecond)
	for speaker.Playing() {
		time.Sleep(50 * time.Millisecond)
	}
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

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	speakCmd.Flags().BoolVar(&noPlayback, "no-playback", false, "resolve audio without playing it")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))

	viper.SetDefault("worker.host", "127.0.0.1")
	viper.SetDefault("worker.port", 5123)
	viper.SetDefault("worker.python", "python3")
	viper.SetDefault("cache.dir", "")
	viper.SetDefault("playback.enabled", true)
	viper.SetDefault("playback.volume", 1.0)

	rootCmd.AddCommand(speakCmd, startCmd, stopCmd, statusCmd, preloadCmd, configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "ttsd")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "ttsd")}, dirs...)
	}

	if c := os.Getenv("TTSD_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("ttsd")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("ttsd")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", viper.ConfigFileUsed())
		return
	}

	if viper.ConfigFileUsed() == "" {
		configFile = filepath.Join(dirs[0], "ttsd.yml")
	}
	if err := ensureConfigFile(); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
