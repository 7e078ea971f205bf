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

const defaultConfig = `# enable debug logging
debug: false

# synthesis worker
worker:
  host: "127.0.0.1"
  port: 5123
  # python interpreter used to run the worker script
  python: "python3"
  # explicit path to tts_server.py; resolved from the working tree when empty
  # script: "/path/to/tts_server.py"
  # bundled resources dir for packaged deployments
  # resources_dir: "/opt/app/resources"
  # load the model eagerly after start
  preload: false
  startup_attempts: 60
  probe_interval: "1s"
  probe_timeout: "2s"
  request_timeout: "120s"

# audio cache
cache:
  # override the platform audio cache directory
  # dir: "~/.cache/EnglishLearningApp/audio_cache"
  # in-memory cache bound, in bytes
  memory_capacity: 33554432

# playback
playback:
  enabled: true
  volume: 1.0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Edit the ttsd config file",
	Long:    "\nEdit the ttsd config file. We'll use EDITOR to determine which editor to use. If the config file doesn't exist, it will be created.",
	Example: "ttsd config\nttsd config --config path/to/ttsd.yml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("ttsd", configFile)
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
