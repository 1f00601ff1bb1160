// Package config loads the dlhelper CLI defaults file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alanbriolat/dlhelper"
	"github.com/alanbriolat/dlhelper/generic"
)

// Config is the CLI defaults; command line flags override it.
type Config struct {
	Directory          string
	Partition          string
	SaveAs             bool
	OpenFolderWhenDone bool
	ShowBadge          generic.Option[bool]
	ErrorTitle         string
	ErrorMessage       string
	ProgressInterval   time.Duration
}

func Default() Config {
	return Config{
		Partition:        "persist:default",
		ProgressInterval: 200 * time.Millisecond,
	}
}

type yamlConfig struct {
	Directory          string `yaml:"directory"`
	Partition          string `yaml:"partition"`
	SaveAs             bool   `yaml:"save_as"`
	OpenFolderWhenDone bool   `yaml:"open_folder_when_done"`
	ShowBadge          *bool  `yaml:"show_badge"`
	ErrorTitle         string `yaml:"error_title"`
	ErrorMessage       string `yaml:"error_message"`
	ProgressInterval   string `yaml:"progress_interval"`
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dlhelper", "config.yaml"), nil
}

// Load reads path, or DefaultPath if path is empty. A missing file at DefaultPath is not an error.
func Load(path string) (Config, error) {
	if path != "" {
		return LoadFromFile(path)
	}
	path, err := DefaultPath()
	if err != nil {
		return Default(), nil
	}
	cfg, err := LoadFromFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromFile loads configuration from a YAML file, over Default.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Config, error) {
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.Directory != "" {
		cfg.Directory = expandHome(yc.Directory)
	}
	if yc.Partition != "" {
		cfg.Partition = yc.Partition
	}
	cfg.SaveAs = yc.SaveAs
	cfg.OpenFolderWhenDone = yc.OpenFolderWhenDone
	if yc.ShowBadge != nil {
		cfg.ShowBadge = generic.Some(*yc.ShowBadge)
	}
	cfg.ErrorTitle = yc.ErrorTitle
	cfg.ErrorMessage = yc.ErrorMessage
	if yc.ProgressInterval != "" {
		d, err := time.ParseDuration(yc.ProgressInterval)
		if err != nil {
			return Config{}, fmt.Errorf("parse progress_interval: %w", err)
		}
		cfg.ProgressInterval = d
	}
	return cfg, nil
}

// Options converts the defaults into dlhelper.Options.
func (c Config) Options() dlhelper.Options {
	return dlhelper.Options{
		SaveAs:             c.SaveAs,
		Directory:          c.Directory,
		ErrorTitle:         c.ErrorTitle,
		ErrorMessage:       c.ErrorMessage,
		OpenFolderWhenDone: c.OpenFolderWhenDone,
		ShowBadge:          c.ShowBadge,
	}
}

func expandHome(path string) string {
	if path != "~" && !hasHomePrefix(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

func hasHomePrefix(path string) bool {
	return len(path) > 1 && path[0] == '~' && (path[1] == '/' || path[1] == filepath.Separator)
}
