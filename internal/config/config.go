package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "daybook.db"
	DefaultLogName        = "daybook.log"
	appDir                = "daybook"
)

type Keymap struct {
	Quit       string `toml:"quit"`
	NextTab    string `toml:"next_tab"`
	PrevTab    string `toml:"prev_tab"`
	Add        string `toml:"add"`
	Up         string `toml:"up"`
	Down       string `toml:"down"`
	Toggle     string `toml:"toggle"`
	Delete     string `toml:"delete"`
	Edit       string `toml:"edit"`
	Confirm    string `toml:"confirm"`
	Cancel     string `toml:"cancel"`
	DayForward string `toml:"day_forward"`
	DayBack    string `toml:"day_back"`
	PickDate   string `toml:"pick_date"`
	Theme      string `toml:"theme"`
}

type LogConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	Output   string `toml:"output"`
	Filename string `toml:"filename"`
}

type ReminderConfig struct {
	Persist        bool   `toml:"persist"`
	DefaultMessage string `toml:"default_message"`
}

type Config struct {
	DBPath    string         `toml:"db_path"`
	DarkMode  bool           `toml:"dark_mode"`
	Log       LogConfig      `toml:"log"`
	Reminders ReminderConfig `toml:"reminders"`
	Keys      Keymap         `toml:"keys"`
}

// ResolveConfigPath returns the config file location under the user's
// config directory, falling back to the working directory.
func ResolveConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil || dir == "" {
		return DefaultConfigFileName
	}
	return filepath.Join(dir, appDir, DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath: filepath.Join(dir, DefaultDBName),
		Log: LogConfig{
			Level:    "info",
			Format:   "json",
			Output:   "file",
			Filename: filepath.Join(dir, DefaultLogName),
		},
		Reminders: ReminderConfig{
			Persist:        false,
			DefaultMessage: "Time to do your task!",
		},
		Keys: Keymap{
			Quit:       "ctrl+q",
			NextTab:    "tab",
			PrevTab:    "shift+tab",
			Add:        "a",
			Up:         "k",
			Down:       "j",
			Toggle:     " ",
			Delete:     "d",
			Edit:       "e",
			Confirm:    "enter",
			Cancel:     "esc",
			DayForward: "]",
			DayBack:    "[",
			PickDate:   "g",
			Theme:      "t",
		},
	}
}
