// Package config reads and writes the application's persisted settings
// file. Ported from GlobalAudioBase::Settings::map() (the "Audio.Volume"/
// "Audio.Muted" key pair) and Assistants/SimpleTomlFileIO.hpp, using
// github.com/BurntSushi/toml in place of the original's SettingsMap +
// toml++ reflection layer since Go struct tags already give toml.Decode/
// Encode the field mapping it needs.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Audio mirrors GlobalAudioBase::Settings: the two fields actually
// persisted across runs.
type Audio struct {
	Volume float32 `toml:"Volume"`
	Muted  bool    `toml:"Muted"`
}

// Video holds the viewport settings the original leaves to host-specific
// code; named here so a complete settings file has a home for them.
type Video struct {
	ViewportScale int    `toml:"ViewportScale"`
	BorderColor   uint32 `toml:"BorderColor"`
	ViewportAlpha uint8  `toml:"ViewportAlpha"`
}

// Config is the full persisted settings document.
type Config struct {
	Audio Audio `toml:"Audio"`
	Video Video `toml:"Video"`
}

// Default returns the settings a fresh install starts with.
func Default() Config {
	return Config{
		Audio: Audio{Volume: 1.0, Muted: false},
		Video: Video{ViewportScale: 1, BorderColor: 0xFF000000, ViewportAlpha: 0xFF},
	}
}

// Load reads and decodes path. A missing file returns Default() rather
// than an error, matching the host's "settings are optional, defaults
// apply" startup behavior.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return cfg, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}

// Write encodes cfg to path, creating or truncating it.
func Write(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode %s: %w", path, err)
	}
	return nil
}
