package oleauto

import (
	"github.com/caarlos0/env/v11"
)

// Config holds the foreign environment settings.
type Config struct {
	// InitialPages is the number of 64KB pages the foreign heap starts with.
	InitialPages uint32 `env:"OLEAUTO_HEAP_INITIAL_PAGES" envDefault:"1"`

	// MaxPages caps heap growth. Allocations beyond it fail.
	// 256 = 16MB, 1024 = 64MB
	MaxPages uint32 `env:"OLEAUTO_HEAP_MAX_PAGES" envDefault:"256"`

	// Locale is the LCID used by convenience calls that do not take one.
	Locale uint32 `env:"OLEAUTO_LOCALE" envDefault:"1024"`
}

// DefaultConfig returns the configuration used when nil is passed.
func DefaultConfig() Config {
	return Config{
		InitialPages: 1,
		MaxPages:     256,
		Locale:       0x0400,
	}
}

// LoadConfig reads the configuration from OLEAUTO_* environment variables,
// falling back to defaults for unset ones.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.MaxPages < cfg.InitialPages {
		cfg.MaxPages = cfg.InitialPages
	}
	return cfg, nil
}
