package config

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/SvenDH/card-wars/game"
)

// Config holds process settings. Values come from the environment (optionally a .env
// file) and are then overridden by command line flags.
type Config struct {
	Addr      string        `env:"ADDR" envDefault:":8080"`
	DB        string        `env:"DB" envDefault:"cardwars.db"`
	PublicDir string        `env:"PUBLIC_DIR" envDefault:"./public"`
	Cards     string        `env:"CARDS"`
	LoadDelay time.Duration `env:"LOAD_DELAY" envDefault:"1s"`
	Seed      int64         `env:"SEED"`
	StartMana int           `env:"START_MANA" envDefault:"4"`
	LogLevel  string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string        `env:"LOG_FILE"`
	JWTSecret string        `env:"JWT_SECRET"`
}

const Prefix = "CARDWARS_"

// Load reads dotenv files (missing ones are ignored) and parses the environment.
func Load(dotenv ...string) (*Config, error) {
	if len(dotenv) == 0 {
		dotenv = []string{".env"}
	}
	for _, f := range dotenv {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: Prefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StartMana < 0 {
		return nil, fmt.Errorf("parse env: %sSTART_MANA must not be negative", Prefix)
	}
	return cfg, nil
}

// Secret returns the token signing secret. Without CARDWARS_JWT_SECRET a random one is
// generated; tokens then stop validating when the process restarts.
func (c *Config) Secret() (secret string, generated bool, err error) {
	if c.JWTSecret != "" {
		return c.JWTSecret, false, nil
	}
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", false, fmt.Errorf("generate jwt secret: %w", err)
	}
	c.JWTSecret = base64.StdEncoding.EncodeToString(b)
	return c.JWTSecret, true, nil
}

func (c *Config) Level() (logrus.Level, error) {
	return logrus.ParseLevel(c.LogLevel)
}

// Source returns the configured catalog source: the cards file if one is set, the
// embedded starter catalog otherwise.
func (c *Config) Source() (game.CatalogSource, error) {
	if c.Cards == "" {
		return game.NewTextSource(game.DefaultCards), nil
	}
	return game.NewFileSource(c.Cards)
}

// EconomyOptions turns the configured seed and starting mana into economy options.
// A zero seed means unseeded.
func (c *Config) EconomyOptions() []game.Option {
	opts := []game.Option{game.WithMana(c.StartMana)}
	if c.Seed != 0 {
		opts = append(opts, game.WithSeed(c.Seed))
	}
	return opts
}
