// Package config reads the TOML description of an election run.
package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/taurusgroup/vote-ledger/internal/params"
	"github.com/taurusgroup/vote-ledger/pkg/ledger"
)

// Config describes an election run.
type Config struct {
	// Difficulty is the number of leading '0' characters of every block hash.
	Difficulty int `toml:"difficulty"`
	// Voters is the number of voters to register.
	Voters int `toml:"voters"`
	// Votes are the values cast by the voters, in order. Voters without a value abstain.
	Votes []int `toml:"votes"`
	// Workers is the number of goroutines used for mining and audits, one per CPU if 0.
	Workers int `toml:"workers"`
	// KeyBits is the size of the election modulus.
	KeyBits int `toml:"key_bits"`
	// MiningTimeout bounds the time spent sealing a block, unbounded if 0.
	MiningTimeout Duration `toml:"mining_timeout"`
}

// Duration is a time.Duration written as a string such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the configuration of the demonstration run: three voters voting 1, 0, 1.
func Default() *Config {
	return &Config{
		Difficulty:    params.Difficulty,
		Voters:        3,
		Votes:         []int{1, 0, 1},
		KeyBits:       params.BitsPaillier,
		MiningTimeout: Duration{time.Minute},
	}
}

// Read decodes a configuration from r. Missing keys keep their default value.
func Read(r io.Reader) (*Config, error) {
	c := new(Config)
	md, err := toml.DecodeReader(r, c)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return complete(c, md)
}

// ReadFile decodes the configuration file at path.
func ReadFile(path string) (*Config, error) {
	c := new(Config)
	md, err := toml.DecodeFile(path, c)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return complete(c, md)
}

// complete fills the keys missing from md with their default, and validates c.
// Decoding into a zero Config keeps default slices from being partially overwritten.
func complete(c *Config, md toml.MetaData) (*Config, error) {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown key %q", undecoded[0].String())
	}
	d := Default()
	defaults := map[string]func(){
		"difficulty":     func() { c.Difficulty = d.Difficulty },
		"voters":         func() { c.Voters = d.Voters },
		"votes":          func() { c.Votes = d.Votes },
		"workers":        func() { c.Workers = d.Workers },
		"key_bits":       func() { c.KeyBits = d.KeyBits },
		"mining_timeout": func() { c.MiningTimeout = d.MiningTimeout },
	}
	for key, apply := range defaults {
		if !md.IsDefined(key) {
			apply()
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// Validate checks that c describes a run that can complete.
func (c *Config) Validate() error {
	switch {
	case c.Difficulty < 0 || c.Difficulty > ledger.MaxDifficulty:
		return fmt.Errorf("config: %w", ledger.ErrDifficulty)
	case c.Voters < 0:
		return errors.New("config: voters must not be negative")
	case len(c.Votes) > c.Voters:
		return fmt.Errorf("config: %d votes for %d voters", len(c.Votes), c.Voters)
	case c.KeyBits < 32 || c.KeyBits%2 != 0:
		return fmt.Errorf("config: invalid key size %d", c.KeyBits)
	case c.MiningTimeout.Duration < 0:
		return errors.New("config: mining_timeout must not be negative")
	}
	for i, v := range c.Votes {
		if v != 0 && v != 1 {
			return fmt.Errorf("config: vote %d is %d, must be 0 or 1", i, v)
		}
	}
	return nil
}
