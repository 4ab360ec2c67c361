package ccutils

import (
	"os"
	"path/filepath"
)

// Config carries the environment-derived settings for one invocation.
// It is built once in Main and handed to the orchestrator; nothing below
// the CLI layer reads the environment directly, which keeps tests able to
// construct a Config by hand against fixture directories.
type Config struct {
	CargoHome string // CARGO_HOME, empty when unset
	Home      string // the user's home directory, empty when unresolvable
	CargoBin  string // external build tool, normally "cargo"
	Force     bool   // bypass the staleness check
	Verbose   bool   // debug logging and command echo
}

// LoadConfig snapshots the relevant environment.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.Reload()
	return cfg
}

// Reload re-reads the environment. Useful for callers that mutate the
// environment mid-process and want the container brought up to date.
func (c *Config) Reload() {
	c.CargoHome = os.Getenv("CARGO_HOME")
	c.Home = ""
	if home, err := os.UserHomeDir(); err == nil {
		c.Home = home
	}
	c.CargoBin = "cargo"
	if bin := os.Getenv("CCUTILS_CARGO"); bin != "" {
		c.CargoBin = bin
	}
}

// InstallDir resolves the directory binaries are installed into:
// $CARGO_HOME/bin when CARGO_HOME is set, otherwise $HOME/.cargo/bin.
func (c *Config) InstallDir() (string, error) {
	if c.CargoHome != "" {
		return filepath.Join(c.CargoHome, "bin"), nil
	}
	if c.Home != "" {
		return filepath.Join(c.Home, ".cargo", "bin"), nil
	}
	return "", errNoHome
}
