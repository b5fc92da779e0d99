// Package config loads the settings of the webfetch command.
package config

import (
	"os"
	"time"

	"webfetch/application/http"
	"webfetch/application/http/actor/client"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	// DefaultFile is loaded when no url is given.
	DefaultFile string `yaml:"default_file"`

	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
}

type ClientConfig struct {
	// IdleTimeout replaces connections idle for at least this long. Zero disables it.
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`

	UseSoleLF              bool `yaml:"use_sole_lf"`
	AllowSoleLF            bool `yaml:"allow_sole_lf"`
	UseDefaultReasonPhrase bool `yaml:"use_default_reason_phrase"`

	MaxStatusLineLength uint `yaml:"max_status_line_length"`
	MaxFieldLineLength  uint `yaml:"max_field_line_length"`
}

func Default() *Config {
	return &Config{
		DefaultFile: "index.html",
		Log: LogConfig{
			Level:  "info",
			Format: FormatText,
		},
	}
}

// Load reads the YAML file at path over [Default].
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config file")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(ErrInvalidConfig, "parsing %s: %s", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DefaultFile == "" {
		return errors.Wrap(ErrInvalidConfig, "default_file is empty")
	}
	if c.Client.IdleTimeout < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative idle_timeout %s", c.Client.IdleTimeout)
	}
	if c.Client.HandshakeTimeout < 0 {
		return errors.Wrapf(ErrInvalidConfig, "negative handshake_timeout %s", c.Client.HandshakeTimeout)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case FormatText, FormatJSON:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown log format %q", c.Log.Format)
	}

	return nil
}

func (c *Config) ClientOptions() client.Options {
	return client.Options{
		Send: client.SendOptions{
			Encode: http.EncodeOptions{UseSoleLF: c.Client.UseSoleLF},
		},
		Receive: client.ReceiveOptions{
			Decode: http.DecodeOptions{
				AllowSoleLF:         c.Client.AllowSoleLF,
				MaxFieldLineLength:  c.Client.MaxFieldLineLength,
				MaxStatusLineLength: c.Client.MaxStatusLineLength,
			},
			UseDefaultReasonPhrase: c.Client.UseDefaultReasonPhrase,
		},
		Timeout: client.TimeoutOptions{
			IdleTimeout:      c.Client.IdleTimeout,
			HandshakeTimeout: c.Client.HandshakeTimeout,
		},
	}
}
