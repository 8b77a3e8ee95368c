package configs

import (
	"os"
	"strings"

	"github.com/caarlos0/env/v9"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

type ConfigString string
type ConfigInt int
type ConfigBool bool
type ConfigSecret string

func (s ConfigSecret) String() string {
	if s == `` {
		return ``
	}
	return `*** REDACTED ***`
}

type Config struct {
	Server    Server    `yaml:"Server"`
	Logging   Logging   `yaml:"Logging"`
	FilePaths FilePaths `yaml:"FilePaths"`
	LLMChat   LLMChat   `yaml:"LLMChat"`
}

type Server struct {
	ListenAddress    ConfigString `yaml:"ListenAddress"`    // host:port for the websocket/status listener
	TickMilliseconds ConfigInt    `yaml:"TickMilliseconds"` // How often the event queue is drained
}

type Logging struct {
	Level ConfigString `yaml:"Level"` // debug, info, warn, error
	File  ConfigString `yaml:"File"`  // Optional rotating log file
}

type FilePaths struct {
	DataFiles ConfigString `yaml:"DataFiles"` // Root folder for npcs/ and localize/
}

func (c *Config) Validate() {

	if c.Server.ListenAddress == `` {
		c.Server.ListenAddress = `:8080`
	}

	if c.Server.TickMilliseconds < 10 {
		c.Server.TickMilliseconds = 100
	} else if c.Server.TickMilliseconds > 1000 {
		c.Server.TickMilliseconds = 1000
	}

	if c.Logging.Level == `` {
		c.Logging.Level = `info`
	}

	if c.FilePaths.DataFiles == `` {
		c.FilePaths.DataFiles = `_datafiles`
	}

	c.LLMChat.Validate()
}

// NPCPath is where NPC definition files are found
func (c Config) NPCPath() string {
	return strings.TrimSuffix(string(c.FilePaths.DataFiles), `/`) + `/npcs`
}

// LocalizePath is where translation files are found
func (c Config) LocalizePath() string {
	return strings.TrimSuffix(string(c.FilePaths.DataFiles), `/`) + `/localize`
}

// Default returns a validated config with nothing but defaults in it.
func Default() Config {
	c := Config{}
	c.LLMChat.Enabled = true
	c.Validate()
	return c
}

// Load reads a yaml config file, applies environment overrides and validates the result.
func Load(path string) (Config, error) {

	c := Config{}
	c.LLMChat.Enabled = true

	bytes, err := os.ReadFile(path)
	if err != nil {
		return c, errors.Wrap(err, `filepath: `+path)
	}

	if err := yaml.Unmarshal(bytes, &c); err != nil {
		return c, errors.Wrap(err, `filepath: `+path)
	}

	if err := applyEnvOverrides(&c); err != nil {
		return c, errors.Wrap(err, `environment overrides`)
	}

	c.Validate()

	return c, nil
}

// Pointers stay nil when the variable is unset, so an explicit zero still overrides.
type envOverrides struct {
	ListenAddress         *string `env:"LISTEN_ADDRESS"`
	TickMilliseconds      *int    `env:"TICK_MILLISECONDS"`
	LogLevel              *string `env:"LOG_LEVEL"`
	LogFile               *string `env:"LOG_FILE"`
	DataFiles             *string `env:"DATAFILES"`
	Enabled               *bool   `env:"LLM_ENABLED"`
	EndpointURL           *string `env:"LLM_ENDPOINT_URL"`
	Model                 *string `env:"LLM_MODEL"`
	APIKey                *string `env:"LLM_API_KEY"`
	MaxHistory            *int    `env:"LLM_MAX_HISTORY"`
	RequestTimeoutMs      *int    `env:"LLM_REQUEST_TIMEOUT_MS"`
	DefaultSystemPrompt   *string `env:"LLM_DEFAULT_SYSTEM_PROMPT"`
	Workers               *int    `env:"LLM_WORKERS"`
	Language              *string `env:"LLM_LANGUAGE"`
	RequestsPerMinute     *int    `env:"LLM_REQUESTS_PER_MINUTE"`
	FailureBackoffSeconds *int    `env:"LLM_FAILURE_BACKOFF_SECONDS"`
}

func override[T, C any](dst *C, v *T, conv func(T) C) {
	if v != nil {
		*dst = conv(*v)
	}
}

func applyEnvOverrides(c *Config) error {

	o := envOverrides{}
	if err := env.ParseWithOptions(&o, env.Options{Prefix: `NPCCHAT_`}); err != nil {
		return err
	}

	str := func(v string) ConfigString { return ConfigString(v) }
	num := func(v int) ConfigInt { return ConfigInt(v) }

	override(&c.Server.ListenAddress, o.ListenAddress, str)
	override(&c.Server.TickMilliseconds, o.TickMilliseconds, num)
	override(&c.Logging.Level, o.LogLevel, str)
	override(&c.Logging.File, o.LogFile, str)
	override(&c.FilePaths.DataFiles, o.DataFiles, str)

	l := &c.LLMChat
	override(&l.Enabled, o.Enabled, func(v bool) ConfigBool { return ConfigBool(v) })
	override(&l.EndpointURL, o.EndpointURL, str)
	override(&l.Model, o.Model, str)
	override(&l.APIKey, o.APIKey, func(v string) ConfigSecret { return ConfigSecret(v) })
	override(&l.MaxHistory, o.MaxHistory, num)
	override(&l.RequestTimeoutMs, o.RequestTimeoutMs, num)
	override(&l.DefaultSystemPrompt, o.DefaultSystemPrompt, str)
	override(&l.Workers, o.Workers, num)
	override(&l.Language, o.Language, str)
	override(&l.RequestsPerMinute, o.RequestsPerMinute, num)
	override(&l.FailureBackoffSeconds, o.FailureBackoffSeconds, num)

	return nil
}
