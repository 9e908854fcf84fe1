// Package config loads the console settings. Sources are applied in order
// of increasing priority: defaults, a JSON file, the environment (with an
// optional .env file) and command line flags.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	RunAddr               string        `env:"SERVER_ADDRESS" validate:"hostname_port"`
	APIEndpoint           string        `env:"API_ENDPOINT" validate:"url"`
	LogLevel              string        `env:"LOG_LEVEL" validate:"loglevel"`
	APITimeout            time.Duration `env:"API_TIMEOUT" validate:"gt=0"`
	AuthCookieName        string        `env:"AUTH_COOKIE_NAME" validate:"required"`
	ConsoleCookieName     string        `env:"CONSOLE_COOKIE_NAME" validate:"required,nefield=AuthCookieName"`
	SecureCookies         bool          `env:"SECURE_COOKIES"`
	ConsoleIdleTTL        time.Duration `env:"CONSOLE_IDLE_TTL" validate:"gt=0"`
	ConsoleSweepInterval  time.Duration `env:"CONSOLE_SWEEP_INTERVAL" validate:"gt=0"`
	RegisterRedirectDelay time.Duration `env:"REGISTER_REDIRECT_DELAY" validate:"gte=0"`
	TrustedSubnet         string        `env:"TRUSTED_SUBNET" validate:"omitempty,cidr"`
	ConfigFile            string        `env:"CONFIG"`
}

var defaultConfig = Config{
	RunAddr:               ":8080",
	APIEndpoint:           "http://localhost:5000/api",
	LogLevel:              "info",
	APITimeout:            10 * time.Second,
	AuthCookieName:        "token",
	ConsoleCookieName:     "console_id",
	SecureCookies:         false,
	ConsoleIdleTTL:        30 * time.Minute,
	ConsoleSweepInterval:  time.Minute,
	RegisterRedirectDelay: 2 * time.Second,
	TrustedSubnet:         "",
}

// jsonConfig mirrors the keys accepted in the CONFIG file. Absent keys keep
// the value they already had.
type jsonConfig struct {
	RunAddr               *string `json:"server_address"`
	APIEndpoint           *string `json:"api_endpoint"`
	LogLevel              *string `json:"log_level"`
	APITimeout            *string `json:"api_timeout"`
	SecureCookies         *bool   `json:"secure_cookies"`
	ConsoleIdleTTL        *string `json:"console_idle_ttl"`
	RegisterRedirectDelay *string `json:"register_redirect_delay"`
	TrustedSubnet         *string `json:"trusted_subnet"`
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[fieldLevel.Field().String()]
}

func (c *Config) validate() error {
	validate := validator.New()

	err := validate.RegisterValidation("loglevel", validateLogLevel)
	if err != nil {
		return err
	}

	return validate.Struct(c)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
	args                []string
}

// WithDisableFlagsParsing makes New ignore the command line.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

// WithArgs parses args instead of os.Args[1:].
func WithArgs(args []string) InitOption {
	return func(options *initOptions) {
		options.args = args
	}
}

type flagValues struct {
	set           map[string]bool
	runAddr       string
	apiEndpoint   string
	logLevel      string
	trustedSubnet string
	configFile    string
}

func parseFlags(args []string) (*flagValues, error) {
	values := &flagValues{set: map[string]bool{}}

	fs := flag.NewFlagSet("shopconsole", flag.ContinueOnError)
	fs.StringVar(&values.runAddr, "a", defaultConfig.RunAddr, "address and port to run the console on")
	fs.StringVar(&values.apiEndpoint, "b", defaultConfig.APIEndpoint, "base URL of the API gateway")
	fs.StringVar(&values.logLevel, "l", defaultConfig.LogLevel, "logger level")
	fs.StringVar(&values.trustedSubnet, "t", defaultConfig.TrustedSubnet, "CIDR allowed to read /metrics")
	fs.StringVar(&values.configFile, "c", "", "JSON configuration file")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		values.set[f.Name] = true
	})

	return values, nil
}

func (c *Config) applyJSON(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSON(): error while `os.ReadFile()` calling: %w", err)
	}

	var fromJSON jsonConfig
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fmt.Errorf("in internal/config/config.go/applyJSON(): error while `json.Unmarshal()` calling: %w", err)
	}

	setString(&c.RunAddr, fromJSON.RunAddr)
	setString(&c.APIEndpoint, fromJSON.APIEndpoint)
	setString(&c.LogLevel, fromJSON.LogLevel)
	setString(&c.TrustedSubnet, fromJSON.TrustedSubnet)
	if fromJSON.SecureCookies != nil {
		c.SecureCookies = *fromJSON.SecureCookies
	}

	for _, d := range []struct {
		target *time.Duration
		value  *string
	}{
		{&c.APITimeout, fromJSON.APITimeout},
		{&c.ConsoleIdleTTL, fromJSON.ConsoleIdleTTL},
		{&c.RegisterRedirectDelay, fromJSON.RegisterRedirectDelay},
	} {
		if d.value == nil {
			continue
		}
		parsed, err := time.ParseDuration(*d.value)
		if err != nil {
			return fmt.Errorf("in internal/config/config.go/applyJSON(): error while `time.ParseDuration()` calling: %w", err)
		}
		*d.target = parsed
	}

	return nil
}

func setString(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}

func (c *Config) applyFlags(values *flagValues) {
	if values.set["a"] {
		c.RunAddr = values.runAddr
	}
	if values.set["b"] {
		c.APIEndpoint = values.apiEndpoint
	}
	if values.set["l"] {
		c.LogLevel = values.logLevel
	}
	if values.set["t"] {
		c.TrustedSubnet = values.trustedSubnet
	}
}

// New builds the configuration and validates it.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
		args:                os.Args[1:],
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	// A missing .env is the normal case outside development.
	_ = godotenv.Load()

	flags := &flagValues{set: map[string]bool{}}
	if !options.disableFlagsParsing {
		var err error
		flags, err = parseFlags(options.args)
		if err != nil {
			return nil, err
		}
	}

	cfg := defaultConfig

	configFile := os.Getenv("CONFIG")
	if flags.set["c"] {
		configFile = flags.configFile
	}
	if configFile != "" {
		if err := cfg.applyJSON(configFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.ConfigFile = configFile

	cfg.applyFlags(flags)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
