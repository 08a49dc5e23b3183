package config

import (
	"io/fs"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DefaultEndpointURL = "http://127.0.0.1:8000/chat"
	DefaultGreeting    = "Hello! I'm AlternGenius, your advanced AI assistant. How can I help you today?"
	DefaultErrorPrefix = "Error: could not connect to the API."
)

type Config struct {
	Log    LogConfig    `envPrefix:"LOG_"`
	Chat   ChatConfig   `envPrefix:"CHAT_"`
	Stub   StubConfig   `envPrefix:"STUB_"`
	Ollama OllamaConfig `envPrefix:"OLLAMA_"`
}

type LogConfig struct {
	Level string `env:"LEVEL" envDefault:"info"`
	JSON  bool   `env:"JSON" envDefault:"false"`
}

type ChatConfig struct {
	EndpointURL    string        `env:"ENDPOINT_URL"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	Addr           string        `env:"ADDR" envDefault:":3000"`
	Greeting       string        `env:"GREETING"`
	ErrorPrefix    string        `env:"ERROR_PREFIX"`
}

type StubConfig struct {
	Addr       string        `env:"ADDR" envDefault:"127.0.0.1:8000"`
	Engine     string        `env:"ENGINE" envDefault:"echo"`
	MinLatency time.Duration `env:"MIN_LATENCY" envDefault:"30ms"`
}

type OllamaConfig struct {
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:11434"`
	Model   string `env:"MODEL" envDefault:"gemma3:270m"`
}

// Load reads a .env file and then the process environment. Values already
// present in the environment win over the file. A missing file is only an
// error when required is set, i.e. the user named the file explicitly.
func Load(dotenv string, required bool) (*Config, error) {
	if dotenv != "" {
		if err := godotenv.Load(dotenv); err != nil && (required || !errors.Is(err, fs.ErrNotExist)) {
			return nil, errors.Wrapf(err, "load %s", dotenv)
		}
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Chat.Greeting == "" {
		c.Chat.Greeting = DefaultGreeting
	}
	if c.Chat.ErrorPrefix == "" {
		c.Chat.ErrorPrefix = DefaultErrorPrefix
	}
	if c.Chat.EndpointURL == "" {
		c.Chat.EndpointURL = DefaultEndpointURL
	}
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.Chat.EndpointURL)
	if err != nil {
		return errors.Wrapf(err, "endpoint url %q", c.Chat.EndpointURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("endpoint url %q: scheme must be http or https", c.Chat.EndpointURL)
	}
	if c.Chat.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	switch c.Stub.Engine {
	case "echo", "ollama":
	default:
		return errors.Errorf("unknown stub engine %q", c.Stub.Engine)
	}
	return nil
}
