package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	// Engine selection. "http" talks to an OpenAI-compatible endpoint;
	// "local" shells out to whisper.cpp with a model file.
	Engine string `env:"ENGINE" envDefault:"http"`

	WhisperURL     string        `env:"WHISPER_URL" envDefault:"http://localhost:8000/v1/audio/transcriptions"`
	WhisperModel   string        `env:"WHISPER_MODEL"`
	WhisperAPIKey  string        `env:"WHISPER_API_KEY"`
	WhisperTimeout time.Duration `env:"WHISPER_TIMEOUT" envDefault:"30s"`

	ModelPath           string `env:"MODEL_PATH"`
	WhisperBin          string `env:"WHISPER_BIN" envDefault:"whisper-cli"`
	UseAccelerator      bool   `env:"USE_ACCELERATOR" envDefault:"true"`
	AcceleratorFastPath bool   `env:"ACCELERATOR_FAST_PATH"`

	Language  string `env:"LANGUAGE" envDefault:"auto"`
	Translate bool   `env:"TRANSLATE"`

	SampleRate   int           `env:"SAMPLE_RATE" envDefault:"48000"`
	Channels     int           `env:"CHANNELS" envDefault:"2"`
	Window       time.Duration `env:"WINDOW" envDefault:"3s"`
	Retain       time.Duration `env:"RETAIN" envDefault:"200ms"`
	BufferCap    time.Duration `env:"BUFFER_CAP" envDefault:"10s"`
	PollInterval time.Duration `env:"POLL_INTERVAL" envDefault:"100ms"`

	StaleAfter time.Duration `env:"STALE_AFTER" envDefault:"3s"`
	DisplayFor time.Duration `env:"DISPLAY_FOR" envDefault:"2s"`

	HTTPAddr     string        `env:"HTTP_ADDR" envDefault:":8080"`
	ReadTimeout  time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout  time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`

	MQTTBrokerURL string `env:"MQTT_BROKER_URL"`
	MQTTTopic     string `env:"MQTT_TOPIC" envDefault:"captions/live"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" envDefault:"caption-engine"`
	MQTTUsername  string `env:"MQTT_USERNAME"`
	MQTTPassword  string `env:"MQTT_PASSWORD"`

	AuthToken string `env:"AUTH_TOKEN"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
}

// Overrides holds CLI flag values that take priority over env vars.
type Overrides struct {
	EnvFile   string
	HTTPAddr  string
	LogLevel  string
	Engine    string
	ModelPath string
	Language  string
}

// Load reads configuration from .env file, environment variables, and CLI overrides.
// Priority: CLI flags > environment variables > .env file > struct defaults.
func Load(overrides Overrides) (*Config, error) {
	// Load .env file (silent if missing)
	envFile := overrides.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if _, err := os.Stat(envFile); err == nil {
		_ = godotenv.Load(envFile)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	// Apply CLI overrides (non-empty values win)
	if overrides.HTTPAddr != "" {
		cfg.HTTPAddr = overrides.HTTPAddr
	}
	if overrides.LogLevel != "" {
		cfg.LogLevel = overrides.LogLevel
	}
	if overrides.Engine != "" {
		cfg.Engine = overrides.Engine
	}
	if overrides.ModelPath != "" {
		cfg.ModelPath = overrides.ModelPath
	}
	if overrides.Language != "" {
		cfg.Language = overrides.Language
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	switch c.Engine {
	case "http":
		if c.WhisperURL == "" {
			return fmt.Errorf("WHISPER_URL is required for the http engine")
		}
	case "local":
		if c.ModelPath == "" {
			return fmt.Errorf("MODEL_PATH is required for the local engine")
		}
	default:
		return fmt.Errorf("unknown engine %q (want \"http\" or \"local\")", c.Engine)
	}
	return nil
}
