package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Fallback  string    `yaml:"fallback" env:"FALLBACK_POLICY" env-default:"heuristic"`
	Redis     Redis     `yaml:"redis"`
	Suggester Suggester `yaml:"suggester"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host     string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	Prefix   string        `yaml:"prefix" env-default:"tictactoe:session:"`
	TTL      time.Duration `yaml:"ttl" env-default:"1h"`
}

// Suggester configures the external move-suggestion service (Ollama compatible).
type Suggester struct {
	URL         string        `yaml:"url" env:"SUGGESTER_URL" env-default:"http://localhost:11434"`
	Model       string        `yaml:"model" env:"SUGGESTER_MODEL" env-default:"codellama"`
	Schema      string        `yaml:"schema" env:"SUGGESTER_SCHEMA" env-default:"pair"`
	Timeout     time.Duration `yaml:"timeout" env:"SUGGESTER_TIMEOUT" env-default:"30s"`
	Retries     int           `yaml:"retries" env:"SUGGESTER_RETRIES" env-default:"1"`
	Temperature float64       `yaml:"temperature" env-default:"0.3"`
	TopK        int           `yaml:"top-k" env-default:"10"`
	TopP        float64       `yaml:"top-p" env-default:"0.8"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
