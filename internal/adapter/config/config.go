package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/Nyukimin/codegen_multiLLM/internal/domain/llm"
)

// Config はアプリケーション全体の設定
type Config struct {
	Provider string        `yaml:"provider" env:"CODEGEN_PROVIDER"`
	Language string        `yaml:"language" env:"CODEGEN_LANGUAGE"`
	Claude   BackendConfig `yaml:"claude"`
	OpenAI   BackendConfig `yaml:"openai"`
	DeepSeek BackendConfig `yaml:"deepseek"`
	Local    BackendConfig `yaml:"local"`
	Server   ServerConfig  `yaml:"server"`
	Log      LogConfig     `yaml:"log"`
}

// BackendConfig はバックエンドごとの接続設定（ファイル由来）
// 環境変数は Resolve で上書きされるためここではタグを付けない
type BackendConfig struct {
	APIKey  string `yaml:"api_key"` // 環境変数から読み込み推奨
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// ServerConfig はHTTP APIの設定
type ServerConfig struct {
	Host string `yaml:"host" env:"CODEGEN_SERVER_HOST"`
	Port int    `yaml:"port" env:"CODEGEN_SERVER_PORT"`
}

// LogConfig はログ設定
type LogConfig struct {
	Level  string `yaml:"level" env:"CODEGEN_LOG_LEVEL"`
	Format string `yaml:"format" env:"CODEGEN_LOG_FORMAT"`
}

// LoadConfig は設定ファイルを読み込む
// ファイルが存在しない場合はデフォルト値のみで構成する
func LoadConfig(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config YAML: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg.setDefaults()

	// CODEGEN_* 環境変数で上書き
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults はデフォルト値を設定
// バックエンドの既定モデル・URLは各アダプターが持つためここでは設定しない
func (c *Config) setDefaults() {
	if c.Provider == "" {
		c.Provider = llm.ProviderLocal
	}

	if c.Language == "" {
		c.Language = "python"
	}

	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Validate は設定の妥当性を検証
func (c *Config) Validate() error {
	if _, ok := llm.CanonicalProviderName(c.Provider); !ok {
		return fmt.Errorf("unknown provider: %s (available: %v)", c.Provider, llm.ProviderNames())
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Log.Format)
	}

	return nil
}

// Backend はバックエンド名に対応するファイル設定を返す
func (c *Config) Backend(name string) BackendConfig {
	canonical, _ := llm.CanonicalProviderName(name)
	switch canonical {
	case llm.ProviderClaude:
		return c.Claude
	case llm.ProviderOpenAI:
		return c.OpenAI
	case llm.ProviderDeepSeek:
		return c.DeepSeek
	case llm.ProviderLocal:
		return c.Local
	}
	return BackendConfig{}
}
