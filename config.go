package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
)

const (
	defaultConfigFile      = "docs_config.json"
	defaultCredentialsFile = "client_secret.json"
	defaultTokenFile       = "token.json"
	defaultApplicationName = "Claude Docs Skill"
	defaultTimeout         = 60 * time.Second
	defaultMaxDepth        = 64
	defaultMaxRetries      = 3
)

// Config 애플리케이션 설정 구조체
type Config struct {
	CredentialsPath string `json:"credentials_path"`
	TokenPath       string `json:"token_path"`
	RedirectURL     string `json:"redirect_url"`
	ApplicationName string `json:"application_name"`
	MaxDepth        int    `json:"max_depth"`
	MaxRetries      int    `json:"max_retries"`
	Timeout         string `json:"timeout"`
	LogLevel        string `json:"log_level"`

	timeout time.Duration
}

// configDir ~/.claude/.google (홈 디렉터리를 모르면 현재 디렉터리 기준)
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".claude", ".google")
	}
	return filepath.Join(home, ".claude", ".google")
}

// defaultConfig 기본값만 채운 설정
func defaultConfig() *Config {
	dir := configDir()
	return &Config{
		CredentialsPath: filepath.Join(dir, defaultCredentialsFile),
		TokenPath:       filepath.Join(dir, defaultTokenFile),
		ApplicationName: defaultApplicationName,
		MaxDepth:        defaultMaxDepth,
		MaxRetries:      defaultMaxRetries,
		Timeout:         defaultTimeout.String(),
		LogLevel:        "warn",
	}
}

// LoadConfig 기본값 → 설정 파일 → 환경 변수 순서로 설정을 로드합니다.
// path가 비어 있으면 GDOCS_CONFIG, 그다음 ~/.claude/.google/docs_config.json을 사용하며
// 기본 경로의 파일은 없어도 됩니다
func LoadConfig(path string) (*Config, error) {
	config := defaultConfig()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv("GDOCS_CONFIG"); env != "" {
			path, explicit = env, true
		} else {
			path = filepath.Join(configDir(), defaultConfigFile)
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// 주석과 끝 쉼표를 허용
		if err := json.Unmarshal(jsonc.ToJSON(data), config); err != nil {
			return nil, fmt.Errorf("설정 파일 파싱 실패 (%s): %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("설정 파일 읽기 실패: %w", err)
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	c.CredentialsPath = envOr("GDOCS_CREDENTIALS", c.CredentialsPath)
	c.TokenPath = envOr("GDOCS_TOKEN", c.TokenPath)
	c.RedirectURL = envOr("GDOCS_REDIRECT_URL", c.RedirectURL)
	c.ApplicationName = envOr("GDOCS_APPLICATION_NAME", c.ApplicationName)
	c.MaxDepth = envInt("GDOCS_MAX_DEPTH", c.MaxDepth)
	c.MaxRetries = envInt("GDOCS_MAX_RETRIES", c.MaxRetries)
	c.Timeout = envOr("GDOCS_TIMEOUT", c.Timeout)
	c.LogLevel = envOr("GDOCS_LOG_LEVEL", c.LogLevel)
}

// Validate 필수 값과 형식을 검증하고 파생 값을 계산합니다
func (c *Config) Validate() error {
	if c.CredentialsPath == "" {
		return fmt.Errorf("credentials_path가 설정되지 않았습니다")
	}
	if c.TokenPath == "" {
		return fmt.Errorf("token_path가 설정되지 않았습니다")
	}
	c.CredentialsPath = expandHome(c.CredentialsPath)
	c.TokenPath = expandHome(c.TokenPath)

	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries는 0 이상이어야 합니다: %d", c.MaxRetries)
	}

	if c.Timeout == "" {
		c.timeout = defaultTimeout
	} else {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return fmt.Errorf("timeout 형식이 올바르지 않습니다 (%q): %w", c.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout은 0보다 커야 합니다: %s", c.Timeout)
		}
		c.timeout = d
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// RequestTimeout 명령 하나에 허용되는 시간
func (c *Config) RequestTimeout() time.Duration {
	if c.timeout <= 0 {
		return defaultTimeout
	}
	return c.timeout
}

// Level slog 로그 수준
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelWarn, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelWarn, fmt.Errorf("log_level이 올바르지 않습니다 (%q): %w", s, err)
	}
	return level, nil
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
