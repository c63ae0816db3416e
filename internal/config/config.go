// 환경변수 기반 설정 로더
//
// 그룹별로 설정이 비어 있으면 해당 기능만 비활성화되고 서버 기동은 계속됨
//   - Graylog: GRAYLOG_URL + GRAYLOG_USERNAME 둘 다 있어야 검색 도구 활성화
//   - Teams: TEAMS_WEBHOOK_URL 이 있어야 알림 전송 활성화
//   - Chat: AI_API_KEY 가 있어야 AI 조사 활성화

package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Graylog   GraylogConfig
	Teams     TeamsConfig
	Chat      ChatConfig
	Telemetry TelemetryConfig
}

type ServerConfig struct {
	Port            string
	GinMode         string
	ShutdownTimeout time.Duration
}

type GraylogConfig struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration
}

type TeamsConfig struct {
	WebhookURL string
}

type ChatConfig struct {
	APIKey string
	// 비어 있으면 genai SDK 기본 엔드포인트 사용
	Endpoint      string
	Model         string
	MaxToolRounds int
}

type TelemetryConfig struct {
	Environment    string
	TracingEnabled bool
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:            getenv("PORT", "8080"),
			GinMode:         getenv("GIN_MODE", "release"),
			ShutdownTimeout: getduration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Graylog: GraylogConfig{
			URL:      os.Getenv("GRAYLOG_URL"),
			Username: os.Getenv("GRAYLOG_USERNAME"),
			Password: os.Getenv("GRAYLOG_PASSWORD"),
			Timeout:  getduration("GRAYLOG_TIMEOUT", 30*time.Second),
		},
		Teams: TeamsConfig{
			WebhookURL: os.Getenv("TEAMS_WEBHOOK_URL"),
		},
		Chat: ChatConfig{
			APIKey:        os.Getenv("AI_API_KEY"),
			Endpoint:      os.Getenv("AI_ENDPOINT"),
			Model:         getenv("AI_MODEL", "gemini-2.5-flash"),
			MaxToolRounds: getint("AI_MAX_TOOL_ROUNDS", 8),
		},
		Telemetry: TelemetryConfig{
			Environment:    getenv("ENVIRONMENT", "development"),
			TracingEnabled: getbool("OTEL_ENABLED", false),
		},
	}
}

func (c GraylogConfig) IsConfigured() bool {
	return c.URL != "" && c.Username != ""
}

func (c TeamsConfig) IsConfigured() bool {
	return c.WebhookURL != ""
}

func (c ChatConfig) IsConfigured() bool {
	return c.APIKey != ""
}

func getenv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getint(key string, fallback int) int {
	val, err := strconv.Atoi(os.Getenv(key))
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}

func getbool(key string, fallback bool) bool {
	val, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return val
}

func getduration(key string, fallback time.Duration) time.Duration {
	val, err := time.ParseDuration(os.Getenv(key))
	if err != nil || val <= 0 {
		return fallback
	}
	return val
}
