package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/uniserved/chatwidget/internal/model/chatbot"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server  ServerConfig
	Answer  AnswerConfig
	Session SessionConfig
	Ask     AskConfig
	Log     LogConfig
	Tables  TablesConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	answer, err := loadAnswerConfig()
	if err != nil {
		return nil, err
	}

	session, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	ask, err := loadAskConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server:  server,
		Answer:  answer,
		Session: session,
		Ask:     ask,
		Log:     loadLogConfig(),
		Tables:  TablesConfig{File: strings.TrimSpace(os.Getenv("DIRECTORY_FILE"))},
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	return parseAddr(port)
}

func parseAddr(port string) (ServerConfig, error) {
	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// AnswerConfig 描述远端问答服务。
type AnswerConfig struct {
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

func loadAnswerConfig() (AnswerConfig, error) {
	timeout, err := parseDurationEnv("ANSWER_TIMEOUT", 30*time.Second)
	if err != nil {
		return AnswerConfig{}, err
	}

	headers, err := parseHeadersEnv("ANSWER_EXTRA_HEADERS")
	if err != nil {
		return AnswerConfig{}, err
	}

	return AnswerConfig{
		BaseURL: getEnvOrDefault("API_BASE_URL", chatbot.DefaultBaseURL),
		Timeout: timeout,
		Headers: headers,
	}, nil
}

// SessionConfig 描述聊天会话行为。
type SessionConfig struct {
	GreetingEnabled bool
	GreetingDelay   time.Duration
	Greeting        string
	Location        *time.Location
	IdleTTL         time.Duration
}

func loadSessionConfig() (SessionConfig, error) {
	enabled, err := parseBoolEnv("GREETING_ENABLED", true)
	if err != nil {
		return SessionConfig{}, err
	}

	delay, err := parseDurationEnv("GREETING_DELAY", 2*time.Second)
	if err != nil {
		return SessionConfig{}, err
	}

	ttl, err := parseDurationEnv("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return SessionConfig{}, err
	}

	zone := getEnvOrDefault("TIMEZONE", "Asia/Kolkata")
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return SessionConfig{}, fmt.Errorf("invalid TIMEZONE value %q: %w", zone, err)
	}

	return SessionConfig{
		GreetingEnabled: enabled,
		GreetingDelay:   delay,
		Greeting:        strings.TrimSpace(os.Getenv("GREETING_TEXT")),
		Location:        loc,
		IdleTTL:         ttl,
	}, nil
}

// AskConfig 描述占位问答接口的限流。
type AskConfig struct {
	RateLimit float64
	RateBurst int
	Answer    string
}

func loadAskConfig() (AskConfig, error) {
	limit := 1.0
	if override, err := parseOptionalFloatEnv("ASK_RATE_LIMIT"); err != nil {
		return AskConfig{}, err
	} else if override != nil {
		limit = *override
	}

	burst := 5
	if override, err := parseOptionalIntEnv("ASK_RATE_BURST"); err != nil {
		return AskConfig{}, err
	} else if override != nil {
		if *override < 1 {
			burst = 1
		} else {
			burst = *override
		}
	}

	return AskConfig{
		RateLimit: limit,
		RateBurst: burst,
		Answer:    strings.TrimSpace(os.Getenv("ASK_PLACEHOLDER_ANSWER")),
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

// parseHeadersEnv reads "Name=value,Other=value" pairs.
func parseHeadersEnv(key string) (map[string]string, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	headers := make(map[string]string)
	if raw == "" {
		return headers, nil
	}

	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid %s entry %q: want Name=value", key, pair)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}
