package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/zhouzirui/healthdesk/internal/service/chat"
	"github.com/zhouzirui/healthdesk/internal/service/forms"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server    ServerConfig
	Log       LogConfig
	Assistant AssistantConfig
	Forms     FormsConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	log, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	assistant, err := loadAssistantConfig()
	if err != nil {
		return nil, err
	}

	formsCfg, err := loadFormsConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, Log: log, Assistant: assistant, Forms: formsCfg}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	origins := parseListEnv("CORS_ALLOWED_ORIGINS")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins}, nil
}

// LogConfig 描述日志配置。
type LogConfig struct {
	Level       string
	Development bool
}

func loadLogConfig() (LogConfig, error) {
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", false)
	if err != nil {
		return LogConfig{}, err
	}

	level := strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info"))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return LogConfig{}, fmt.Errorf("invalid LOG_LEVEL value: %q", level)
	}

	return LogConfig{Level: level, Development: dev}, nil
}

// AssistantConfig 描述健康助手对话配置。
type AssistantConfig struct {
	BaseURL      string
	Timeout      time.Duration
	Policy       chat.OverlapPolicy
	ProfilesPath string
}

func loadAssistantConfig() (AssistantConfig, error) {
	timeout, err := parseDurationEnv("ASSISTANT_TIMEOUT", 30*time.Second)
	if err != nil {
		return AssistantConfig{}, err
	}

	policy, err := chat.ParseOverlapPolicy(os.Getenv("CHAT_OVERLAP_POLICY"))
	if err != nil {
		return AssistantConfig{}, fmt.Errorf("invalid CHAT_OVERLAP_POLICY: %w", err)
	}

	return AssistantConfig{
		BaseURL:      getEnvOrDefault("ASSISTANT_BASE_URL", "http://localhost:5000"),
		Timeout:      timeout,
		Policy:       policy,
		ProfilesPath: strings.TrimSpace(os.Getenv("HEALTHDESK_PROFILES")),
	}, nil
}

// FormsConfig 描述表单提交配置。
type FormsConfig struct {
	TargetBaseURL string
	SubmitDelay   time.Duration
}

func loadFormsConfig() (FormsConfig, error) {
	delay, err := parseDurationEnv("FORM_SUBMIT_DELAY", forms.DefaultSubmitDelay)
	if err != nil {
		return FormsConfig{}, err
	}

	return FormsConfig{
		TargetBaseURL: strings.TrimSpace(os.Getenv("FORM_TARGET_BASE_URL")),
		SubmitDelay:   delay,
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

// parseDurationEnv 接受 "30s" 这类时长，也接受纯数字秒数。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if secs, err := strconv.Atoi(raw); err == nil {
		if secs < 0 {
			return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
		}
		return time.Duration(secs) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val < 0 {
		return 0, fmt.Errorf("invalid %s value %q: must not be negative", key, raw)
	}
	return val, nil
}

func parseListEnv(key string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}

	var items []string
	for _, part := range strings.Split(raw, ",") {
		if item := strings.TrimSpace(part); item != "" {
			items = append(items, item)
		}
	}
	return items
}
