package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// 提取条件标签，见 ExtractionCriteria。
const (
	CriterionMethod = "method"
	CriterionHeader = "header"
)

// LogConfig 控制日志级别与文件滚动。
type LogConfig struct {
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// Config 是配置文件映射的整体结构，启动阶段解析校验一次后只读使用。
type Config struct {
	Host               string            `mapstructure:"Host"`
	Port               int               `mapstructure:"Port"`
	LocalWebRoot       string            `mapstructure:"LocalWebRoot"`
	ProxyHost          string            `mapstructure:"ProxyHost"`
	AccessToken        string            `mapstructure:"AccessToken"`
	AddressRedirects   map[string]string `mapstructure:"AddressRedirects"`
	MimeMap            map[string]string `mapstructure:"MimeMap"`
	ExtractionCriteria []string          `mapstructure:"ExtractionCriteria"`
	ServiceFilePath    string            `mapstructure:"ServiceFilePath"`
	Services           []string          `mapstructure:"Services"`
	ResponseHeaders    map[string]string `mapstructure:"ResponseHeaders"`
	EnableDiagnostics  bool              `mapstructure:"EnableDiagnostics"`
	UpstreamTimeout    Duration          `mapstructure:"UpstreamTimeout"`

	Log LogConfig `mapstructure:",squash"`
}

// ListenAddr 返回 host:port 形式的监听地址。
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OriginURL 返回上游地址；ProxyHost 未带协议头时默认补全 https。
func (c Config) OriginURL() string {
	host := strings.TrimRight(strings.TrimSpace(c.ProxyHost), "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host
	}
	return "https://" + host
}

// AuthMode 输出 `bearer` 或 `anonymous`，供日志字段使用。
func (c Config) AuthMode() string {
	if c.AccessToken != "" {
		return "bearer"
	}
	return "anonymous"
}

// Redacted 返回隐藏 AccessToken 的副本，用于 --print-config 与诊断输出。
func (c Config) Redacted() Config {
	out := c
	if out.AccessToken != "" {
		out.AccessToken = "***"
	}
	return out
}

// RedirectPrefixes 返回排好序的重定向前缀，便于日志输出。
func (c Config) RedirectPrefixes() []string {
	keys := make([]string, 0, len(c.AddressRedirects))
	for key := range c.AddressRedirects {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
