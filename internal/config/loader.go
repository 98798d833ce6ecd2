package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultPath 是未指定 --config 且未设置 DEVWEB_CONFIG 时使用的配置文件。
const DefaultPath = "devweb.toml"

// keyDelimiter 避免 viper 把 ".js" 这类 MimeMap 键拆成嵌套结构。
const keyDelimiter = "::"

var defaultMimeMap = map[string]string{
	".html": "text/html",
	".htm":  "text/html",
	".js":   "application/javascript",
	".css":  "text/css",
	".json": "application/json",
	".svg":  "image/svg+xml",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".ico":  "image/x-icon",
	".txt":  "text/plain",
}

// Load 读取并解析配置文件，依次应用 --set 覆盖、默认值与校验逻辑。
func Load(path string, overrides ...Override) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := newViper()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	if err := applyOverrides(v, overrides); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := restoreRedirectCase(path, overrides, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	if cfg.LocalWebRoot != "" {
		absRoot, err := filepath.Abs(cfg.LocalWebRoot)
		if err != nil {
			return nil, fmt.Errorf("无法解析本地目录: %w", err)
		}
		cfg.LocalWebRoot = absRoot
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func newViper() *viper.Viper {
	return viper.NewWithOptions(viper.KeyDelimiter(keyDelimiter))
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("Host", "localhost")
	v.SetDefault("Port", 8000)
	v.SetDefault("ExtractionCriteria", []string{CriterionMethod})
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
}

func applyDefaults(c *Config) {
	if strings.TrimSpace(c.Host) == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if c.UpstreamTimeout.DurationValue() == 0 {
		c.UpstreamTimeout = Duration(30 * time.Second)
	}
	if c.Log.LogLevel == "" {
		c.Log.LogLevel = "info"
	}
	if c.AddressRedirects == nil {
		c.AddressRedirects = map[string]string{}
	}
	if c.ResponseHeaders == nil {
		c.ResponseHeaders = map[string]string{}
	}
	if c.MimeMap == nil {
		c.MimeMap = make(map[string]string, len(defaultMimeMap))
	}
	for ext, mimeType := range defaultMimeMap {
		if _, ok := c.MimeMap[ext]; !ok {
			c.MimeMap[ext] = mimeType
		}
	}
	for i, criterion := range c.ExtractionCriteria {
		c.ExtractionCriteria[i] = strings.ToLower(strings.TrimSpace(criterion))
	}
}

// DefaultMimeMap 返回内置扩展名映射的副本。
func DefaultMimeMap() map[string]string {
	out := make(map[string]string, len(defaultMimeMap))
	for ext, mimeType := range defaultMimeMap {
		out[ext] = mimeType
	}
	return out
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
