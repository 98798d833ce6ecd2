package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

var supportedCriteria = map[string]struct{}{
	CriterionMethod: {},
	CriterionHeader: {},
}

// Validate 针对语义级别做进一步校验，防止非法配置进入请求处理。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if c.Port <= 0 || c.Port > 65535 {
		return newFieldError("Port", "必须在 1-65535")
	}
	if strings.TrimSpace(c.Host) == "" {
		return newFieldError("Host", "不能为空")
	}
	if err := validateWebRoot(c.LocalWebRoot); err != nil {
		return fmt.Errorf("LocalWebRoot: %w", err)
	}
	if err := validateOrigin(c.ProxyHost); err != nil {
		return fmt.Errorf("ProxyHost: %w", err)
	}
	if c.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("UpstreamTimeout", "必须大于 0")
	}

	for from := range c.AddressRedirects {
		if from == "" {
			return newFieldError(mapField("AddressRedirects", from), "前缀不能为空")
		}
	}
	for ext, mimeType := range c.MimeMap {
		if !strings.HasPrefix(ext, ".") {
			return newFieldError(mapField("MimeMap", ext), "扩展名必须以 . 开头")
		}
		if strings.TrimSpace(mimeType) == "" {
			return newFieldError(mapField("MimeMap", ext), "Content-Type 不能为空")
		}
	}
	for _, criterion := range c.ExtractionCriteria {
		if _, ok := supportedCriteria[criterion]; !ok {
			return newFieldError("ExtractionCriteria", "仅支持 method|header，得到 "+criterion)
		}
	}
	for name := range c.ResponseHeaders {
		if strings.TrimSpace(name) == "" {
			return newFieldError("ResponseHeaders", "Header 名不能为空")
		}
	}
	for _, name := range c.Services {
		if strings.TrimSpace(name) == "" {
			return newFieldError("Services", "服务名不能为空")
		}
	}

	return nil
}

func validateWebRoot(root string) error {
	if root == "" {
		return errors.New("不能为空")
	}
	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s 不是目录", root)
	}
	return nil
}

func validateOrigin(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	if strings.Contains(raw, " ") {
		return errors.New("不允许包含空格")
	}
	parsed, err := url.Parse(Config{ProxyHost: raw}.OriginURL())
	if err != nil {
		return err
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	if parsed.Path != "" && parsed.Path != "/" {
		return fmt.Errorf("上游不应包含路径: %s", raw)
	}
	return nil
}
