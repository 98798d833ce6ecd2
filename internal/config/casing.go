package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// redirectsKey 的键是大小写敏感的 URL 前缀，viper 统一转小写后会丢失原样。
const redirectsKey = "AddressRedirects"

// restoreRedirectCase 直接解码配置文件中的 AddressRedirects 表，
// 再叠加 --set 覆盖，用保留大小写的结果替换 viper 解出的映射。
func restoreRedirectCase(path string, overrides []Override, cfg *Config) error {
	redirects, ok, err := readRawStringMap(path, redirectsKey)
	if err != nil {
		return fmt.Errorf("读取 %s 失败: %w", redirectsKey, err)
	}
	if !ok {
		redirects = make(map[string]string, len(cfg.AddressRedirects))
		for from, to := range cfg.AddressRedirects {
			redirects[from] = to
		}
	}

	for _, o := range overrides {
		if !strings.EqualFold(o.Key, redirectsKey) {
			continue
		}
		from, to, found := strings.Cut(o.Value, ":")
		if !found || from == "" {
			continue
		}
		if !ok {
			delete(redirects, strings.ToLower(from))
		}
		redirects[from] = to
	}

	cfg.AddressRedirects = redirects
	return nil
}

// readRawStringMap 按文件扩展名选择解码器读取顶层表 name（名称不区分大小写）。
// ok 为 false 表示格式不受支持或该表不是映射，调用方沿用 viper 的结果。
func readRawStringMap(path, name string) (map[string]string, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	var doc map[string]interface{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &doc)
	case ".json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	out := map[string]string{}
	for key, value := range doc {
		if !strings.EqualFold(key, name) {
			continue
		}
		section, isMap := value.(map[string]interface{})
		if !isMap {
			return nil, false, nil
		}
		for k, v := range section {
			if v == nil {
				out[k] = ""
				continue
			}
			out[k] = fmt.Sprint(v)
		}
	}
	return out, true, nil
}
