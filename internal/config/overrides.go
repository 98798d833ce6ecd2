package config

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/spf13/viper"
)

// Override 对应一次 `--set KEY VALUE`，在配置文件读取之后、解码之前生效。
type Override struct {
	Key   string
	Value string
}

// ParseOverride 校验 --set 的键值对；键不能为空。
func ParseOverride(key, value string) (Override, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Override{}, newFieldError("--set", "缺少配置键")
	}
	return Override{Key: key, Value: value}, nil
}

// applyOverrides 根据现有值的类型决定如何解释字符串：
// 列表按逗号拆分，map 以 k:v 合并进已有内容，其余按标量直接写入。
// 文件中没有的键按 Config 字段类型判断。
func applyOverrides(v *viper.Viper, overrides []Override) error {
	for _, o := range overrides {
		switch current := v.Get(o.Key).(type) {
		case []interface{}, []string:
			v.Set(o.Key, splitList(o.Value))
		case map[string]interface{}:
			merged, err := mergePair(o, current)
			if err != nil {
				return err
			}
			v.Set(o.Key, merged)
		case map[string]string:
			asAny := make(map[string]interface{}, len(current))
			for k, val := range current {
				asAny[k] = val
			}
			merged, err := mergePair(o, asAny)
			if err != nil {
				return err
			}
			v.Set(o.Key, merged)
		default:
			switch fieldKind(o.Key) {
			case reflect.Map:
				merged, err := mergePair(o, nil)
				if err != nil {
					return err
				}
				v.Set(o.Key, merged)
			case reflect.Slice:
				v.Set(o.Key, splitList(o.Value))
			default:
				v.Set(o.Key, o.Value)
			}
		}
	}
	return nil
}

// fieldKind 按 mapstructure 标签（不区分大小写）查找 Config 顶层字段的类型，
// 使文件中未出现的 map/列表字段也能按正确形态接受 --set。
func fieldKind(key string) reflect.Kind {
	t := reflect.TypeOf(Config{})
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		name, _, _ := strings.Cut(field.Tag.Get("mapstructure"), ",")
		if name != "" && strings.EqualFold(name, key) {
			return field.Type.Kind()
		}
	}
	return reflect.Invalid
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		out = append(out, strings.TrimSpace(part))
	}
	return out
}

func mergePair(o Override, current map[string]interface{}) (map[string]interface{}, error) {
	pair := strings.SplitN(o.Value, ":", 2)
	if len(pair) != 2 || pair[0] == "" {
		return nil, newFieldError("--set "+o.Key, fmt.Sprintf("需要 k:v 形式，得到 %q", o.Value))
	}
	merged := make(map[string]interface{}, len(current)+1)
	for k, val := range current {
		merged[k] = val
	}
	merged[pair[0]] = pair[1]
	return merged, nil
}
