// Package fixture 从服务文件加载声明式的固定响应服务，例如：
//
//	[[Service]]
//	Name = "api/user"
//	Status = 200
//	ContentType = "application/json"
//	BodyFile = "fixtures/user.json"
//
// BodyFile 相对服务文件所在目录解析；Body 与 BodyFile 二选一。
package fixture

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/devweb/devweb/internal/reply"
	"github.com/devweb/devweb/internal/service"
)

// Definition is one [[Service]] entry.
type Definition struct {
	Name        string            `mapstructure:"Name"`
	Status      int               `mapstructure:"Status"`
	ContentType string            `mapstructure:"ContentType"`
	Body        string            `mapstructure:"Body"`
	BodyFile    string            `mapstructure:"BodyFile"`
	Headers     map[string]string `mapstructure:"Headers"`
}

type file struct {
	Services []Definition `mapstructure:"Service"`
}

// Validate checks a definition before it is registered.
func (d Definition) Validate() error {
	if service.NormalizeName(d.Name) == "" {
		return errors.New("Name 不能为空")
	}
	if d.Status != 0 && (d.Status < 100 || d.Status > 599) {
		return fmt.Errorf("Status %d 超出范围", d.Status)
	}
	if d.Body != "" && d.BodyFile != "" {
		return errors.New("Body 与 BodyFile 只能设置一个")
	}
	return nil
}

// Handler serves a canned response. The body is read once at load time.
type Handler struct {
	def  Definition
	body []byte
}

// Serve returns the canned response.
func (h *Handler) Serve(context.Context, *service.Call) (*reply.Reply, error) {
	status := h.def.Status
	if status == 0 {
		status = http.StatusOK
	}
	out := reply.Bytes(status, h.def.ContentType, h.body)
	names := make([]string, 0, len(h.def.Headers))
	for name := range h.def.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out.Header.Set(name, h.def.Headers[name])
	}
	return out, nil
}

// Read parses the service file at path.
func Read(path string) ([]Definition, error) {
	v := viper.NewWithOptions(viper.KeyDelimiter("::"))
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取服务文件失败: %w", err)
	}
	var parsed file
	if err := v.Unmarshal(&parsed); err != nil {
		return nil, fmt.Errorf("解析服务文件失败: %w", err)
	}
	return parsed.Services, nil
}

// New builds the handler for def, loading BodyFile relative to baseDir.
func New(def Definition, baseDir string) (*Handler, error) {
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("service %q: %w", def.Name, err)
	}
	body := []byte(def.Body)
	if def.BodyFile != "" {
		target := def.BodyFile
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return nil, fmt.Errorf("service %q: %w", def.Name, err)
		}
		body = data
	}
	return &Handler{def: def, body: body}, nil
}

// Load registers every service declared in the file at path. A missing or
// unreadable file is logged and skipped; an invalid entry is an error.
func Load(path string, registry *service.Registry, logger *logrus.Logger) (int, error) {
	if strings.TrimSpace(path) == "" {
		return 0, nil
	}
	defs, err := Read(path)
	if err != nil {
		if logger != nil {
			logger.WithFields(logrus.Fields{
				"action":       "services_file",
				"service_file": path,
				"error":        err.Error(),
			}).Warn("unable to use services file")
		}
		return 0, nil
	}

	baseDir := filepath.Dir(path)
	for _, def := range defs {
		handler, err := New(def, baseDir)
		if err != nil {
			return 0, err
		}
		if err := registry.Register(def.Name, path, handler); err != nil {
			return 0, err
		}
	}
	return len(defs), nil
}
