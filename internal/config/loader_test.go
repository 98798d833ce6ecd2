package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRejectsInvalidDuration(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
UpstreamTimeout = "boom"
`, t.TempDir())
	path := writeTempConfig(t, cfg)
	if _, err := Load(path); err == nil {
		t.Fatalf("无效 Duration 应失败")
	}
}

func TestLoadAcceptsSecondsDuration(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
UpstreamTimeout = 5
`, t.TempDir())
	loaded, err := Load(writeTempConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if got := loaded.UpstreamTimeout.DurationValue().Seconds(); got != 5 {
		t.Fatalf("纯数字应按秒解析，得到 %v", got)
	}
}

func TestLoadHonorsExplicitEmptyCriteria(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
ExtractionCriteria = []
`, t.TempDir())
	loaded, err := Load(writeTempConfig(t, cfg))
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if len(loaded.ExtractionCriteria) != 0 {
		t.Fatalf("显式空列表不应被默认值替换: %v", loaded.ExtractionCriteria)
	}
}

func TestLoadAppliesOverrides(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
Port = 8000

[AddressRedirects]
"/a/" = "/calendar/"
`, t.TempDir())
	path := writeTempConfig(t, cfg)

	overrides := []Override{
		{Key: "Port", Value: "9100"},
		{Key: "ExtractionCriteria", Value: "method,header"},
		{Key: "AddressRedirects", Value: "/b/:/blog/"},
		{Key: "AccessToken", Value: "from-cli"},
	}
	loaded, err := Load(path, overrides...)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.Port != 9100 {
		t.Fatalf("Port 覆盖失败: %d", loaded.Port)
	}
	if len(loaded.ExtractionCriteria) != 2 {
		t.Fatalf("列表覆盖应按逗号拆分: %v", loaded.ExtractionCriteria)
	}
	if loaded.AddressRedirects["/a/"] != "/calendar/" || loaded.AddressRedirects["/b/"] != "/blog/" {
		t.Fatalf("map 覆盖应合并已有键: %v", loaded.AddressRedirects)
	}
	if loaded.AccessToken != "from-cli" {
		t.Fatalf("标量覆盖失败: %s", loaded.AccessToken)
	}
}

func TestLoadRejectsMalformedMapOverride(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"

[AddressRedirects]
"/a/" = "/calendar/"
`, t.TempDir())
	path := writeTempConfig(t, cfg)
	if _, err := Load(path, Override{Key: "AddressRedirects", Value: "novalue"}); err == nil {
		t.Fatalf("缺少冒号的 map 覆盖应当报错")
	}
}

func TestLoadPreservesRedirectPrefixCase(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"

[AddressRedirects]
"/Calendar/" = "/cal/"
"/docs/" = "/Docs/v2/"
`, t.TempDir())
	loaded, err := Load(writeTempConfig(t, cfg), Override{Key: "addressredirects", Value: "/Blog/:/b/"})
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	want := map[string]string{"/Calendar/": "/cal/", "/docs/": "/Docs/v2/", "/Blog/": "/b/"}
	if len(loaded.AddressRedirects) != len(want) {
		t.Fatalf("前缀大小写应原样保留: %v", loaded.AddressRedirects)
	}
	for from, to := range want {
		if loaded.AddressRedirects[from] != to {
			t.Fatalf("%s 应映射到 %s，得到 %v", from, to, loaded.AddressRedirects)
		}
	}
}

func TestLoadPreservesRedirectPrefixCaseYAML(t *testing.T) {
	dir := t.TempDir()
	content := fmt.Sprintf("LocalWebRoot: %q\nProxyHost: www.example.com\nAddressRedirects:\n  /Calendar/: /cal/\n", dir)
	path := filepath.Join(dir, "devweb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load 返回错误: %v", err)
	}
	if loaded.AddressRedirects["/Calendar/"] != "/cal/" || len(loaded.AddressRedirects) != 1 {
		t.Fatalf("YAML 前缀大小写应原样保留: %v", loaded.AddressRedirects)
	}
}

func TestLoadOverrideCreatesMissingMaps(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
`, t.TempDir())
	overrides := []Override{
		{Key: "ResponseHeaders", Value: "Access-Control-Allow-Origin:*"},
		{Key: "AddressRedirects", Value: "/Old/:/new/"},
		{Key: "Services", Value: "echo,devweb/status"},
	}
	loaded, err := Load(writeTempConfig(t, cfg), overrides...)
	if err != nil {
		t.Fatalf("文件中缺失的 map 字段也应接受 --set: %v", err)
	}
	if len(loaded.ResponseHeaders) != 1 {
		t.Fatalf("ResponseHeaders 覆盖失败: %v", loaded.ResponseHeaders)
	}
	for _, value := range loaded.ResponseHeaders {
		if value != "*" {
			t.Fatalf("ResponseHeaders 值错误: %v", loaded.ResponseHeaders)
		}
	}
	if loaded.AddressRedirects["/Old/"] != "/new/" || len(loaded.AddressRedirects) != 1 {
		t.Fatalf("AddressRedirects 覆盖失败: %v", loaded.AddressRedirects)
	}
	if len(loaded.Services) != 2 || loaded.Services[1] != "devweb/status" {
		t.Fatalf("Services 覆盖失败: %v", loaded.Services)
	}
}

func TestLoadRejectsMalformedOverrideOnMissingMap(t *testing.T) {
	cfg := fmt.Sprintf(`
LocalWebRoot = %q
ProxyHost = "www.example.com"
`, t.TempDir())
	if _, err := Load(writeTempConfig(t, cfg), Override{Key: "ResponseHeaders", Value: "novalue"}); err == nil {
		t.Fatalf("缺少冒号的 map 覆盖应当报错")
	}
}

func TestParseOverrideRequiresKey(t *testing.T) {
	if _, err := ParseOverride("  ", "x"); err == nil {
		t.Fatalf("空键应当报错")
	}
	o, err := ParseOverride(" Port ", "9000")
	if err != nil || o.Key != "Port" {
		t.Fatalf("ParseOverride 结果错误: %+v %v", o, err)
	}
}
