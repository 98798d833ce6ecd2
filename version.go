package main

import (
	"fmt"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/version"
)

// printVersion 输出注入的版本 + 提交信息。
func printVersion() {
	fmt.Fprintln(stdOut, version.Full())
}

// printUsage 输出 CLI 帮助信息。
func printUsage() {
	fmt.Fprintf(stdOut, `Usage: devweb [options] [/service?key=value ...]

Options:
  --config PATH       配置文件路径（默认 %s，可被 DEVWEB_CONFIG 覆盖）
  --check-config      仅校验配置后退出
  --print-config      输出解析后的配置后退出
  --set KEY VALUE     覆盖配置项，可重复；列表用逗号分隔，映射用 k:v
  --version           显示版本信息
  -h, --help          显示帮助信息

以 "/" 开头的参数会在启动时调用对应服务，结果写入日志。
`, config.DefaultPath)
}
