package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/devweb/devweb/internal/config"
	"github.com/devweb/devweb/internal/logging"
	"github.com/devweb/devweb/internal/server"
	"github.com/devweb/devweb/internal/server/routes"
	"github.com/devweb/devweb/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	printConfig bool
	showVersion bool
	showHelp    bool
	overrides   []config.Override
	triggers    []string
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showHelp {
		printUsage()
		return 0
	}
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath, opts.overrides...)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.printConfig {
		enc := json.NewEncoder(stdOut)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg.Redacted()); err != nil {
			fmt.Fprintf(stdErr, "输出配置失败: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["origin"] = cfg.OriginURL()
		fields["auth_mode"] = cfg.AuthMode()
		fields["web_root"] = cfg.LocalWebRoot
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	// 启动顺序：配置 → 运行时（服务/钩子/回源/分发器）→ CLI 服务触发 → Fiber server。
	rt, err := server.NewRuntime(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "构建运行时失败: %v\n", err)
		return 1
	}

	runTriggers(rt, opts.triggers)

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen"] = cfg.ListenAddr()
	fields["origin"] = cfg.OriginURL()
	fields["auth_mode"] = cfg.AuthMode()
	fields["web_root"] = cfg.LocalWebRoot
	fields["redirects"] = len(cfg.AddressRedirects)
	fields["version"] = version.Full()
	logger.WithFields(fields).Info("配置加载完成")

	if err := startHTTPServer(rt); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// runTriggers 依次调用命令行中以 "/" 开头的服务参数，结果只写日志。
func runTriggers(rt *server.Runtime, triggers []string) {
	for _, arg := range triggers {
		if _, err := rt.Dispatcher.Trigger(context.Background(), arg); err != nil {
			rt.Logger.WithFields(logrus.Fields{
				"action":   "service",
				"argument": arg,
			}).Warn("startup service trigger failed")
		}
	}
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
// `--set KEY VALUE` 需要两个参数，flag 包无法表达，因此先行扫描；
// 以 "/" 开头的位置参数视为服务触发。
func parseCLIFlags(args []string) (cliOptions, error) {
	var (
		opts     cliOptions
		flagArgs []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--set" || arg == "-set" || arg == "-s":
			if i+2 >= len(args) {
				return cliOptions{}, fmt.Errorf("参数 %s 需要 KEY VALUE 两个值", arg)
			}
			override, err := config.ParseOverride(args[i+1], args[i+2])
			if err != nil {
				return cliOptions{}, err
			}
			opts.overrides = append(opts.overrides, override)
			i += 2
		case arg == "--config" || arg == "-config":
			flagArgs = append(flagArgs, arg)
			if i+1 < len(args) {
				flagArgs = append(flagArgs, args[i+1])
				i++
			}
		case strings.HasPrefix(arg, "/"):
			opts.triggers = append(opts.triggers, arg)
		default:
			flagArgs = append(flagArgs, arg)
		}
	}

	fs := flag.NewFlagSet("devweb", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configFlag string
	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./devweb.toml，可被 DEVWEB_CONFIG 覆盖）")
	fs.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&opts.printConfig, "print-config", false, "输出解析后的配置（隐藏 AccessToken）后退出")
	fs.BoolVar(&opts.showVersion, "version", false, "显示版本信息")

	if err := fs.Parse(flagArgs); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			opts.showHelp = true
			return opts, nil
		}
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}
	if rest := fs.Args(); len(rest) > 0 {
		return cliOptions{}, fmt.Errorf("无法识别的参数: %s", strings.Join(rest, " "))
	}
	path := os.Getenv("DEVWEB_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = config.DefaultPath
	}
	opts.configPath = path
	return opts, nil
}

func startHTTPServer(rt *server.Runtime) error {
	cfg := rt.Config
	app, err := server.NewApp(server.AppOptions{
		Logger:      rt.Logger,
		Dispatcher:  rt.Dispatcher,
		Diagnostics: cfg.EnableDiagnostics,
	})
	if err != nil {
		return err
	}
	if cfg.EnableDiagnostics {
		routes.RegisterDiagnostics(app, rt)
	}

	rt.Logger.WithFields(logrus.Fields{
		"action":   "listen",
		"addr":     cfg.ListenAddr(),
		"web_root": cfg.LocalWebRoot,
	}).Infof("Serving from directory %s at http://%s", cfg.LocalWebRoot, cfg.ListenAddr())

	return app.Listen(cfg.ListenAddr())
}
