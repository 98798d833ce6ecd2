// Package service 提供本地服务处理器的注册表与调用约定。
//
// 服务按名称（去掉前导 "/" 的路由）匹配，命中后不再查找静态文件或回源。
// 内置服务在各自子包的 init() 中通过 MustRegisterBuiltin 加入目录，
// 启动时根据配置中的 Services 列表启用；服务文件声明的固定响应由 fixture 子包加载。
// Registry 在启动完成后 Freeze，请求处理期间只读。
package service
