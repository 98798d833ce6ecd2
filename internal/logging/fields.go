package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供 method/path/route 等字段，供分发日志复用。
func RequestFields(requestID, method, path, route string) logrus.Fields {
	fields := logrus.Fields{
		"method": method,
		"path":   path,
		"route":  route,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// ServiceFields 描述一次服务调用，CLI 触发时 requestID 为空。
func ServiceFields(requestID, service, trigger string) logrus.Fields {
	fields := logrus.Fields{
		"action":  "service",
		"service": service,
		"trigger": trigger,
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}
