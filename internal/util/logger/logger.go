// Package logger 提供 keepalive 的统一日志系统
//
// 基于标准库 log/slog，支持：
//   - 按子系统配置日志级别
//   - 环境变量配置（KEEPALIVE_LOG_LEVEL, KEEPALIVE_LOG_FORMAT）
//   - 普通日志与错误日志分别输出（对应配置中的 log_info / log_err）
//
// 使用示例:
//
//	var log = logger.Logger("client")
//
//	func foo() {
//	    log.Info("connected", "addr", addr)
//	    log.Error("dial failed", "err", err)
//	}
//
// 环境变量配置:
//
//	# 设置所有模块为 info，slots 模块为 debug
//	KEEPALIVE_LOG_LEVEL=slots=debug,info
//
//	# 使用 JSON 格式输出
//	KEEPALIVE_LOG_FORMAT=json
package logger

import (
	"io"
	"log/slog"
	"sync"
)

var (
	// loggers 缓存各子系统的 Logger
	loggers sync.Map // map[string]*slog.Logger

	// handlers 缓存各子系统的 Handler（用于动态调整级别）
	handlers sync.Map // map[string]*subsystemHandler
)

// Logger 获取指定子系统的 Logger
//
// 同一子系统多次调用会返回相同的 Logger 实例。
func Logger(subsystem string) *slog.Logger {
	if l, ok := loggers.Load(subsystem); ok {
		return l.(*slog.Logger)
	}

	cfg := ConfigFromEnv()
	handler := newHandler(subsystem, cfg.LevelForSubsystem(subsystem), cfg.Format)

	actual, loaded := loggers.LoadOrStore(subsystem, slog.New(handler))
	if !loaded {
		handlers.Store(subsystem, handler)
	}
	return actual.(*slog.Logger)
}

// SetLevel 动态设置子系统的日志级别
func SetLevel(subsystem string, level slog.Level) {
	if h, ok := handlers.Load(subsystem); ok {
		h.(*subsystemHandler).SetLevel(level)
	}
}

// SetGlobalLevel 设置所有已创建子系统的日志级别
func SetGlobalLevel(level slog.Level) {
	handlers.Range(func(_, value any) bool {
		value.(*subsystemHandler).SetLevel(level)
		return true
	})
}

// Discard 返回一个丢弃所有日志的 Logger
//
// 主要用于测试，避免日志输出干扰测试结果。
func Discard() *slog.Logger {
	return slog.New(DiscardHandler())
}

// SetOutput 将普通日志与错误日志都输出到 w
func SetOutput(w io.Writer) {
	SetOutputs(w, w)
}

// SetOutputs 分别设置普通日志与错误日志的输出目标
//
// Error 级别的记录写入 errW，其余写入infoW。nil 表示保持原输出。
// 由于使用了 dynamicWriter，已创建的 Logger 也会立即生效。
func SetOutputs(infoW, errW io.Writer) {
	outputMu.Lock()
	defer outputMu.Unlock()
	if infoW != nil {
		infoOutput = infoW
	}
	if errW != nil {
		errOutput = errW
	}
}
