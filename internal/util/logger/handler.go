package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

var (
	// infoOutput 普通日志输出目标，默认为 stderr
	infoOutput io.Writer = os.Stderr
	// errOutput 错误日志输出目标，默认为 stderr
	errOutput io.Writer = os.Stderr

	outputMu sync.RWMutex
)

// dynamicWriter 每次写入时查找当前的输出目标
// 这样即使在 logger 创建后修改输出，也能生效
type dynamicWriter struct {
	errStream bool
}

func (w *dynamicWriter) Write(p []byte) (n int, err error) {
	outputMu.RLock()
	output := infoOutput
	if w.errStream {
		output = errOutput
	}
	outputMu.RUnlock()
	return output.Write(p)
}

// subsystemHandler 是一个支持子系统级别控制的 slog.Handler
//
// Error 及以上级别的记录写入错误输出，其余写入普通输出。
type subsystemHandler struct {
	subsystem string
	level     *slog.LevelVar
	info      slog.Handler
	err       slog.Handler
}

// newHandler 创建新的子系统 Handler
func newHandler(subsystem string, level slog.Level, format LogFormat) *subsystemHandler {
	lv := &slog.LevelVar{}
	lv.Set(level)

	opts := &slog.HandlerOptions{
		Level:     lv,
		AddSource: ConfigFromEnv().AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			if a.Key == slog.LevelKey {
				if l, ok := a.Value.Any().(slog.Level); ok {
					a.Value = slog.StringValue(levelToString(l))
				}
			}
			return a
		},
	}

	build := func(w io.Writer) slog.Handler {
		var h slog.Handler
		if format == FormatJSON {
			h = slog.NewJSONHandler(w, opts)
		} else {
			h = slog.NewTextHandler(w, opts)
		}
		return h.WithAttrs([]slog.Attr{slog.String("subsystem", subsystem)})
	}

	return &subsystemHandler{
		subsystem: subsystem,
		level:     lv,
		info:      build(&dynamicWriter{}),
		err:       build(&dynamicWriter{errStream: true}),
	}
}

// Enabled 检查是否启用指定级别
func (h *subsystemHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle 处理日志记录
func (h *subsystemHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return h.err.Handle(ctx, r)
	}
	return h.info.Handle(ctx, r)
}

// WithAttrs 添加属性
func (h *subsystemHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &subsystemHandler{
		subsystem: h.subsystem,
		level:     h.level,
		info:      h.info.WithAttrs(attrs),
		err:       h.err.WithAttrs(attrs),
	}
}

// WithGroup 添加组
func (h *subsystemHandler) WithGroup(name string) slog.Handler {
	return &subsystemHandler{
		subsystem: h.subsystem,
		level:     h.level,
		info:      h.info.WithGroup(name),
		err:       h.err.WithGroup(name),
	}
}

// SetLevel 动态设置日志级别
func (h *subsystemHandler) SetLevel(level slog.Level) {
	h.level.Set(level)
}

// levelToString 将日志级别转换为小写字符串
func levelToString(level slog.Level) string {
	switch level {
	case slog.LevelDebug:
		return "debug"
	case slog.LevelInfo:
		return "info"
	case slog.LevelWarn:
		return "warn"
	case slog.LevelError:
		return "error"
	default:
		return "info"
	}
}

// discardHandler 丢弃所有日志的 Handler（用于测试）
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (d discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return d }
func (d discardHandler) WithGroup(string) slog.Handler           { return d }

// DiscardHandler 返回一个丢弃所有日志的 Handler
func DiscardHandler() slog.Handler {
	return discardHandler{}
}
