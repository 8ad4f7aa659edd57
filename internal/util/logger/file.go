package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// multiCloser 依次关闭多个文件
type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for _, c := range m {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// SetupFiles 按配置打开日志文件并设置输出
//
// infoPath 为空时普通日志保持输出到 stderr，errPath 同理。
// 两个路径相同时只打开一次。返回的 Closer 应在进程退出前关闭。
func SetupFiles(infoPath, errPath string) (io.Closer, error) {
	var closers multiCloser
	var infoW, errW io.Writer

	open := func(path string) (*os.File, error) {
		if dir := filepath.Dir(path); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create log dir: %w", err)
			}
		}
		//nolint:gosec // G304: 日志路径来自用户配置
		return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	}

	if infoPath != "" {
		f, err := open(infoPath)
		if err != nil {
			return nil, fmt.Errorf("open info log %s: %w", infoPath, err)
		}
		closers = append(closers, f)
		infoW = f
	}

	if errPath != "" {
		if errPath == infoPath {
			errW = infoW
		} else {
			f, err := open(errPath)
			if err != nil {
				_ = closers.Close()
				return nil, fmt.Errorf("open error log %s: %w", errPath, err)
			}
			closers = append(closers, f)
			errW = f
		}
	}

	SetOutputs(infoW, errW)
	return closers, nil
}
