package action

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/exec"
)

// DefaultCommand 默认更新命令
const DefaultCommand = "/data/usr/bin/pen_update_ip"

// ExecInvoker 运行 `<Path> <dotted-ipv4>` 并等待其退出
//
// 子进程的标准输出和标准错误直接继承，不捕获。
type ExecInvoker struct {
	Path   string
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecInvoker 创建命令调用器
func NewExecInvoker(path string) *ExecInvoker {
	if path == "" {
		path = DefaultCommand
	}
	return &ExecInvoker{
		Path:   path,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

// Invoke 运行命令
//
// 启动失败返回 ErrSpawn；非零退出或被信号终止返回 ErrCommandFailed。
// 其余等待失败（如输出转发出错）无法确认命令结果，同样按 ErrSpawn 处理。
// 子进程不随 ctx 取消而终止。
func (e *ExecInvoker) Invoke(_ context.Context, ip netip.Addr) error {
	ip = ip.Unmap()
	if !ip.Is4() {
		return fmt.Errorf("%w: %s", ErrNotIPv4, ip)
	}

	cmd := exec.Command(e.Path, ip.String())
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrSpawn, e.Path, err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %s %s: %s", ErrCommandFailed, e.Path, ip, exitErr.ProcessState)
		}
		return fmt.Errorf("%w: %s %s: wait: %w", ErrSpawn, e.Path, ip, err)
	}

	log.Info("外部命令执行成功", "cmd", e.Path, "ip", ip.String())
	return nil
}
