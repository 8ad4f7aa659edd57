package action

import (
	"bytes"
	"context"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScript 在临时目录写入可执行脚本
func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("需要 /bin/sh")
	}
	path := filepath.Join(t.TempDir(), "update.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return path
}

func TestExecInvoker_Success(t *testing.T) {
	out := filepath.Join(t.TempDir(), "ip.txt")
	path := writeScript(t, `printf "%s" "$1" > `+out)

	inv := NewExecInvoker(path)
	require.NoError(t, inv.Invoke(context.Background(), netip.MustParseAddr("203.0.113.7")))

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "203.0.113.7", string(got))
}

func TestExecInvoker_StdoutInherited(t *testing.T) {
	path := writeScript(t, `echo "ip=$1"`)

	var stdout bytes.Buffer
	inv := NewExecInvoker(path)
	inv.Stdout = &stdout

	require.NoError(t, inv.Invoke(context.Background(), netip.MustParseAddr("10.0.0.1")))
	assert.Equal(t, "ip=10.0.0.1\n", stdout.String())
}

func TestExecInvoker_NonZeroExit(t *testing.T) {
	path := writeScript(t, "exit 3")

	err := NewExecInvoker(path).Invoke(context.Background(), netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.False(t, IsFatal(err))
}

func TestExecInvoker_KilledBySignal(t *testing.T) {
	path := writeScript(t, "kill -9 $$")

	err := NewExecInvoker(path).Invoke(context.Background(), netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, ErrCommandFailed)
	assert.False(t, IsFatal(err))
}

func TestExecInvoker_SpawnFailure(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	err := NewExecInvoker(missing).Invoke(context.Background(), netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, ErrSpawn)
	assert.True(t, IsFatal(err))
}

func TestExecInvoker_NotExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX 权限")
	}
	path := filepath.Join(t.TempDir(), "plain")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o644))

	err := NewExecInvoker(path).Invoke(context.Background(), netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, ErrSpawn)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("sink closed")
}

func TestExecInvoker_WaitFailureIsFatal(t *testing.T) {
	path := writeScript(t, `echo "ip=$1"`)

	inv := NewExecInvoker(path)
	inv.Stdout = failingWriter{}

	err := inv.Invoke(context.Background(), netip.MustParseAddr("10.0.0.1"))
	assert.ErrorIs(t, err, ErrSpawn)
	assert.NotErrorIs(t, err, ErrCommandFailed)
	assert.True(t, IsFatal(err))
}

func TestExecInvoker_RejectsIPv6(t *testing.T) {
	err := NewExecInvoker("/bin/true").Invoke(context.Background(), netip.MustParseAddr("2001:db8::1"))
	assert.ErrorIs(t, err, ErrNotIPv4)
}

func TestNewExecInvoker_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultCommand, NewExecInvoker("").Path)
}
