package lint

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var (
	_ Linter = (*Shellcheck)(nil)
	_ Linter = PassThrough{}
	_ Linter = (*MockLinter)(nil)
)

func fakeLinter(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "fake-shellcheck")
	require.NoError(t, os.WriteFile(p, []byte("#!/bin/sh\n"+body+"\n"), 0o755))
	return p
}

func TestShellcheck_Defaults(t *testing.T) {
	sc := NewShellcheck(ShellcheckArgs{}, nil)
	require.Equal(t, "shellcheck", sc.binary)
	require.Equal(t, []string{"-S", "warning"}, sc.args)
	require.Equal(t, DefaultTimeoutSeconds, int(sc.timeout.Seconds()))
}

func TestShellcheck_Run(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("skipping linter process tests on Windows")
	}

	t.Run("clean script", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: fakeLinter(t, "exit 0")}, zap.NewNop())
		res := sc.Run(context.Background(), "setup.sh")
		require.Equal(t, StatusOK, res.Status)
		require.True(t, res.Passed())
	})

	t.Run("warnings fail", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: fakeLinter(t, `echo "SC2086: Double quote"; exit 1`)}, zap.NewNop())
		res := sc.Run(context.Background(), "setup.sh")
		require.Equal(t, StatusFailed, res.Status)
		require.False(t, res.Passed())
		require.Contains(t, res.Output, "SC2086")
	})

	t.Run("timeout passes", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: fakeLinter(t, "exec sleep 5"), Timeout: 1}, zap.NewNop())
		res := sc.Run(context.Background(), "setup.sh")
		require.Equal(t, StatusTimedOut, res.Status)
		require.True(t, res.Passed())
	})

	t.Run("cancellation passes", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: fakeLinter(t, "exec sleep 5")}, zap.NewNop())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		stop := time.AfterFunc(200*time.Millisecond, cancel)
		defer stop.Stop()

		res := sc.Run(ctx, "setup.sh")
		require.Equal(t, StatusTimedOut, res.Status)
		require.True(t, res.Passed())
	})

	t.Run("missing binary passes", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: filepath.Join(t.TempDir(), "does-not-exist")}, zap.NewNop())
		res := sc.Run(context.Background(), "setup.sh")
		require.Equal(t, StatusNotFound, res.Status)
		require.True(t, res.Passed())
	})

	t.Run("receives the file path last", func(t *testing.T) {
		sc := NewShellcheck(ShellcheckArgs{Binary: fakeLinter(t, `echo "$@"`)}, zap.NewNop())
		res := sc.Run(context.Background(), "/tmp/firewall_rules.sh")
		require.Equal(t, "-S warning /tmp/firewall_rules.sh", res.Output)
	})
}

func TestDetect(t *testing.T) {
	l := Detect(ShellcheckArgs{Binary: "definitely-not-a-real-linter-binary"}, zap.NewNop())
	require.IsType(t, PassThrough{}, l)
	require.True(t, l.Run(context.Background(), "x.sh").Passed())

	if runtime.GOOS != "windows" {
		l = Detect(ShellcheckArgs{Binary: fakeLinter(t, "exit 0")}, zap.NewNop())
		require.IsType(t, &Shellcheck{}, l)
	}
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "timed out", StatusTimedOut.String())
	require.Equal(t, "Status(9)", Status(9).String())
}
