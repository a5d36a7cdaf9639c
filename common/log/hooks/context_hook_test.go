package hooks

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestCaller(t *testing.T) {
	stack := strings.Join([]string{
		"goroutine 1 [running]:",
		"runtime/debug.Stack(0x0, 0x0, 0x0)",
		"\t/usr/local/go/src/runtime/debug/stack.go:24 +0x9d",
		"github.com/twitter/rpctest/common/log/hooks.contextHook.Fire(0xc0000a4000, 0x1, 0x2)",
		"\t/src/github.com/twitter/rpctest/common/log/hooks/context_hook.go:24 +0x3e",
		"github.com/sirupsen/logrus.LevelHooks.Fire(0xc000090030, 0x4, 0xc0000a4000, 0x0, 0x0)",
		"\t/go/pkg/mod/github.com/sirupsen/logrus@v1.4.2/hooks.go:28 +0x91",
		"github.com/twitter/rpctest/rpctest.(*Client).CreateTest(0xc0000b6000)",
		"\t/src/github.com/twitter/rpctest/rpctest/client.go:151 +0x2f1",
	}, "\n")

	line, ok := caller(stack)
	if !ok {
		t.Fatal("expected a caller")
	}
	if line != "rpctest/client.go:151" {
		t.Fatalf("got %q", line)
	}

	if _, ok := caller("goroutine 1 [running]:\n"); ok {
		t.Fatal("expected no caller in an empty trace")
	}
}

func TestFireAddsFileLine(t *testing.T) {
	out := &bytes.Buffer{}
	logger := logrus.New()
	logger.Out = out
	logger.AddHook(NewContextHook())
	logger.Info("hello")
	if !strings.Contains(out.String(), "file:line") {
		t.Fatalf("expected file:line in %q", out.String())
	}
}
