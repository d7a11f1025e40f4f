package sandbox

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fakePNG = base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake-image-data"))

// useFakeInterpreter replaces the interpreter with this test binary running
// TestHelperProcess in the given mode and returns a counter of starts.
func useFakeInterpreter(t *testing.T, mode string) *atomic.Int32 {
	t.Helper()
	var starts atomic.Int32
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		starts.Add(1)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "SANDBOX_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &starts
}

func newTestBridge(t *testing.T, cfg Config) *Bridge {
	t.Helper()
	b := New(cfg)
	t.Cleanup(func() { b.Close() })
	return b
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	out := bufio.NewWriter(os.Stdout)
	send := func(v any) {
		data, _ := json.Marshal(v)
		out.Write(append(data, '\n'))
		out.Flush()
	}

	if os.Getenv("SANDBOX_HELPER_MODE") == "noready" {
		send(map[string]any{"ready": false, "error": "ModuleNotFoundError: No module named 'matplotlib'"})
		os.Exit(1)
	}

	fmt.Fprintln(out, "stray banner line")
	send(map[string]any{"ready": true})

	in := bufio.NewScanner(os.Stdin)
	for in.Scan() {
		var req struct {
			ID   int    `json:"id"`
			Code string `json:"code"`
		}
		if err := json.Unmarshal(in.Bytes(), &req); err != nil {
			continue
		}
		switch req.Code {
		case "hang":
			time.Sleep(time.Minute)
		case "crash":
			os.Exit(3)
		case "fail":
			send(map[string]any{"id": req.ID, "error": "NameError: name 'x' is not defined"})
		case "stale":
			send(map[string]any{"id": req.ID + 1000, "image": fakePNG})
			send(map[string]any{"id": req.ID, "image": fakePNG})
		case "notpng":
			send(map[string]any{"id": req.ID, "image": base64.StdEncoding.EncodeToString([]byte("GIF89a-----"))})
		default:
			send(map[string]any{"id": req.ID, "image": fakePNG})
		}
	}
	os.Exit(0)
}

func TestRenderSuccessReusesInterpreter(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	img, ok := b.Render(context.Background(), "plt.plot([1, 2])")
	require.True(t, ok)
	assert.Equal(t, "data:image/png;base64,"+fakePNG, img)

	_, ok = b.Render(context.Background(), "plt.plot([3, 4])")
	require.True(t, ok)
	assert.Equal(t, int32(1), starts.Load())
}

func TestRenderPythonErrorKeepsInterpreter(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	img, ok := b.Render(context.Background(), "fail")
	assert.False(t, ok)
	assert.Empty(t, img)

	_, ok = b.Render(context.Background(), "plt.plot()")
	assert.True(t, ok)
	assert.Equal(t, int32(1), starts.Load())
}

func TestRenderSkipsStaleReplies(t *testing.T) {
	useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	_, ok := b.Render(context.Background(), "stale")
	assert.True(t, ok)
}

func TestRenderRejectsNonPNG(t *testing.T) {
	useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	_, ok := b.Render(context.Background(), "notpng")
	assert.False(t, ok)
}

func TestRenderTimeoutRestartsInterpreter(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	cfg := DefaultConfig()
	cfg.RenderTimeout = 200 * time.Millisecond
	b := newTestBridge(t, cfg)

	begin := time.Now()
	_, ok := b.Render(context.Background(), "hang")
	assert.False(t, ok)
	assert.Less(t, time.Since(begin), 10*time.Second)

	_, ok = b.Render(context.Background(), "plt.plot()")
	assert.True(t, ok)
	assert.Equal(t, int32(2), starts.Load())
}

func TestRenderCrashRestartsInterpreter(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	_, ok := b.Render(context.Background(), "crash")
	assert.False(t, ok)

	_, ok = b.Render(context.Background(), "plt.plot()")
	assert.True(t, ok)
	assert.Equal(t, int32(2), starts.Load())
}

func TestRenderContextCancelled(t *testing.T) {
	useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, ok := b.Render(ctx, "hang")
	assert.False(t, ok)
}

func TestRenderEmptyCodeDoesNotStart(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	_, ok := b.Render(context.Background(), "  \n ")
	assert.False(t, ok)
	assert.Equal(t, int32(0), starts.Load())
}

func TestInterpreterNotReady(t *testing.T) {
	starts := useFakeInterpreter(t, "noready")
	b := newTestBridge(t, DefaultConfig())

	err := b.Warm(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matplotlib")

	// A failed start is retried by the next caller.
	_, ok := b.Render(context.Background(), "plt.plot()")
	assert.False(t, ok)
	assert.Equal(t, int32(2), starts.Load())
}

func TestIsolatedStartsPerRender(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	cfg := DefaultConfig()
	cfg.Isolated = true
	b := newTestBridge(t, cfg)

	for i := 0; i < 3; i++ {
		_, ok := b.Render(context.Background(), "plt.plot()")
		require.True(t, ok)
	}
	assert.Equal(t, int32(3), starts.Load())
}

func TestConcurrentRendersShareOneInterpreter(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	var wg sync.WaitGroup
	var okCount atomic.Int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, ok := b.Render(context.Background(), fmt.Sprintf("plt.plot([%d])", i)); ok {
				okCount.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(8), okCount.Load())
	assert.Equal(t, int32(1), starts.Load())
}

func TestWarmSharesStart(t *testing.T) {
	starts := useFakeInterpreter(t, "ok")
	b := newTestBridge(t, DefaultConfig())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, b.Warm(context.Background()))
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), starts.Load())
}

func TestRenderAfterClose(t *testing.T) {
	useFakeInterpreter(t, "ok")
	b := New(DefaultConfig())
	require.NoError(t, b.Warm(context.Background()))
	require.NoError(t, b.Close())

	_, ok := b.Render(context.Background(), "plt.plot()")
	assert.False(t, ok)
	assert.ErrorIs(t, b.Warm(context.Background()), ErrClosed)
}

func TestBootstrapScript(t *testing.T) {
	for _, want := range []string{
		`matplotlib.use("Agg")`,
		"def get_plot_base64():",
		`dpi=150`,
		`bbox_inches="tight"`,
		`plt.close("all")`,
	} {
		assert.True(t, strings.Contains(bootstrapScript, want), "bootstrap missing %q", want)
	}
}
