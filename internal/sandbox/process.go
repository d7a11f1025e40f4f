package sandbox

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
)

type request struct {
	ID   int    `json:"id"`
	Code string `json:"code"`
}

type reply struct {
	Ready bool   `json:"ready"`
	ID    *int   `json:"id"`
	Image string `json:"image"`
	Error string `json:"error"`
}

// process is one running interpreter. Replies arrive on replies, which is
// closed when stdout reaches EOF; exited is closed once the process has
// been reaped.
type process struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	replies chan reply
	exited  chan struct{}

	killOnce sync.Once
}

func (p *process) readLoop(stdout io.Reader, logger *slog.Logger) {
	defer close(p.exited)
	defer close(p.replies)

	r := bufio.NewReader(stdout)
	for {
		line, err := r.ReadBytes('\n')
		if len(strings.TrimSpace(string(line))) > 0 {
			var msg reply
			if jerr := json.Unmarshal(line, &msg); jerr != nil {
				logger.Debug("ignoring interpreter output", "line", truncate(string(line), 200))
			} else {
				p.replies <- msg
			}
		}
		if err != nil {
			break
		}
	}
	if err := p.cmd.Wait(); err != nil {
		logger.Debug("interpreter exited", "error", err)
	}
}

func (p *process) send(req request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	data = append(data, '\n')
	if _, err := p.stdin.Write(data); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

func (p *process) alive() bool {
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// kill stops the interpreter and waits for it to be reaped.
func (p *process) kill() {
	p.killOnce.Do(func() {
		_ = p.stdin.Close()
		if p.cmd.Process != nil {
			_ = p.cmd.Process.Kill()
		}
		// Unblock readLoop if nobody is draining replies.
		go func() {
			for range p.replies {
			}
		}()
		<-p.exited
	})
}

// stderrLog forwards interpreter stderr to the debug log.
type stderrLog struct {
	logger *slog.Logger
}

func (w stderrLog) Write(b []byte) (int, error) {
	if s := strings.TrimSpace(string(b)); s != "" {
		w.logger.Debug("interpreter stderr", "output", truncate(s, 2000))
	}
	return len(b), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
