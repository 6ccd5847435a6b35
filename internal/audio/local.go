package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/ammar1510/voicelink/internal/logger"
)

var log = logger.New("audio")

// LocalPlayer downloads a clip and plays it through an external command.
// The default command is ffplay; any binary that takes a file path and
// exits when playback ends will work.
type LocalPlayer struct {
	command string
	client  *http.Client

	mu         sync.Mutex
	cmd        *exec.Cmd
	cancel     context.CancelFunc
	status     PlaybackStatus
	onFinished func()
}

func NewLocalPlayer(command string) *LocalPlayer {
	if command == "" {
		command = "ffplay"
	}
	return &LocalPlayer{
		command: command,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *LocalPlayer) SetOnFinished(fn func()) {
	p.mu.Lock()
	p.onFinished = fn
	p.mu.Unlock()
}

func (p *LocalPlayer) Status() PlaybackStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Play fetches the clip to a temp file and starts the playback command.
// A clip already playing is stopped first.
func (p *LocalPlayer) Play(url string) error {
	data, err := p.download(url)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "voicelink-*.m4a")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	tmp.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cmd := p.buildCommand(ctx, tmp.Name())

	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		cancel()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to start playback: %w", err)
	}
	p.cmd = cmd
	p.cancel = cancel
	p.status = StatusPlaying
	p.mu.Unlock()

	go p.waitForExit(ctx, cmd, tmp.Name())
	return nil
}

// Stop terminates playback. The finished callback is not fired for a
// stopped clip.
func (p *LocalPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.cmd = nil
	p.status = StatusStopped
	return nil
}

func (p *LocalPlayer) waitForExit(ctx context.Context, cmd *exec.Cmd, path string) {
	err := cmd.Wait()
	os.Remove(path)

	p.mu.Lock()
	if p.cmd != cmd {
		// Superseded by a newer Play or an explicit Stop.
		p.mu.Unlock()
		return
	}
	p.cmd = nil
	p.cancel = nil
	p.status = StatusStopped
	fn := p.onFinished
	p.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		log.Warn("playback command exited with error: %v", err)
		return
	}
	if fn != nil {
		fn()
	}
}

// buildCommand appends the clip path to the configured command line.
func (p *LocalPlayer) buildCommand(ctx context.Context, path string) *exec.Cmd {
	if p.command == "ffplay" {
		return exec.CommandContext(ctx, "ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path)
	}
	parts := strings.Fields(p.command)
	args := append(parts[1:], path)
	return exec.CommandContext(ctx, parts[0], args...)
}

func (p *LocalPlayer) download(url string) ([]byte, error) {
	resp, err := p.client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch clip: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch clip: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
