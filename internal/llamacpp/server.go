package llamacpp

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os/exec"
	"slices"
	"sync"
	"time"

	"github.com/samcharles93/llamabricks/internal/logger"
	"github.com/samcharles93/llamabricks/internal/metrics"
)

// State is the llama-server lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateStarting   State = "starting"
	StateReady      State = "ready"
	StateStopped    State = "stopped"
	StateFailed     State = "failed"
)

// DefaultPort is llama-server's default listen port.
const DefaultPort = 8080

// ServerConfig describes how to launch llama-server.
type ServerConfig struct {
	Binary    string
	ModelPath string
	Port      int

	// Args are rendered as --key value. port and host are reserved and nil
	// values are skipped.
	Args map[string]any

	PollInterval time.Duration
	StopGrace     time.Duration
}

// Server owns one llama-server child process.
type Server struct {
	cfg    ServerConfig
	client *Client

	mu      sync.Mutex
	state   State
	cmd     *exec.Cmd
	done    chan struct{}
	exitErr error
	stderr  *tailBuffer
}

// NewServer applies defaults to cfg. Nothing is validated or spawned.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Binary == "" {
		cfg.Binary = "llama-server"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = 5 * time.Second
	}
	return &Server{
		cfg:    cfg,
		client: NewClient(cfg.Port),
		state:  StateNotStarted,
	}
}

// Port returns the listen port.
func (s *Server) Port() int { return s.cfg.Port }

// Client returns an HTTP client bound to the server port.
func (s *Server) Client() *Client { return s.client }

// CommandLine renders the argv used to launch the server, binary first.
func (s *Server) CommandLine() []string {
	argv := []string{
		s.cfg.Binary,
		"--model", s.cfg.ModelPath,
		"--port", fmt.Sprint(s.cfg.Port),
		"--host", LoopbackHost,
	}
	for _, key := range slices.Sorted(maps.Keys(s.cfg.Args)) {
		v := s.cfg.Args[key]
		if key == "port" || key == "host" || v == nil {
			continue
		}
		argv = append(argv, "--"+key, fmt.Sprint(v))
	}
	return argv
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tracked reports whether a child process is held, alive or not.
func (s *Server) Tracked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd != nil
}

// Running is a poll-style liveness check of the tracked process.
func (s *Server) Running() bool {
	s.mu.Lock()
	done := s.done
	tracked := s.cmd != nil
	s.mu.Unlock()
	if !tracked {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// Start spawns llama-server. Success only means the process was created;
// call WaitReady before sending requests.
func (s *Server) Start(ctx context.Context) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd != nil {
		return ErrAlreadyStarted
	}

	argv := s.CommandLine()
	cmd := exec.Command(argv[0], argv[1:]...)
	tail := newTailBuffer(4096)
	cmd.Stdout = tail
	cmd.Stderr = tail
	if err := cmd.Start(); err != nil {
		s.setStateLocked(StateFailed)
		return fmt.Errorf("start %s: %w", s.cfg.Binary, err)
	}

	s.cmd = cmd
	s.stderr = tail
	s.exitErr = nil
	s.done = make(chan struct{})
	s.setStateLocked(StateStarting)
	log.Info("llama-server spawned", "pid", cmd.Process.Pid, "port", s.cfg.Port, "model", s.cfg.ModelPath)

	go s.reap(cmd, s.done, log)
	return nil
}

func (s *Server) reap(cmd *exec.Cmd, done chan struct{}, log logger.Logger) {
	err := cmd.Wait()
	s.mu.Lock()
	defer s.mu.Unlock()
	close(done)
	if s.cmd != cmd {
		return
	}
	s.exitErr = err
	if s.state != StateStopped {
		s.setStateLocked(StateFailed)
		log.Warn("llama-server exited", "err", err, "output", s.stderr.String())
	}
}

// WaitReady polls /health until it answers 200, the process exits or ctx
// ends.
func (s *Server) WaitReady(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	tracked := s.cmd != nil
	s.mu.Unlock()
	if !tracked {
		return fmt.Errorf("%w: no process", ErrNotReady)
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return s.exitError()
		default:
		}

		err := s.client.Health(ctx)
		if err == nil {
			s.mu.Lock()
			if s.state == StateStarting {
				s.setStateLocked(StateReady)
			}
			s.mu.Unlock()
			logger.FromContext(ctx).Info("llama-server ready", "port", s.cfg.Port)
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrNotReady, ctx.Err())
		case <-done:
			return s.exitError()
		case <-ticker.C:
		}
	}
}

func (s *Server) exitError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := ""
	if s.stderr != nil {
		out = s.stderr.String()
	}
	if s.exitErr != nil {
		return fmt.Errorf("%w: %v: %s", ErrExited, s.exitErr, out)
	}
	return fmt.Errorf("%w: %s", ErrExited, out)
}

// Stop terminates the tracked process: SIGTERM, then kill after the grace
// period. Calling Stop with nothing tracked is a no-op.
func (s *Server) Stop() error {
	s.mu.Lock()
	cmd, done := s.cmd, s.done
	if cmd == nil {
		s.mu.Unlock()
		return nil
	}
	s.setStateLocked(StateStopped)
	s.mu.Unlock()

	var err error
	select {
	case <-done:
	default:
		if termErr := terminate(cmd.Process); termErr != nil {
			err = termErr
		}
		select {
		case <-done:
		case <-time.After(s.cfg.StopGrace):
			if killErr := cmd.Process.Kill(); killErr != nil && !errors.Is(killErr, errProcessDone) {
				err = killErr
			}
			<-done
		}
	}

	s.mu.Lock()
	s.cmd = nil
	s.mu.Unlock()
	return err
}

func (s *Server) setStateLocked(st State) {
	s.state = st
	metrics.ObserveServerState(string(st))
}

// tailBuffer keeps the last n bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	n   int
	buf []byte
}

func newTailBuffer(n int) *tailBuffer { return &tailBuffer{n: n} }

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.n; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
