package tts

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// workerProcess abstracts the spawned OS process so tests can substitute
// a fake without touching a real interpreter.
type workerProcess interface {
	Pid() int
	Wait() error
	Kill() error
}

// spawnFunc creates and starts a worker process.
type spawnFunc func() (workerProcess, error)

// startToken is the shared in-flight start operation. While the
// supervisor is Starting, every concurrent Start caller awaits the same
// token, so exactly one spawn attempt occurs per outage. resolve is
// once-only: whichever of the start goroutine or Stop gets there first
// decides the outcome for all waiters.
type startToken struct {
	done chan struct{}
	err  error
	once sync.Once
}

func newStartToken() *startToken {
	return &startToken{done: make(chan struct{})}
}

func (t *startToken) resolve(err error) {
	t.once.Do(func() {
		t.err = err
		close(t.done)
	})
}

// workerHandle identifies the one live supervised process, if any.
type workerHandle struct {
	proc   workerProcess
	exited chan struct{}
}

// Supervisor owns at most one synthesis worker process. Start is
// idempotent and coalescing; Stop is best-effort graceful with a forced
// kill fallback and is safe to call from any state. A Supervisor is
// constructed once and passed by handle to its consumers; there is no
// package-level instance.
type Supervisor struct {
	cfg    WorkerConfig
	client *Client
	prober *Prober
	spawn  spawnFunc

	mu          sync.Mutex
	state       SupervisorState
	handle      *workerHandle
	pending     *startToken
	startCancel context.CancelFunc
}

// NewSupervisor creates a supervisor for the worker described by cfg,
// probing readiness through client.
func NewSupervisor(cfg WorkerConfig, client *Client) *Supervisor {
	s := &Supervisor{
		cfg:    cfg,
		client: client,
		prober: NewProber(client, cfg),
		state:  StateNotStarted,
	}
	s.spawn = s.spawnWorker
	return s
}

// State returns the current lifecycle state.
func (s *Supervisor) State() SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ready reports whether the worker is believed ready for requests.
func (s *Supervisor) Ready() bool {
	return s.State() == StateReady
}

// Start ensures a ready worker. Concurrent callers while a start is in
// flight observe the same outcome without a second spawn. If a worker is
// already answering health checks (for example one started externally),
// the supervisor adopts it without spawning. Start fails with ErrSpawn
// when the worker script cannot be located or executed, and with
// ErrStartupTimeout when readiness probing exhausts its budget.
//
// ctx bounds only this caller's wait: the underlying start attempt runs
// to completion or to its own budget regardless.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.pending != nil {
		tok := s.pending
		s.mu.Unlock()
		return awaitToken(ctx, tok)
	}
	if s.state == StateReady {
		s.mu.Unlock()
		return nil
	}

	tok := newStartToken()
	startCtx, cancel := context.WithCancel(context.Background())
	s.pending = tok
	s.startCancel = cancel
	s.state = StateStarting
	s.mu.Unlock()

	go s.runStart(startCtx, cancel, tok)

	return awaitToken(ctx, tok)
}

func awaitToken(ctx context.Context, tok *startToken) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-tok.done:
		return tok.err
	}
}

// runStart performs the single underlying start attempt for a token.
// cancel aborts the readiness loop early when the process dies mid-start.
func (s *Supervisor) runStart(ctx context.Context, cancel context.CancelFunc, tok *startToken) {
	defer cancel()
	// A worker may already be running, pre-started outside the
	// supervisor. Adopt it instead of spawning a second one.
	if s.prober.Probe(ctx) {
		log.Info("adopted externally started TTS worker", "url", s.cfg.BaseURL())
		s.finishStart(tok, nil, nil)
		return
	}

	proc, err := s.spawn()
	if err != nil {
		s.finishStart(tok, nil, spawnErr(err))
		return
	}

	handle := &workerHandle{proc: proc, exited: make(chan struct{})}
	s.mu.Lock()
	s.handle = handle
	s.mu.Unlock()

	go s.watchExit(handle, cancel)

	if s.prober.WaitUntilReady(ctx, s.cfg.StartupAttempts) {
		s.finishStart(tok, handle, nil)
		return
	}

	// Either the probe budget ran out or the process died mid-startup.
	select {
	case <-handle.exited:
		err = fmt.Errorf("%w: worker exited during startup", ErrSpawn)
	default:
		err = ErrStartupTimeout
	}

	_ = proc.Kill()
	s.finishStart(tok, nil, err)
}

// finishStart publishes the outcome of a start attempt, unless Stop got
// there first and already resolved the token.
func (s *Supervisor) finishStart(tok *startToken, handle *workerHandle, err error) {
	if err == nil && handle != nil {
		// The process can die between the last successful probe and
		// this point; never publish Ready for a dead worker.
		select {
		case <-handle.exited:
			err = fmt.Errorf("%w: worker exited during startup", ErrSpawn)
			handle = nil
		default:
		}
	}

	s.mu.Lock()
	if s.pending == tok {
		s.pending = nil
		s.startCancel = nil
		if err != nil {
			s.state = StateFailed
			s.handle = nil
		} else {
			s.state = StateReady
			s.handle = handle
		}
	}
	s.mu.Unlock()

	if err != nil {
		log.Error("TTS worker start failed", "error", err)
	} else {
		log.Info("TTS worker ready", "url", s.cfg.BaseURL())
	}
	tok.resolve(err)
}

// watchExit waits for the process to terminate and resets supervisor
// state. An exit after Ready is unexpected and leaves the supervisor
// restartable; in-flight requests surface transport errors rather than
// hanging. cancel aborts any readiness loop still probing this process.
func (s *Supervisor) watchExit(handle *workerHandle, cancel context.CancelFunc) {
	err := handle.proc.Wait()
	close(handle.exited)
	cancel()

	s.mu.Lock()
	if s.handle == handle {
		s.handle = nil
		if s.state == StateReady {
			log.Warn("TTS worker exited unexpectedly", "error", err)
			s.state = StateNotStarted
		}
	}
	s.mu.Unlock()
}

// Stop shuts the worker down: a best-effort graceful shutdown request
// whose failure is ignored, then a forced kill if the process is still
// around after the grace period. All supervisor state is cleared
// regardless of what succeeded. Stop is a no-op when nothing is running.
func (s *Supervisor) Stop(ctx context.Context) {
	s.mu.Lock()
	if s.state.Terminal() && s.pending == nil && s.handle == nil {
		s.state = StateStopped
		s.mu.Unlock()
		return
	}

	tok := s.pending
	cancel := s.startCancel
	handle := s.handle
	s.pending = nil
	s.startCancel = nil
	s.state = StateStopping
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if tok != nil {
		tok.resolve(ErrWorkerStopped)
	}

	// Graceful shutdown is advisory. Unreachable, already dead and
	// non-2xx all mean the same thing here: nothing left to ask nicely.
	if err := s.client.Shutdown(ctx); err != nil {
		log.Debug("graceful shutdown skipped", "error", err)
	}

	if handle != nil {
		select {
		case <-handle.exited:
		case <-time.After(s.cfg.StopGrace):
			log.Debug("killing TTS worker", "pid", handle.proc.Pid())
			_ = handle.proc.Kill()
			<-handle.exited
		}
	}

	s.mu.Lock()
	s.handle = nil
	s.state = StateStopped
	s.mu.Unlock()

	log.Info("TTS worker stopped")
}

// execProcess adapts *exec.Cmd to workerProcess.
type execProcess struct {
	cmd *exec.Cmd
}

func (p *execProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *execProcess) Wait() error { return p.cmd.Wait() }

func (p *execProcess) Kill() error {
	if p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// spawnWorker resolves the worker script and starts the interpreter with
// line-buffered stdout/stderr forwarded to the logger.
func (s *Supervisor) spawnWorker() (workerProcess, error) {
	script, err := ResolveWorkerScript(s.cfg)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(s.cfg.Python, script)
	cmd.Env = append(os.Environ(), "PYTHONUNBUFFERED=1")

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s %s: %w", s.cfg.Python, script, err)
	}

	log.Info("spawned TTS worker", "pid", cmd.Process.Pid, "script", script)

	go forwardWorkerOutput(stdout, "stdout")
	go forwardWorkerOutput(stderr, "stderr")

	return &execProcess{cmd: cmd}, nil
}

// forwardWorkerOutput scans one of the worker's output streams line by
// line into the logger.
func forwardWorkerOutput(r io.Reader, stream string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			log.Debug("worker", "stream", stream, "line", line)
		}
	}
}
