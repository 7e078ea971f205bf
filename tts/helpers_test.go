package tts

import (
	"net"
	"net/url"
	"strconv"
	"sync"
	"testing"
	"time"
)

// workerConfigForURL points a WorkerConfig at a test server, with
// timings tightened so probe loops finish quickly.
func workerConfigForURL(t *testing.T, rawURL string) WorkerConfig {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	host, portStr, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatalf("split test server host: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("parse test server port: %v", err)
	}

	cfg := DefaultConfig().Worker
	cfg.Host = host
	cfg.Port = port
	cfg.StartupAttempts = 20
	cfg.ProbeInterval = 10 * time.Millisecond
	cfg.ProbeTimeout = 500 * time.Millisecond
	cfg.RequestTimeout = 5 * time.Second
	cfg.StopGrace = 100 * time.Millisecond
	return cfg
}

// unreachableWorkerConfig points at a port nothing listens on.
func unreachableWorkerConfig(t *testing.T) WorkerConfig {
	t.Helper()

	// Grab a free port and release it so connections get refused.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("reserve port: %v", err)
	}
	addr := l.Addr().(*net.TCPAddr)
	_ = l.Close()

	cfg := DefaultConfig().Worker
	cfg.Host = "127.0.0.1"
	cfg.Port = addr.Port
	cfg.StartupAttempts = 2
	cfg.ProbeInterval = 10 * time.Millisecond
	cfg.ProbeTimeout = 200 * time.Millisecond
	cfg.RequestTimeout = time.Second
	cfg.StopGrace = 50 * time.Millisecond
	return cfg
}

// fakeProcess is a workerProcess whose lifetime tests control directly.
type fakeProcess struct {
	pid    int
	once   sync.Once
	exited chan struct{}
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, exited: make(chan struct{})}
}

func (p *fakeProcess) Pid() int { return p.pid }

func (p *fakeProcess) Wait() error {
	<-p.exited
	return nil
}

func (p *fakeProcess) Kill() error {
	p.exit()
	return nil
}

func (p *fakeProcess) exit() {
	p.once.Do(func() { close(p.exited) })
}
