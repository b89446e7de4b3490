package server

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"
)

// ShutdownHook is a named cleanup function. Lower priority runs first.
type ShutdownHook struct {
	Name     string
	Priority int
	Fn       func(ctx context.Context) error
}

// ShutdownHandler runs registered hooks on SIGTERM/SIGINT or an explicit
// Trigger, in priority order, under one timeout.
type ShutdownHandler struct {
	mu      sync.Mutex
	hooks   []ShutdownHook
	timeout time.Duration
	once    sync.Once
	doneCh  chan struct{}
}

// NewShutdownHandler creates a handler with the given timeout (default 30s).
func NewShutdownHandler(timeout time.Duration) *ShutdownHandler {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &ShutdownHandler{
		timeout: timeout,
		doneCh:  make(chan struct{}),
	}
}

// RegisterHook adds a shutdown hook.
func (s *ShutdownHandler) RegisterHook(name string, priority int, fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, ShutdownHook{Name: name, Priority: priority, Fn: fn})
	sort.SliceStable(s.hooks, func(i, j int) bool { return s.hooks[i].Priority < s.hooks[j].Priority })
}

// Start begins listening for SIGTERM/SIGINT in the background.
func (s *ShutdownHandler) Start() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		sig := <-sigCh
		signal.Stop(sigCh)
		slog.Info("shutdown signal received", "signal", sig.String())
		s.run()
	}()
}

// Trigger starts shutdown without a signal.
func (s *ShutdownHandler) Trigger() {
	s.run()
}

// Wait blocks until shutdown has completed.
func (s *ShutdownHandler) Wait() {
	<-s.doneCh
}

func (s *ShutdownHandler) run() {
	s.once.Do(func() {
		defer close(s.doneCh)

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		s.mu.Lock()
		hooks := make([]ShutdownHook, len(s.hooks))
		copy(hooks, s.hooks)
		s.mu.Unlock()

		for _, hook := range hooks {
			if err := hook.Fn(ctx); err != nil {
				slog.Error("shutdown hook failed", "hook", hook.Name, "error", err)
			} else {
				slog.Debug("shutdown hook completed", "hook", hook.Name)
			}
		}
	})
}
