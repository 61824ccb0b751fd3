// Package shutdown turns SIGINT/SIGTERM into context cancellation. The first
// signal lets the current file finish; a second one exits immediately.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// ExitInterrupted is the status used when a second signal forces an exit.
const ExitInterrupted = 130

// Handler manages graceful shutdown
type Handler struct {
	ctx        context.Context
	cancel     context.CancelFunc
	signals    chan os.Signal
	mu         sync.Mutex
	received   int
	cleanupFns []func()
	once       sync.Once
	exit       func(int)
}

// New creates a new shutdown handler
func New() *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handler{
		ctx:     ctx,
		cancel:  cancel,
		signals: make(chan os.Signal, 2),
		exit:    os.Exit,
	}
}

// Context returns the shutdown context
func (h *Handler) Context() context.Context {
	return h.ctx
}

// AddCleanup registers a function run once, on the first signal or on
// Shutdown. Functions run in registration order.
func (h *Handler) AddCleanup(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleanupFns = append(h.cleanupFns, fn)
}

// Listen starts listening for shutdown signals
func (h *Handler) Listen() {
	signal.Notify(h.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		for range h.signals {
			h.handle()
		}
	}()
}

// Stop stops signal delivery. Pending work is not cancelled.
func (h *Handler) Stop() {
	signal.Stop(h.signals)
}

func (h *Handler) handle() {
	h.mu.Lock()
	h.received++
	n := h.received
	h.mu.Unlock()

	if n > 1 {
		h.exit(ExitInterrupted)
		return
	}
	h.Shutdown()
}

// Interrupted reports whether a signal has been received.
func (h *Handler) Interrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.received > 0
}

// Shutdown triggers graceful shutdown
func (h *Handler) Shutdown() {
	h.once.Do(func() {
		h.cancel()

		h.mu.Lock()
		fns := h.cleanupFns
		h.mu.Unlock()

		for _, fn := range fns {
			fn()
		}
	})
}
