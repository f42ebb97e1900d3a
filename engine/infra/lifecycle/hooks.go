package lifecycle

import (
	"context"
	"sync"

	"github.com/intrence/catalog/pkg/logger"
)

// Hook releases one resource during shutdown.
type Hook func(ctx context.Context) error

type namedHook struct {
	name string
	fn   Hook
}

// Hooks collects shutdown hooks. Shutdown runs them once, newest first;
// failures are logged and do not stop the remaining hooks.
type Hooks struct {
	mu    sync.Mutex
	hooks []namedHook
	done  bool
}

func New() *Hooks {
	return &Hooks{}
}

// Register adds a hook. It returns false once Shutdown has started.
func (h *Hooks) Register(name string, fn Hook) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.done || fn == nil {
		return false
	}
	h.hooks = append(h.hooks, namedHook{name: name, fn: fn})
	return true
}

func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

func (h *Hooks) Shutdown(ctx context.Context) {
	h.mu.Lock()
	if h.done {
		h.mu.Unlock()
		return
	}
	h.done = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()

	log := logger.FromContext(ctx)
	for i := len(hooks) - 1; i >= 0; i-- {
		hk := hooks[i]
		if err := hk.fn(ctx); err != nil {
			log.Error("Shutdown hook failed", "hook", hk.name, "error", err)
			continue
		}
		log.Debug("Shutdown hook completed", "hook", hk.name)
	}
}
