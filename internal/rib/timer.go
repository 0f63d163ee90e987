package rib

import (
	"sync"
	"time"
)

// handle is a cancellable, idempotent timer handle. Arming returns a
// handle; cancel is safe to call more than once and safe to call on a
// handle whose timer already fired.
//
// Mirrors the teacher's own concurrency shape (src/rip/router.go's
// RipRouter.vrfMutex): several goroutines — the agent's event loop,
// the CLI console, and per-route timers below — all touch shared RIB
// state, and a mutex is what keeps that safe. This is the idiomatic Go
// rendering of the spec's single-threaded discrete-event model: instead of
// one physical thread, every mutation funnels through the same lock.
type handle struct {
	mu   sync.Mutex
	t    *time.Timer
	live bool
}

func arm(d time.Duration, fire func()) *handle {
	h := &handle{live: true}
	h.t = time.AfterFunc(d, func() {
		h.mu.Lock()
		wasLive := h.live
		h.live = false
		h.mu.Unlock()
		if wasLive {
			fire()
		}
	})
	return h
}

// cancel stops h's timer if still pending. Idempotent: a second call, or a
// call after the timer already fired, is a silent no-op.
func (h *handle) cancel() {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.live = false
	h.mu.Unlock()
	h.t.Stop()
}
