// Package rib implements the Routing Information Base: an insertion-ordered
// collection of route entries, each aged by a timeout and a
// garbage-collection timer, looked up by longest-prefix-match for the
// forwarding interface and by exact (network, mask) for request replies.
//
// Grounded on src/rip/router.go's ripVrf/ripRoute (the update arithmetic and
// field set) and src/rib/rib.go (the daemon-level RIB shape), generalized
// from the teacher's VRF-scoped table to the single-VRF agent this spec
// describes.
package rib

import (
	"net"
	"sync"
	"time"

	"ripd/internal/addrutil"
)

const (
	// Timeout is how long a VALID entry survives without a refresh (§4.3, §6).
	Timeout = 180 * time.Second
	// GC is how long an INVALID entry is retained before deletion (§4.5, §6).
	GC = 120 * time.Second
)

// RIB owns every route entry for this agent. notifyChange is invoked
// (outside any lock) whenever a mutation should trigger a triggered update
// (§4.4); it is nil-safe.
type RIB struct {
	mu            sync.RWMutex
	order         []*Entry
	byKey         map[Key]*Entry
	notifyChange  func()
	timeout       time.Duration
	gc            time.Duration
}

// New creates an empty RIB. notifyChange is called whenever a route change
// should schedule a triggered update; pass nil to ignore (tests do).
func New(notifyChange func()) *RIB {
	return &RIB{
		byKey:        map[Key]*Entry{},
		notifyChange: notifyChange,
		timeout:      Timeout,
		gc:           GC,
	}
}

// SetTimers overrides the default timeout/gc durations — used by tests that
// can't wait 180s for a timer to fire.
func (r *RIB) SetTimers(timeout, gc time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = timeout
	r.gc = gc
}

func (r *RIB) fire() {
	if r.notifyChange != nil {
		r.notifyChange()
	}
}

// Get returns the current entry at key, if any.
func (r *RIB) Get(key Key) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.byKey[key]
	return e, ok
}

// All returns a snapshot of every entry, in insertion order.
func (r *RIB) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Entry, len(r.order))
	copy(out, r.order)
	return out
}

// Install inserts e as a brand-new entry (no prior entry at e.Key() may
// exist — callers that need to replace one call Replace instead), arms its
// aging timer per its Status and Origin (see armLocked), and returns it.
func (r *RIB) Install(e *Entry) *Entry {
	r.mu.Lock()
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	key := e.Key()
	r.order = append(r.order, e)
	r.byKey[key] = e
	r.armLocked(e)
	r.mu.Unlock()
	r.fire()
	return e
}

// Replace swaps out the entry at e.Key() (if any) for a fresh object,
// cancelling the old entry's timers first so no stale callback can act on
// it (design note in §9: never let a timer outlive the object it read its
// key from at arm time). Used whenever the update rules in §4.3 pick a new
// gateway for an already-known prefix.
func (r *RIB) Replace(e *Entry) *Entry {
	r.mu.Lock()
	key := e.Key()
	if old, ok := r.byKey[key]; ok {
		old.timeout.cancel()
		old.gc.cancel()
		for i, x := range r.order {
			if x == old {
				r.order[i] = e
				break
			}
		}
	} else {
		r.order = append(r.order, e)
	}
	if e.Created.IsZero() {
		e.Created = time.Now()
	}
	r.byKey[key] = e
	r.armLocked(e)
	r.mu.Unlock()
	r.fire()
	return e
}

// armLocked arms e's aging timer according to its status and origin. Only
// peer-learned entries age out on a timeout (RFC 2453's per-route timer);
// directly-connected and statically-configured entries stay VALID until an
// interface or config event explicitly invalidates them (§4.7, §6).
func (r *RIB) armLocked(e *Entry) {
	switch {
	case e.Status != Valid:
		r.armGC(e)
	case e.Origin == OriginPeer:
		r.armTimeout(e)
	}
}

// ResetTimeout refreshes e's timeout timer (RFC 2453: "reinitialize the
// timeout" when a Response arrives from the same gateway with the same
// metric, or a better one).
func (r *RIB) ResetTimeout(e *Entry) {
	r.mu.Lock()
	e.timeout.cancel()
	r.armTimeout(e)
	r.mu.Unlock()
}

// MarkChanged sets e's changed flag and schedules a triggered update.
func (r *RIB) MarkChanged(e *Entry) {
	r.mu.Lock()
	e.Changed = true
	r.mu.Unlock()
	r.fire()
}

// ClearChangedFlags resets every entry's changed flag to false. Called
// after a periodic update sends the full table (§4.4): a subsequent
// triggered update may then legitimately fire with nothing to send.
func (r *RIB) ClearChangedFlags() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.order {
		e.Changed = false
	}
}

// Invalidate drives an entry from VALID to INVALID: metric becomes 16,
// changed is set, the timeout timer is cancelled, and a garbage-collection
// timer is armed (§4.5). Safe to call on an already-INVALID entry.
func (r *RIB) Invalidate(e *Entry) {
	r.mu.Lock()
	r.invalidateLocked(e)
	r.mu.Unlock()
	r.fire()
}

func (r *RIB) invalidateLocked(e *Entry) {
	e.timeout.cancel()
	e.Status = Invalid
	e.Metric = 16
	e.Changed = true
	r.armGC(e)
}

// Delete removes e unconditionally, cancelling both of its timers first.
func (r *RIB) Delete(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteLocked(e)
}

func (r *RIB) deleteLocked(e *Entry) {
	e.timeout.cancel()
	e.gc.cancel()
	key := e.Key()
	if cur, ok := r.byKey[key]; ok && cur == e {
		delete(r.byKey, key)
	}
	for i, x := range r.order {
		if x == e {
			last := len(r.order) - 1
			r.order[i] = r.order[last]
			r.order[last] = nil
			r.order = r.order[:last]
			break
		}
	}
}

func (r *RIB) armTimeout(e *Entry) {
	var h *handle
	key := e.Key()
	d := r.timeout
	h = arm(d, func() { r.onTimeout(key, h) })
	e.timeout = h
	e.timeoutDeadline = time.Now().Add(d)
}

// TimeoutRemaining returns how long e's timeout timer has left to run, or
// zero if it isn't armed. Used by the response handler's tie-break rule
// (§4.3: a same-metric advertisement from a new gateway replaces the route
// only when the existing timer has less than half its period left).
func (r *RIB) TimeoutRemaining(e *Entry) time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e.Status != Valid {
		return 0
	}
	d := time.Until(e.timeoutDeadline)
	if d < 0 {
		return 0
	}
	return d
}

// TimeoutPeriod returns the configured timeout duration entries are armed
// with, so callers can compute "less than half remaining" without reaching
// into RIB internals.
func (r *RIB) TimeoutPeriod() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.timeout
}

func (r *RIB) armGC(e *Entry) {
	var h *handle
	key := e.Key()
	d := r.gc
	h = arm(d, func() { r.onGC(key, h) })
	e.gc = h
}

// onTimeout fires when an entry's 180s timeout elapses with no refresh. It
// captures only the (network,mask) key and the timer handle it was armed
// with, never the entry object, so a Replace() in the interim leaves this
// callback a harmless no-op (§9 design note).
func (r *RIB) onTimeout(key Key, h *handle) {
	r.mu.Lock()
	e, ok := r.byKey[key]
	if !ok || e.timeout != h {
		r.mu.Unlock()
		return // stale: entry gone or replaced since this timer was armed
	}
	r.invalidateLocked(e)
	r.mu.Unlock()
	r.fire()
}

// onGC fires 120s after an entry went INVALID; it deletes the entry unless
// it has since been resurrected (Replace'd) out from under this timer.
func (r *RIB) onGC(key Key, h *handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byKey[key]
	if !ok || e.gc != h {
		return
	}
	r.deleteLocked(e)
}

// LookupExact returns the entry whose (network, mask) exactly matches n, if
// any (§4.6b specific-prefix request handling).
func (r *RIB) LookupExact(n net.IPNet) (*Entry, bool) {
	return r.Get(keyOf(n))
}

// LookupLPM performs longest-prefix-match over every VALID entry. When
// preferredIface is non-empty, only entries on that interface are
// considered. Ties on mask length are broken toward the later-examined
// entry, matching insertion-order traversal (§4.2, testable property 6).
func (r *RIB) LookupLPM(dst net.IP, preferredIface string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *Entry
	bestLen := -1
	for _, e := range r.order {
		if e.Status != Valid {
			continue
		}
		if preferredIface != "" && e.IfName != preferredIface {
			continue
		}
		if !e.Net.Contains(dst) {
			continue
		}
		l := addrutil.MaskLen(e.Net.Mask)
		if l >= bestLen {
			best = e
			bestLen = l
		}
	}
	if best == nil {
		return nil, false
	}
	return best, true
}
