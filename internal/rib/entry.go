package rib

import (
	"fmt"
	"net"
	"time"

	"ripd/internal/addrutil"
)

// Status is a route entry's reachability state.
type Status int

const (
	// Valid entries are installed and counted in LPM lookups.
	Valid Status = iota
	// Invalid entries carry metric 16 and are retained only until their
	// garbage-collection timer fires.
	Invalid
)

func (s Status) String() string {
	if s == Valid {
		return "VALID"
	}
	return "INVALID"
}

// Origin records why an entry exists. The RIB arms a timeout timer only for
// OriginPeer entries (local and static entries never time out), an address
// removal invalidates only an OriginLocal entry, and the show commands
// print it.
type Origin int

const (
	// OriginLocal routes come from an interface's own address (§4.7).
	OriginLocal Origin = iota
	// OriginStatic routes come from explicit default-route injection (§6).
	OriginStatic
	// OriginPeer routes were learned from a RIP neighbor's Response (§4.3).
	OriginPeer
)

func (o Origin) String() string {
	switch o {
	case OriginLocal:
		return "local"
	case OriginStatic:
		return "static"
	default:
		return "rip"
	}
}

// Key is the (network, mask) identity of a route entry. At most one entry
// per Key exists in a RIB (invariant I4 in spec terms, "I4" there names
// timer cardinality — the at-most-one-entry rule is the unlabeled
// per-entry-equality rule in §3).
type Key struct {
	Network string // dotted network address, already masked
	Bits    int    // prefix length 0..32
}

func keyOf(n net.IPNet) Key {
	norm := addrutil.Normalize(n)
	return Key{Network: norm.IP.String(), Bits: addrutil.MaskLen(norm.Mask)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%d", k.Network, k.Bits)
}

// Entry is a single route: destination, next hop, outgoing interface,
// metric, tag, lifecycle state, and the two timer handles that age it out.
type Entry struct {
	Net     net.IPNet
	NextHop net.IP
	IfIndex int
	IfName  string
	Metric  int
	Tag     uint16
	Status  Status
	Changed bool
	Origin  Origin
	Created time.Time

	timeoutDeadline time.Time
	timeout         *handle
	gc              *handle
}

// Key returns e's (network, mask) identity.
func (e *Entry) Key() Key {
	return keyOf(e.Net)
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s nexthop=%s metric=%d if=%s status=%s tag=%d origin=%s",
		&e.Net, e.NextHop, e.Metric, e.IfName, e.Status, e.Tag, e.Origin)
}
