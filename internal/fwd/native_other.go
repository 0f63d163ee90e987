//go:build !linux

package fwd

import "net"

// Other is the non-Linux fallback dataplane: interface/address listing
// works via the standard library, but there is no portable netlink
// equivalent to subscribe to, matching the teacher's own
// src/fwd/native_windows.go stub.
type Other struct{}

// NewLinux is kept as the constructor name on every platform so
// cmd/ripd doesn't need a build-tagged call site; on non-Linux it returns
// the no-event-source stub.
func NewLinux() *Other {
	return &Other{}
}

func (d *Other) Interfaces() ([]net.Interface, error) {
	return net.Interfaces()
}

func (d *Other) Addresses(ifname string) ([]net.IPNet, error) {
	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, err
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, err
	}
	out := make([]net.IPNet, 0, len(addrs))
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (d *Other) Subscribe(ch chan<- Event) error {
	return nil // no event source outside Linux; agent falls back to poll-on-startup only
}

func (d *Other) Close() error {
	return nil
}
