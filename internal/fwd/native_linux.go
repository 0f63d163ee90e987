//go:build linux

package fwd

import (
	"fmt"
	"net"

	"github.com/udhos/netlink"
)

// Linux is the production Dataplane: it lists interfaces/addresses via the
// standard library and pushes netlink link/address events, exactly the
// event source src/fwd/native_linux.go wires up for the daemon's CLI-facing
// dataplane — retargeted here to feed the RIP interface observer (§4.7)
// instead of logging the update and discarding it.
type Linux struct {
	linkDone chan struct{}
	addrDone chan struct{}
}

// NewLinux constructs a Linux dataplane. It does not yet subscribe to
// netlink; call Subscribe to start delivering events.
func NewLinux() *Linux {
	return &Linux{}
}

func (d *Linux) Interfaces() ([]net.Interface, error) {
	return net.Interfaces()
}

func (d *Linux) Addresses(ifname string) ([]net.IPNet, error) {
	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("fwd.Linux.Addresses: %w", err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("fwd.Linux.Addresses: %w", err)
	}
	out := make([]net.IPNet, 0, len(addrs))
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (d *Linux) Subscribe(ch chan<- Event) error {
	linkCh := make(chan netlink.LinkUpdate)
	d.linkDone = make(chan struct{})
	if err := netlink.LinkSubscribe(linkCh, d.linkDone); err != nil {
		return fmt.Errorf("fwd.Linux.Subscribe: link: %w", err)
	}

	addrCh := make(chan netlink.AddrUpdate)
	d.addrDone = make(chan struct{})
	if err := netlink.AddrSubscribe(addrCh, d.addrDone); err != nil {
		close(d.linkDone)
		return fmt.Errorf("fwd.Linux.Subscribe: addr: %w", err)
	}

	go func() {
		for {
			select {
			case lu, ok := <-linkCh:
				if !ok {
					return
				}
				attrs := lu.Link.Attrs()
				kind := LinkDown
				if attrs.Flags&net.FlagUp != 0 {
					kind = LinkUp
				}
				ch <- Event{Kind: kind, IfIndex: attrs.Index, IfName: attrs.Name}
			case au, ok := <-addrCh:
				if !ok {
					return
				}
				ifname := indexToName(au.LinkIndex)
				kind := AddrDel
				if au.NewAddr {
					kind = AddrAdd
				}
				ch <- Event{Kind: kind, IfIndex: au.LinkIndex, IfName: ifname, Addr: au.LinkAddress}
			}
		}
	}()

	return nil
}

func indexToName(index int) string {
	ifi, err := net.InterfaceByIndex(index)
	if err != nil || ifi == nil {
		return ""
	}
	return ifi.Name
}

func (d *Linux) Close() error {
	if d.linkDone != nil {
		close(d.linkDone)
	}
	if d.addrDone != nil {
		close(d.addrDone)
	}
	return nil
}
