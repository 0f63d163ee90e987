package fwd

import (
	"net"
	"testing"
	"time"
)

func TestBogusEmitsLinkEvents(t *testing.T) {
	b := NewBogus()
	b.AddInterface("eth0")

	ch := make(chan Event, 4)
	if err := b.Subscribe(ch); err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	if err := b.SetLinkUp("eth0", true); err != nil {
		t.Fatalf("SetLinkUp: %v", err)
	}

	select {
	case ev := <-ch:
		if ev.Kind != LinkUp || ev.IfName != "eth0" {
			t.Fatalf("got %+v, want LinkUp eth0", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for LinkUp")
	}
}

func TestBogusEmitsAddrEvents(t *testing.T) {
	b := NewBogus()
	b.AddInterface("eth0")
	addr := net.IPNet{IP: net.ParseIP("10.1.2.3"), Mask: net.CIDRMask(24, 32)}

	ch := make(chan Event, 4)
	b.Subscribe(ch)

	if err := b.AddAddress("eth0", addr); err != nil {
		t.Fatalf("AddAddress: %v", err)
	}
	ev := <-ch
	if ev.Kind != AddrAdd || ev.Addr.String() != addr.String() {
		t.Fatalf("got %+v, want AddrAdd %v", ev, addr)
	}

	got, err := b.Addresses("eth0")
	if err != nil || len(got) != 1 {
		t.Fatalf("Addresses = %v, %v", got, err)
	}

	if err := b.DelAddress("eth0", addr); err != nil {
		t.Fatalf("DelAddress: %v", err)
	}
	ev = <-ch
	if ev.Kind != AddrDel {
		t.Fatalf("got %+v, want AddrDel", ev)
	}
	got, _ = b.Addresses("eth0")
	if len(got) != 0 {
		t.Fatalf("Addresses after DelAddress = %v, want empty", got)
	}
}

func TestBogusUnknownInterface(t *testing.T) {
	b := NewBogus()
	if err := b.SetLinkUp("nope", true); err == nil {
		t.Fatal("expected error for unknown interface")
	}
}

func TestIsGlobal(t *testing.T) {
	cases := []struct {
		ip   string
		want bool
	}{
		{"10.1.2.3", true},
		{"192.168.0.1", true},
		{"127.0.0.1", false},
		{"169.254.1.1", false},
		{"224.0.0.9", false},
		{"0.0.0.0", false},
	}
	for _, c := range cases {
		got := IsGlobal(net.ParseIP(c.ip))
		if got != c.want {
			t.Errorf("IsGlobal(%s) = %v, want %v", c.ip, got, c.want)
		}
	}
}

func TestSelectGlobalAddress(t *testing.T) {
	addrs := []net.IPNet{
		{IP: net.ParseIP("169.254.1.1"), Mask: net.CIDRMask(16, 32)},
		{IP: net.ParseIP("10.0.0.1"), Mask: net.CIDRMask(24, 32)},
	}
	ip, ok := SelectGlobalAddress(addrs)
	if !ok || !ip.Equal(net.ParseIP("10.0.0.1")) {
		t.Fatalf("SelectGlobalAddress = %v, %v", ip, ok)
	}

	_, ok = SelectGlobalAddress(addrs[:1])
	if ok {
		t.Fatal("expected no GLOBAL address among link-local-only addrs")
	}
}
