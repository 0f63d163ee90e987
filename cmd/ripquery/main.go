// Command ripquery sends a RIPv2 request for one or more prefixes and
// prints whatever replies arrive. Adapted from src/tools/rip-query's
// hand-rolled byte writer, using internal/ripwire's codec instead of
// poking offsets directly.
package main

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"ripd/internal/ripwire"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Printf("usage:   ripquery host:port     net1 [ net2 ... netN ]\n")
		fmt.Printf("example: ripquery 224.0.0.9:520 10.0.0.0/24 192.168.1.0/24\n")
		fmt.Printf("example: ripquery 224.0.0.9:520 0.0.0.0/0\n")
		os.Exit(1)
	}

	if err := query(os.Args[1], os.Args[2:]); err != nil {
		fmt.Printf("ripquery: %v\n", err)
		os.Exit(1)
	}
}

func query(hostPort string, nets []string) error {
	entries := make([]ripwire.RTE, len(nets))
	for i, n := range nets {
		n = strings.TrimSpace(n)
		_, netaddr, err := net.ParseCIDR(n)
		if err != nil {
			return fmt.Errorf("could not parse network %q: %w", n, err)
		}
		entries[i] = ripwire.RTE{
			AFI:     ripwire.AFIInet,
			Address: netaddr.IP,
			Mask:    netaddr.Mask,
			NextHop: net.IPv4zero,
			Metric:  ripwire.MetricInfinity,
		}
	}

	buf, err := ripwire.Encode(ripwire.Message{Command: ripwire.CommandRequest, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	raddr, err := net.ResolveUDPAddr("udp", hostPort)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", hostPort, err)
	}

	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return fmt.Errorf("dial %v: %w", raddr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(buf); err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	fmt.Printf("sent request: %d bytes to %v, %d prefixes\n", len(buf), raddr, len(entries))

	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	resp := make([]byte, ripwire.MaxMessageSize)
	for {
		n, src, err := conn.ReadFromUDP(resp)
		if err != nil {
			return nil // timeout: no more replies
		}
		msg, err := ripwire.Decode(resp[:n])
		if err != nil {
			fmt.Printf("malformed reply from %v: %v\n", src, err)
			continue
		}
		fmt.Printf("reply from %v: %d entries\n", src, len(msg.Entries))
		for _, e := range msg.Entries {
			fmt.Printf("  %s\n", e)
		}
	}
}
