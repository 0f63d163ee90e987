package ripagent

import (
	"net"
	"testing"

	"ripd/internal/ripwire"
)

func makeRTE(t *testing.T, cidr string, metric uint32) ripwire.RTE {
	t.Helper()
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		t.Fatalf("ParseCIDR(%s): %v", cidr, err)
	}
	return ripwire.RTE{
		AFI: ripwire.AFIInet, Address: ip.To4(), Mask: n.Mask,
		NextHop: net.IPv4zero, Metric: metric,
	}
}

func responseWith(rtes ...ripwire.RTE) ripwire.Message {
	return ripwire.Message{Command: ripwire.CommandResponse, Entries: rtes}
}

// mustAddr parses cidr as a host address (unlike mustNet, it keeps the host
// bits rather than masking down to the network).
func mustAddr(t *testing.T, cidr string) net.IPNet {
	t.Helper()
	ip, n, err := net.ParseCIDR(cidr)
	if err != nil {
		t.Fatalf("ParseCIDR(%s): %v", cidr, err)
	}
	return net.IPNet{IP: ip, Mask: n.Mask}
}
