// Package sock wires up the two socket shapes §6 needs: a receive socket per
// interface, bound to 0.0.0.0:520, restricted to that interface and joined
// to 224.0.0.9 there (there is no single shared receive socket), and one
// send socket per interface bound to that interface's primary address on
// port 520. Grounded on src/sock/multicast.go, with the raw
// syscall.SockaddrInet4/SO_BINDTODEVICE plumbing upgraded to
// golang.org/x/sys/unix's portable constants (the teacher already pulls in
// golang.org/x/net/ipv4 for the packet-level API; x/sys is its sibling
// module and the natural place for the socket-option layer underneath it).
package sock

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"
)

// MulticastSock is a UDP socket bound to a fixed port and a single
// interface, read through golang.org/x/net/ipv4's PacketConn so inbound
// datagrams carry their arrival interface index, destination, and IP TTL —
// exactly what §4.3 step 1's on-link (TTL==255) check needs.
type MulticastSock struct {
	Packet *ipv4.PacketConn
	UDP    *net.UDPConn
}

// Listener opens a receive socket bound to 0.0.0.0:port and restricted (via
// SO_BINDTODEVICE) to ifname, with control messages enabled for TTL,
// source, destination, and arrival interface.
func Listener(port int, ifname string) (*MulticastSock, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, unix.IPPROTO_UDP)
	if err != nil {
		return nil, fmt.Errorf("sock.Listener: socket(port=%d,if=%s): %w", port, ifname, err)
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sock.Listener: SO_REUSEADDR(port=%d,if=%s): %w", port, ifname, err)
	}
	if err := unix.BindToDevice(fd, ifname); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sock.Listener: SO_BINDTODEVICE(port=%d,if=%s): %w", port, ifname, err)
	}

	sa := &unix.SockaddrInet4{Port: port}
	if err := unix.Bind(fd, sa); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sock.Listener: bind(port=%d,if=%s): %w", port, ifname, err)
	}

	f := os.NewFile(uintptr(fd), "")
	c, err := net.FilePacketConn(f)
	f.Close()
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("sock.Listener: FilePacketConn(port=%d,if=%s): %w", port, ifname, err)
	}

	udp := c.(*net.UDPConn)
	p := ipv4.NewPacketConn(c)
	if err := p.SetControlMessage(ipv4.FlagTTL|ipv4.FlagSrc|ipv4.FlagDst|ipv4.FlagInterface, true); err != nil {
		return nil, fmt.Errorf("sock.Listener: SetControlMessage: %w", err)
	}

	return &MulticastSock{Packet: p, UDP: udp}, nil
}

// Join joins group on ifname's socket.
func Join(s *MulticastSock, group net.IP, ifname string) error {
	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return fmt.Errorf("sock.Join: InterfaceByName(%s): %w", ifname, err)
	}
	if err := s.Packet.JoinGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("sock.Join: JoinGroup(%v,%s): %w", group, ifname, err)
	}
	return nil
}

// Leave leaves group on ifi's socket.
func Leave(s *MulticastSock, group net.IP, ifi *net.Interface) error {
	if err := s.Packet.LeaveGroup(ifi, &net.UDPAddr{IP: group}); err != nil {
		return fmt.Errorf("sock.Leave: LeaveGroup(%v,%s): %w", group, ifi.Name, err)
	}
	return nil
}

// Close releases s. Close errors are ignored, so a second call is a silent
// no-op on already-closed connections.
func Close(s *MulticastSock) {
	s.Packet.Close()
	s.UDP.Close()
}

// sendTTL is the IP TTL every RIPv2 packet must carry (§6): the receiver
// side enforces ttl==255 on every inbound Response (response.go's
// WrongHopCount check), so the send socket has to set it explicitly —
// the kernel's own defaults (64 for unicast, 1 for multicast) would get
// every packet this agent sends dropped by any other conformant listener.
const sendTTL = 255

// NewSender opens a send-only UDP socket bound to ifname's primary address
// on port 520 (§4.2's "Send-socket map": one per interface, bound to that
// interface's primary address, source port 520), with outbound TTL pinned
// to 255 for both unicast and multicast destinations.
func NewSender(port int, ifname string) (*net.UDPConn, error) {
	ifi, err := net.InterfaceByName(ifname)
	if err != nil {
		return nil, fmt.Errorf("sock.NewSender: InterfaceByName(%s): %w", ifname, err)
	}
	addrs, err := ifi.Addrs()
	if err != nil {
		return nil, fmt.Errorf("sock.NewSender: Addrs(%s): %w", ifname, err)
	}

	var local net.IP
	for _, a := range addrs {
		if n, ok := a.(*net.IPNet); ok && n.IP.To4() != nil {
			local = n.IP
			break
		}
	}
	if local == nil {
		return nil, fmt.Errorf("sock.NewSender: no IPv4 address on %s", ifname)
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: local, Port: port})
	if err != nil {
		return nil, fmt.Errorf("sock.NewSender: ListenUDP(%s,%d): %w", local, port, err)
	}

	p := ipv4.NewPacketConn(conn)
	if err := p.SetTTL(sendTTL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sock.NewSender: SetTTL(%s): %w", ifname, err)
	}
	if err := p.SetMulticastTTL(sendTTL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sock.NewSender: SetMulticastTTL(%s): %w", ifname, err)
	}
	return conn, nil
}
