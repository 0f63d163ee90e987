// Package ripwire implements the RIPv2 (RFC 2453) wire codec: the 4-byte
// header followed by up to 25 20-byte Route Table Entries.
package ripwire

import (
	"encoding/binary"
	"fmt"
	"net"
)

const (
	// Command identifies a RIP message as a request or a response.
	CommandRequest  = 1
	CommandResponse = 2

	// Version is the only version this codec speaks.
	Version = 2

	// AFIInet is the usual address family identifier carried by an RTE.
	AFIInet = 2
	// AFIUnspec marks the whole-table-request RTE (RFC 2453 3.9.1).
	AFIUnspec = 0

	// MetricInfinity is RIP's unreachability sentinel.
	MetricInfinity = 16
	// MetricMin is the smallest metric an installed route may carry.
	MetricMin = 1

	headerSize  = 4
	rteSize     = 20
	// MaxEntries is the largest number of RTEs a single message may carry.
	MaxEntries = 25
	// MaxMessageSize is headerSize + MaxEntries*rteSize.
	MaxMessageSize = headerSize + rteSize*MaxEntries
)

// RTE is a single 20-byte Route Table Entry.
type RTE struct {
	AFI      uint16
	Tag      uint16
	Address  net.IP // an IPv4 address (net.IPv4's 16-byte form after decode)
	Mask     net.IPMask
	NextHop  net.IP
	Metric   uint32
}

// Net returns the RTE's destination as a net.IPNet, normalized to the
// network address (address & mask).
func (e RTE) Net() net.IPNet {
	ip := e.Address.Mask(e.Mask)
	return net.IPNet{IP: ip, Mask: e.Mask}
}

func (e RTE) String() string {
	return fmt.Sprintf("%s/%d nexthop=%s metric=%d tag=%d", e.Address, maskLen(e.Mask), e.NextHop, e.Metric, e.Tag)
}

func maskLen(m net.IPMask) int {
	ones, _ := m.Size()
	return ones
}

func encodeRTE(buf []byte, e RTE) {
	binary.BigEndian.PutUint16(buf[0:2], e.AFI)
	binary.BigEndian.PutUint16(buf[2:4], e.Tag)
	copy(buf[4:8], to4(e.Address))
	copy(buf[8:12], to4mask(e.Mask))
	copy(buf[12:16], to4(e.NextHop))
	binary.BigEndian.PutUint32(buf[16:20], e.Metric)
}

func decodeRTE(buf []byte) RTE {
	return RTE{
		AFI:     binary.BigEndian.Uint16(buf[0:2]),
		Tag:     binary.BigEndian.Uint16(buf[2:4]),
		Address: net.IPv4(buf[4], buf[5], buf[6], buf[7]),
		Mask:    net.IPv4Mask(buf[8], buf[9], buf[10], buf[11]),
		NextHop: net.IPv4(buf[12], buf[13], buf[14], buf[15]),
		Metric:  binary.BigEndian.Uint32(buf[16:20]),
	}
}

func to4(ip net.IP) []byte {
	if ip == nil {
		return net.IPv4zero.To4()
	}
	v4 := ip.To4()
	if v4 == nil {
		return net.IPv4zero.To4()
	}
	return v4
}

func to4mask(m net.IPMask) []byte {
	if len(m) == 4 {
		return m
	}
	if len(m) == 16 {
		return m[12:16]
	}
	return net.IPv4Mask(0, 0, 0, 0)
}
