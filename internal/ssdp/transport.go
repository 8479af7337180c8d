package ssdp

import (
	"fmt"
	"net"
	"runtime"
	"time"

	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/upnpgo/avengine/internal/logger"
)

// Transport owns one UDP socket joined to 239.255.255.250:1900. It receives
// NOTIFY/M-SEARCH, sends alive/byebye/search to the group, and also sends
// the unicast search responses; there is no separate unicast socket.
// Socket tuning (join group, TTL, loopback) goes through
// golang.org/x/net/ipv4.PacketConn, which exposes the multicast knobs
// net.UDPConn alone does not.
type Transport struct {
	conn       *net.UDPConn
	packetConn *ipv4.PacketConn
	iface      *net.Interface
	groupAddr  *net.UDPAddr
}

// NewTransport opens and configures the multicast socket bound to the
// named interface (empty selects the default multicast interface).
func NewTransport(interfaceName string) (*Transport, error) {
	groupAddr, err := InterfaceMulticastAddr()
	if err != nil {
		return nil, fmt.Errorf("ssdp: resolve multicast address: %w", err)
	}

	var iface *net.Interface
	if interfaceName != "" {
		iface, err = net.InterfaceByName(interfaceName)
		if err != nil {
			return nil, fmt.Errorf("ssdp: interface %q: %w", interfaceName, err)
		}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: groupAddr.Port})
	if err != nil {
		return nil, fmt.Errorf("ssdp: listen udp4: %w", err)
	}

	if err := setReuseAddr(conn); err != nil {
		logger.SSDPLog.Warnf("failed to set SO_REUSEADDR: %v", err)
	}

	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(iface, groupAddr); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ssdp: join multicast group: %w", err)
	}
	if err := pc.SetMulticastTTL(DefaultTTL); err != nil {
		logger.SSDPLog.Warnf("failed to set multicast TTL: %v", err)
	}
	if err := pc.SetMulticastLoopback(true); err != nil {
		logger.SSDPLog.Warnf("failed to enable multicast loopback: %v", err)
	}
	if err := pc.SetControlMessage(ipv4.FlagSrc, true); err != nil {
		logger.SSDPLog.Debugf("failed to request control messages: %v", err)
	}

	return &Transport{conn: conn, packetConn: pc, iface: iface, groupAddr: groupAddr}, nil
}

// Send transmits data to the multicast group.
func (t *Transport) Send(data []byte) error {
	_, err := t.packetConn.WriteTo(data, nil, t.groupAddr)
	return err
}

// SendTo transmits data as a unicast datagram to dst, used for search
// responses.
func (t *Transport) SendTo(data []byte, dst *net.UDPAddr) error {
	_, err := t.conn.WriteToUDP(data, dst)
	return err
}

// ReadMessage blocks until a datagram arrives or deadline elapses (a zero
// deadline blocks indefinitely), returning the parsed Message and the
// sender's address.
func (t *Transport) ReadMessage(deadline time.Time) (*Message, *net.UDPAddr, error) {
	buf := make([]byte, 4096)
	if err := t.conn.SetReadDeadline(deadline); err != nil {
		return nil, nil, err
	}
	n, _, src, err := t.packetConn.ReadFrom(buf)
	if err != nil {
		return nil, nil, err
	}
	addr, ok := src.(*net.UDPAddr)
	if !ok {
		return nil, nil, fmt.Errorf("ssdp: unexpected source address type %T", src)
	}
	msg, err := Parse(buf[:n])
	if err != nil {
		return nil, addr, err
	}
	return msg, addr, nil
}

// Close leaves the multicast group and closes the socket.
func (t *Transport) Close() error {
	_ = t.packetConn.LeaveGroup(t.iface, t.groupAddr)
	return t.conn.Close()
}

// setReuseAddr sets SO_REUSEADDR on conn's underlying file descriptor so
// that multiple SSDP participants (e.g. a control point and a device host
// on the same machine) can each bind port 1900. Linux-only, matching the
// rest of the raw-socket tuning this package does.
func setReuseAddr(conn *net.UDPConn) error {
	if runtime.GOOS != "linux" {
		return nil
	}
	rawConn, err := conn.SyscallConn()
	if err != nil {
		return err
	}
	var sockErr error
	ctrlErr := rawConn.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if ctrlErr != nil {
		return ctrlErr
	}
	return sockErr
}
