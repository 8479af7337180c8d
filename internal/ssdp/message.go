// Package ssdp implements SSDP discovery (control-point role) and
// advertisement (device role): multicast transport, M-SEARCH/NOTIFY
// message framing, the control point's device cache with TTL sweep, and
// the device's periodic alive/byebye announcer.
package ssdp

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	MulticastAddress = "239.255.255.250:1900"
	DefaultTTL       = 4
	DefaultSearchMX  = 2
)

// MessageKind distinguishes the three SSDP message shapes the engine
// sends and receives.
type MessageKind int

const (
	KindSearch   MessageKind = iota // M-SEARCH * HTTP/1.1
	KindNotify                      // NOTIFY * HTTP/1.1
	KindResponse                    // HTTP/1.1 200 OK
)

// Message is an HTTP-over-UDP SSDP datagram: either a request
// (M-SEARCH/NOTIFY) or a response (200 OK), with case-insensitive header
// lookup.
type Message struct {
	Kind    MessageKind
	Method  string // "M-SEARCH" or "NOTIFY", requests only
	Status  int    // 200, responses only
	Headers map[string]string
}

// NewRequest builds an empty request Message of the given method.
func NewRequest(method string) *Message {
	return &Message{Kind: kindForMethod(method), Method: method, Headers: make(map[string]string)}
}

// NewResponse builds an empty 200 OK response Message.
func NewResponse() *Message {
	return &Message{Kind: KindResponse, Status: 200, Headers: make(map[string]string)}
}

func kindForMethod(method string) MessageKind {
	if method == "NOTIFY" {
		return KindNotify
	}
	return KindSearch
}

// Set sets header name (case-insensitive) to value.
func (m *Message) Set(name, value string) *Message {
	m.Headers[strings.ToUpper(name)] = value
	return m
}

// Get returns header name's value (case-insensitive lookup) and whether it
// was present.
func (m *Message) Get(name string) (string, bool) {
	v, ok := m.Headers[strings.ToUpper(name)]
	return v, ok
}

// Encode renders m as the raw HTTP-over-UDP bytes SSDP transmits.
func (m *Message) Encode() []byte {
	var b strings.Builder
	switch m.Kind {
	case KindResponse:
		b.WriteString(fmt.Sprintf("HTTP/1.1 %d OK\r\n", m.Status))
	default:
		b.WriteString(fmt.Sprintf("%s * HTTP/1.1\r\n", m.Method))
	}
	for name, value := range m.Headers {
		b.WriteString(name)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// Parse decodes a raw HTTP-over-UDP datagram into a Message.
func Parse(data []byte) (*Message, error) {
	lines := strings.Split(string(data), "\r\n")
	if len(lines) == 0 || lines[0] == "" {
		return nil, fmt.Errorf("ssdp: empty datagram")
	}

	m := &Message{Headers: make(map[string]string)}
	startLine := lines[0]

	switch {
	case strings.HasPrefix(startLine, "HTTP/1.1"):
		m.Kind = KindResponse
		fields := strings.Fields(startLine)
		if len(fields) < 2 {
			return nil, fmt.Errorf("ssdp: malformed status line %q", startLine)
		}
		status, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("ssdp: malformed status code in %q: %w", startLine, err)
		}
		m.Status = status
	case strings.HasPrefix(startLine, "NOTIFY"):
		m.Kind = KindNotify
		m.Method = "NOTIFY"
	case strings.HasPrefix(startLine, "M-SEARCH"):
		m.Kind = KindSearch
		m.Method = "M-SEARCH"
	default:
		return nil, fmt.Errorf("ssdp: unrecognized start line %q", startLine)
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		name := strings.ToUpper(strings.TrimSpace(line[:idx]))
		value := strings.TrimSpace(line[idx+1:])
		m.Headers[name] = value
	}

	return m, nil
}

// MaxAge extracts the max-age seconds from a CACHE-CONTROL header, e.g.
// "max-age=1800" -> 1800. Returns ok=false if the header is absent or
// malformed, matching spec.md's "SSDP alive without CACHE-CONTROL:
// max-age -> ignored".
func (m *Message) MaxAge() (time.Duration, bool) {
	cc, ok := m.Get("CACHE-CONTROL")
	if !ok {
		return 0, false
	}
	for _, part := range strings.Split(cc, ",") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(strings.ToLower(part), "max-age") {
			eq := strings.Index(part, "=")
			if eq < 0 {
				continue
			}
			seconds, err := strconv.Atoi(strings.TrimSpace(part[eq+1:]))
			if err != nil {
				continue
			}
			return time.Duration(seconds) * time.Second, true
		}
	}
	return 0, false
}

// MX returns the M-SEARCH MX header value, or the default of 2 seconds if
// absent or malformed.
func (m *Message) MX() time.Duration {
	v, ok := m.Get("MX")
	if !ok {
		return DefaultSearchMX * time.Second
	}
	seconds, err := strconv.Atoi(v)
	if err != nil || seconds <= 0 {
		return DefaultSearchMX * time.Second
	}
	return time.Duration(seconds) * time.Second
}

// InterfaceMulticastAddr resolves the multicast group address as a
// *net.UDPAddr.
func InterfaceMulticastAddr() (*net.UDPAddr, error) {
	return net.ResolveUDPAddr("udp4", MulticastAddress)
}
